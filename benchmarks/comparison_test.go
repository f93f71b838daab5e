package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/executor"
	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/plan"
	"github.com/miretskiy/firn/serialize"
	"github.com/miretskiy/firn/temporal"
)

const rows = 100_000

// minutes returns rows naive instants one minute apart, with every 97th row
// missing.
func minutes(b *testing.B) *temporal.DatetimeColumn {
	b.Helper()
	ticks := make([]int64, rows)
	valid := make([]bool, rows)
	for i := range ticks {
		ticks[i] = 1704067200 + int64(i)*60
		valid[i] = i%97 != 0
	}
	c, err := temporal.Datetimes(temporal.Second, ticks, valid)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

func readings(b *testing.B) *frame.DataFrame {
	b.Helper()
	ids := make([]int64, rows)
	for i := range ids {
		ids[i] = int64(i)
	}
	id, err := column.FromInt64s(column.Int64, ids, nil)
	if err != nil {
		b.Fatal(err)
	}
	ts, err := minutes(b).TzLocalize("Europe/Berlin", temporal.PolicyNaT, temporal.PolicyNaT)
	if err != nil {
		b.Fatal(err)
	}
	df, err := frame.New(&frame.Series{Name: "id", Data: id}, frame.FromTemporal("ts", ts))
	if err != nil {
		b.Fatal(err)
	}
	return df
}

// Benchmark scenarios for the temporal column algebra

func BenchmarkTemporalOperations(b *testing.B) {
	c := minutes(b)

	b.Run("AddDuration", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Add(90 * time.Minute); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Year", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Year(); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Floor", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Floor("h"); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Strftime", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Strftime("%Y-%m-%dT%H:%M:%S"); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Quantile", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Quantile(0.9, column.Linear); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// Localization walks the transition table once per row; conversion back to
// UTC is a re-tag and should cost next to nothing.
func BenchmarkTimezones(b *testing.B) {
	c := minutes(b)
	local, err := c.TzLocalize("America/New_York", temporal.PolicyNaT, temporal.PolicyNaT)
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Localize", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.TzLocalize("America/New_York", temporal.PolicyNaT, temporal.PolicyNaT); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Convert", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := local.TzConvert("Asia/Tokyo"); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("LocalHour", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := local.Hour(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkInferFormat(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := temporal.InferFormat("2024-01-01T10:00:00.123456"); err != nil {
			b.Fatal(err)
		}
	}
}

func hourlyPlan(df *frame.DataFrame) (*plan.Plan, plan.NodeID) {
	p := plan.New()
	scan := p.Add(&plan.DataFrameScan{Frame: df})
	filtered := p.Add(&plan.Filter{Input: scan, Predicate: func() *frame.ExprNode {
		return frame.Col("ts").DtHour().Ge(frame.Lit(8))
	}})
	return p, p.Add(&plan.HStack{Input: filtered, Columns: []plan.Expr{func() *frame.ExprNode {
		return frame.Col("ts").DtFloor("h").Alias("hour")
	}}})
}

// Lowering and graph construction alone, without running any task
func BenchmarkLowering(b *testing.B) {
	p, root := hourlyPlan(readings(b))
	opts := plan.Options{MaxRowsPerPartition: 1000, FallbackMode: plan.FallbackSilent}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lowered, err := plan.Lower(p, root, opts)
		if err != nil {
			b.Fatal(err)
		}
		if _, _, err := plan.TaskGraph(lowered); err != nil {
			b.Fatal(err)
		}
	}
}

// Same plan on every scheduler; the local cluster pays for encoding every
// partition twice.
func BenchmarkSchedulers(b *testing.B) {
	df := readings(b)
	opts := plan.Options{MaxRowsPerPartition: 10_000}

	pool, err := executor.NewThreadPool(0)
	if err != nil {
		b.Fatal(err)
	}
	defer pool.Close()
	cluster, err := executor.NewLocalCluster(4, 2, serialize.ArrowStreamType)
	if err != nil {
		b.Fatal(err)
	}
	defer cluster.Close()

	for _, s := range []executor.Scheduler{executor.Synchronous{}, pool, cluster} {
		b.Run(s.Name(), func(b *testing.B) {
			ec := executor.NewContext(s, opts)
			p, root := hourlyPlan(df)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ec.Evaluate(context.Background(), p, root); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
