package plan

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/logger"
	"github.com/miretskiy/firn/temporal"
	"github.com/stretchr/testify/require"
)

// readings is a 10 row frame: id 1..10 and one reading per hour from
// 2024-03-10 00:00:00.
func readings(t *testing.T) *frame.DataFrame {
	t.Helper()
	ids := make([]int64, 10)
	hours := make([]int64, 10)
	for i := range ids {
		ids[i] = int64(i + 1)
		hours[i] = 1710028800 + int64(i)*3600
	}
	id, err := column.FromInt64s(column.Int64, ids, nil)
	require.NoError(t, err)
	ts, err := temporal.Datetimes(temporal.Second, hours, nil)
	require.NoError(t, err)
	df, err := frame.New(&frame.Series{Name: "id", Data: id}, frame.FromTemporal("ts", ts))
	require.NoError(t, err)
	return df
}

// run executes g sequentially.
func run(t *testing.T, g Graph, target Key) *frame.DataFrame {
	t.Helper()
	order, err := g.Order(target)
	require.NoError(t, err)
	results := make(map[Key]*frame.DataFrame, len(order))
	for _, k := range order {
		task := g[k]
		inputs := make([]*frame.DataFrame, len(task.Deps))
		for i, d := range task.Deps {
			inputs[i] = results[d]
		}
		if task.Alias() {
			results[k] = inputs[0]
			continue
		}
		out, err := task.Run(inputs)
		require.NoError(t, err)
		results[k] = out
	}
	return results[target]
}

func ids(t *testing.T, df *frame.DataFrame) string {
	t.Helper()
	s, err := df.Column("id")
	require.NoError(t, err)
	return s.Data.GoString()
}

func quiet() *bytes.Buffer { return &bytes.Buffer{} }

func TestLowerSharedSubtree(t *testing.T) {
	p := New()
	scan := p.Add(&DataFrameScan{Frame: readings(t)})
	shared := p.Add(&Filter{Input: scan, Predicate: func() *frame.ExprNode {
		return frame.Col("id").Gt(frame.Lit(3))
	}})
	left := p.Add(&Projection{Input: shared, Columns: []string{"id"}})
	right := p.Add(&Select{Input: shared, Exprs: []Expr{func() *frame.ExprNode {
		return frame.Col("id").Mul(frame.Lit(100)).Alias("id")
	}}})
	root := p.Add(&Union{Inputs: []NodeID{left, right}})

	lowered, err := Lower(p, root, Options{MaxRowsPerPartition: 4})
	require.NoError(t, err)

	for id := NodeID(0); int(id) < p.Len(); id++ {
		require.Equal(t, 1, lowered.RuleCalls[id], "node %d", id)
	}
	require.Equal(t, 5, lowered.Plan.Len())
	require.Equal(t, 6, lowered.Count())
	require.Empty(t, lowered.Diagnostics)
	for id, info := range lowered.Partitions {
		if id != lowered.Root {
			require.Equal(t, 3, info.Count, KeyName(lowered.Plan.Node(id), id))
		}
	}

	g, key, err := TaskGraph(lowered)
	require.NoError(t, err)
	require.Equal(t, Key{Name: "union-4", Index: Whole}, key)
	// 3 scan, 3 filter, 3 projection, 3 select, 6 union aliases, 1 terminal
	require.Len(t, g, 19)

	result := run(t, g, key)
	require.Equal(t, "Column<int64>[4, 5, 6, 7, 8, 9, 10, 400, 500, 600, 700, 800, 900, 1000]", ids(t, result))
}

func TestLowerUnionOfLeaves(t *testing.T) {
	p := New()
	df := readings(t)
	var leaves []NodeID
	for range 3 {
		leaves = append(leaves, p.Add(&DataFrameScan{Frame: df, Columns: []string{"id"}}))
	}
	root := p.Add(&Union{Inputs: leaves})

	lowered, err := Lower(p, root, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, lowered.Count())

	g, key, err := TaskGraph(lowered)
	require.NoError(t, err)

	var scans int
	for k := range g {
		if strings.HasPrefix(k.Name, "dataframescan") {
			scans++
		}
	}
	require.Equal(t, 3, scans)

	expected := `(dataframescan-0, 0) <- []
(dataframescan-1, 0) <- []
(dataframescan-2, 0) <- []
union-3 <- [(union-3, 0), (union-3, 1), (union-3, 2)]
(union-3, 0) = [(dataframescan-0, 0)]
(union-3, 1) = [(dataframescan-1, 0)]
(union-3, 2) = [(dataframescan-2, 0)]
`
	require.Equal(t, expected, g.String())
	require.Equal(t, 30, run(t, g, key).Height())
}

func TestLowerSinglePartition(t *testing.T) {
	p := New()
	scan := p.Add(&DataFrameScan{Frame: readings(t)})
	root := p.Add(&HStack{Input: scan, Columns: []Expr{func() *frame.ExprNode {
		return frame.Col("ts").DtHour().Alias("hour")
	}}})

	lowered, err := Lower(p, root, Options{MaxRowsPerPartition: 100})
	require.NoError(t, err)
	require.Equal(t, 1, lowered.Count())

	g, key, err := TaskGraph(lowered)
	require.NoError(t, err)
	require.Equal(t, Key{Name: "hstack-1"}, key)
	require.Equal(t, "(hstack-1, 0)", key.String())

	result := run(t, g, key)
	hour, err := result.Column("hour")
	require.NoError(t, err)
	require.Equal(t, "Column<int16>[0, 1, 2, 3, 4, 5, 6, 7, 8, 9]", hour.Data.GoString())
}

func sortedPlan(t *testing.T) (*Plan, NodeID) {
	p := New()
	scan := p.Add(&DataFrameScan{Frame: readings(t)})
	filtered := p.Add(&Filter{Input: scan, Predicate: func() *frame.ExprNode {
		return frame.Col("id").Mod(frame.Lit(2)).Eq(frame.Lit(0))
	}})
	return p, p.Add(&Sort{Input: filtered, By: []frame.SortField{frame.Desc("id")}})
}

func TestLowerFallback(t *testing.T) {
	t.Run("warn", func(t *testing.T) {
		var buf bytes.Buffer
		p, root := sortedPlan(t)
		lowered, err := Lower(p, root, Options{
			MaxRowsPerPartition: 3,
			Logger:              logger.New(logger.Config{Level: "WARN", Output: &buf}),
		})
		require.NoError(t, err)
		require.Equal(t, 1, lowered.Count())
		require.Len(t, lowered.Diagnostics, 1)
		require.Equal(t,
			"sort 2: sort does not support multiple partitions (filter-1 has 4 partitions)",
			lowered.Diagnostics[0].String())
		require.Contains(t, buf.String(), "falling back to a single partition")

		require.Equal(t, 4, lowered.Plan.Len())
		require.Equal(t, "repartition", lowered.Plan.Node(2).Kind())
		require.Equal(t, []NodeID{2}, lowered.Plan.Node(lowered.Root).Children())

		g, key, err := TaskGraph(lowered)
		require.NoError(t, err)
		require.Equal(t, Key{Name: "sort-3"}, key)
		require.Len(t, g[Key{Name: "repartition-2"}].Deps, 4)
		require.Equal(t, "Column<int64>[10, 8, 6, 4, 2]", ids(t, run(t, g, key)))
	})

	t.Run("silent", func(t *testing.T) {
		var buf bytes.Buffer
		p, root := sortedPlan(t)
		lowered, err := Lower(p, root, Options{
			FallbackMode:        FallbackSilent,
			MaxRowsPerPartition: 3,
			Logger:              logger.New(logger.Config{Level: "DEBUG", Output: &buf}),
		})
		require.NoError(t, err)
		require.Len(t, lowered.Diagnostics, 1)
		require.Empty(t, buf.String())
	})

	t.Run("raise", func(t *testing.T) {
		p, root := sortedPlan(t)
		_, err := Lower(p, root, Options{FallbackMode: FallbackRaise, MaxRowsPerPartition: 3})
		require.ErrorIs(t, err, ErrNotImplemented)
		require.ErrorContains(t, err, "filter-1 has 4 partitions")
	})

	t.Run("single partition input needs no fallback", func(t *testing.T) {
		p, root := sortedPlan(t)
		lowered, err := Lower(p, root, Options{FallbackMode: FallbackRaise})
		require.NoError(t, err)
		require.Empty(t, lowered.Diagnostics)
		require.Equal(t, 3, lowered.Plan.Len())
	})

	t.Run("union slice", func(t *testing.T) {
		p := New()
		a := p.Add(&DataFrameScan{Frame: readings(t)})
		b := p.Add(&DataFrameScan{Frame: readings(t)})
		root := p.Add(&Union{Inputs: []NodeID{a, b}, Slice: &SliceRange{Offset: 8, Length: 4}})

		lowered, err := Lower(p, root, Options{MaxRowsPerPartition: 5, Logger: logger.New(logger.Config{Output: quiet()})})
		require.NoError(t, err)
		require.Equal(t, 1, lowered.Count())
		require.Len(t, lowered.Diagnostics, 1)
		require.Contains(t, lowered.Diagnostics[0].Message, "slice is not supported")

		g, key, err := TaskGraph(lowered)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[9, 10, 1, 2]", ids(t, run(t, g, key)))
	})

	t.Run("join", func(t *testing.T) {
		p := New()
		a := p.Add(&DataFrameScan{Frame: readings(t)})
		b := p.Add(&DataFrameScan{Frame: readings(t), Columns: []string{"id"}})
		root := p.Add(&Join{Left: a, Right: b, Spec: frame.On("id")})

		lowered, err := Lower(p, root, Options{MaxRowsPerPartition: 4, Logger: logger.New(logger.Config{Output: quiet()})})
		require.NoError(t, err)
		require.Len(t, lowered.Diagnostics, 1)
		// Both inputs are split and each gets its own repartition.
		kinds := make([]string, lowered.Plan.Len())
		for id := range kinds {
			kinds[id] = lowered.Plan.Node(NodeID(id)).Kind()
		}
		require.Equal(t, []string{"dataframescan", "dataframescan", "repartition", "repartition", "join"}, kinds)

		g, key, err := TaskGraph(lowered)
		require.NoError(t, err)
		require.Equal(t, 10, run(t, g, key).Height())
	})
}

func TestLowerDeterministic(t *testing.T) {
	p, root := sortedPlan(t)
	opts := Options{MaxRowsPerPartition: 2, FallbackMode: FallbackSilent}
	first, err := Lower(p, root, opts)
	require.NoError(t, err)
	second, err := Lower(p, root, opts)
	require.NoError(t, err)

	g1, k1, err := TaskGraph(first)
	require.NoError(t, err)
	g2, k2, err := TaskGraph(second)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.Equal(t, g1.String(), g2.String())
	require.Equal(t, first.Partitions, second.Partitions)
}

func TestValidate(t *testing.T) {
	p := New()
	_, err := Lower(p, 0, Options{})
	require.ErrorIs(t, err, ErrInvalidPlan)

	p.Add(&Projection{Input: 3})
	_, err = Lower(p, 0, Options{})
	require.ErrorIs(t, err, ErrInvalidPlan)
	require.ErrorContains(t, err, "projection 0 references node 3")

	pending := readings(t).Select("id")
	p = New()
	root := p.Add(&DataFrameScan{Frame: pending})
	_, err = Lower(p, root, Options{})
	require.ErrorIs(t, err, ErrInvalidPlan)

	p = New()
	root = p.Add(&Union{})
	_, err = Lower(p, root, Options{})
	require.ErrorIs(t, err, ErrInvalidPlan)
	require.ErrorContains(t, err, "union 0 has no inputs")
}

func TestParseFallbackMode(t *testing.T) {
	for in, want := range map[string]FallbackMode{"": FallbackWarn, "WARN": FallbackWarn, "raise": FallbackRaise, "silent": FallbackSilent} {
		got, err := ParseFallbackMode(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFallbackMode("ignore")
	require.Error(t, err)
}

func TestGraphOrder(t *testing.T) {
	require.Equal(t,
		[]Key{{"a", 0}, {"a", 1}},
		slices.Collect(PartitionInfo{Count: 2}.Keys("a")))

	g := Graph{
		{"a", 0}: {Deps: []Key{{"b", 0}}},
		{"b", 0}: {Deps: []Key{{"a", 0}}},
	}
	_, err := g.Order(Key{"a", 0})
	require.ErrorContains(t, err, "cycle")

	_, err = Graph{{"a", 0}: {Deps: []Key{{"missing", 0}}}}.Order(Key{"a", 0})
	require.ErrorContains(t, err, "no key (missing, 0)")

	_, err = Graph{{"a", 0}: {}}.Order(Key{"a", 0})
	require.ErrorContains(t, err, "exactly one dependency")
}
