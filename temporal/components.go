package temporal

import (
	"github.com/miretskiy/firn/column"
	"github.com/shopspring/decimal"
)

// ComponentNames lists the keys of Components in display order.
var ComponentNames = []string{"days", "hours", "minutes", "seconds", "milliseconds", "microseconds", "nanoseconds"}

// componentSpans gives, per component after days, the span it is taken
// modulo and the span it counts, in nanoseconds.
var componentSpans = [...][2]int64{
	{86_400_000_000_000, 3_600_000_000_000},
	{3_600_000_000_000, 60_000_000_000},
	{60_000_000_000, 1_000_000_000},
	{1_000_000_000, 1_000_000},
	{1_000_000, 1_000},
	{1_000, 1},
}

// part computes (ticks mod modNs) div divNs with floor semantics, so that
// every component of a negative duration is non-negative except days.
func (c *TimedeltaColumn) part(ticks, modNs, divNs int64) int64 {
	perTick := 1_000_000_000 / c.unit.TicksPerSecond()
	if modNs <= perTick {
		return 0
	}
	rem := column.FloorMod(ticks, modNs/perTick)
	if divNs >= perTick {
		return rem / (divNs / perTick)
	}
	return rem * perTick / divNs
}

func (c *TimedeltaColumn) mapTicks(fn func(int64) int64) *column.Column {
	n := c.Len()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		if c.data.IsValid(i) {
			out[i] = fn(c.data.Int64(i))
		}
	}
	res, _ := column.FromInt64s(column.Int64, out, c.data.Validity())
	return res
}

// Days returns whole days, floored.
func (c *TimedeltaColumn) Days() *column.Column {
	perDay := 86_400 * c.unit.TicksPerSecond()
	return c.mapTicks(func(v int64) int64 { return column.FloorDiv(v, perDay) })
}

// Seconds returns the seconds within the day, 0 through 86399.
func (c *TimedeltaColumn) Seconds() *column.Column {
	return c.mapTicks(func(v int64) int64 { return c.part(v, 86_400_000_000_000, 1_000_000_000) })
}

// Microseconds returns the microseconds within the second.
func (c *TimedeltaColumn) Microseconds() *column.Column {
	return c.mapTicks(func(v int64) int64 { return c.part(v, 1_000_000_000, 1_000) })
}

// Nanoseconds returns the nanoseconds within the microsecond.
func (c *TimedeltaColumn) Nanoseconds() *column.Column {
	return c.mapTicks(func(v int64) int64 { return c.part(v, 1_000, 1) })
}

// Components splits each duration into days through nanoseconds, keyed by
// ComponentNames. Components finer than the unit are zero.
func (c *TimedeltaColumn) Components() map[string]*column.Column {
	out := make(map[string]*column.Column, len(ComponentNames))
	out["days"] = c.Days()
	for i, span := range componentSpans {
		out[ComponentNames[i+1]] = c.mapTicks(func(v int64) int64 { return c.part(v, span[0], span[1]) })
	}
	return out
}

// TotalSeconds returns each duration in seconds as a float64, rounded
// through a decimal so that e.g. 1ms reads exactly 0.001.
func (c *TimedeltaColumn) TotalSeconds() *column.Column {
	digits := int32(0)
	for tps := c.unit.TicksPerSecond(); tps > 1; tps /= 10 {
		digits++
	}
	n := c.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if c.data.IsValid(i) {
			out[i] = decimal.New(c.data.Int64(i), -digits).Round(digits).InexactFloat64()
		}
	}
	res, _ := column.FromFloat64s(out, c.data.Validity())
	return res
}
