package temporal

import (
	"math"

	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/tzdata"
	"github.com/pkg/errors"
)

// Policy selects how TzLocalize treats ambiguous or nonexistent wall times.
type Policy int

const (
	// PolicyNaT makes such rows null. It is the only supported policy.
	PolicyNaT Policy = iota
	PolicyRaise
	PolicyInfer
	PolicyShiftForward
	PolicyShiftBackward
)

var policyNames = map[string]Policy{
	"NaT":            PolicyNaT,
	"raise":          PolicyRaise,
	"infer":          PolicyInfer,
	"shift_forward":  PolicyShiftForward,
	"shift_backward": PolicyShiftBackward,
}

// ParsePolicy maps a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	if p, ok := policyNames[s]; ok {
		return p, nil
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown ambiguity policy %q", s)
}

func checkPolicies(ambiguous, nonexistent Policy) error {
	if ambiguous != PolicyNaT || nonexistent != PolicyNaT {
		return errors.Wrap(ErrNotImplemented, "only the NaT policy is supported for ambiguous and nonexistent times")
	}
	return nil
}

func loadZone(tz string) (*tzdata.Table, error) {
	tab, err := tzdata.Load(tz)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return tab, nil
}

// zoneColumns scales a transition table to ticks at u: the UTC instants at
// which each regime starts, the same instants in the regime's wall-clock
// time, and the offsets as durations. Row 0 opens at math.MinInt64 in both
// clocks so that every representable instant falls in some regime.
func zoneColumns(tab *tzdata.Table, u Unit) (trans, localTrans, offsets *column.Column, err error) {
	tps := u.TicksPerSecond()
	t := make([]int64, tab.Len())
	l := make([]int64, tab.Len())
	o := make([]int64, tab.Len())
	for i := range t {
		o[i] = tab.Offsets[i] * tps
		if i == 0 {
			t[i], l[i] = math.MinInt64, math.MinInt64
			continue
		}
		t[i] = tab.Transitions[i] * tps
		l[i] = t[i] + o[i]
	}
	if trans, err = column.FromInt64s(DatetimeType(u), t, nil); err != nil {
		return nil, nil, nil, err
	}
	if localTrans, err = column.FromInt64s(DatetimeType(u), l, nil); err != nil {
		return nil, nil, nil, err
	}
	if offsets, err = column.FromInt64s(DurationType(u), o, nil); err != nil {
		return nil, nil, nil, err
	}
	return trans, localTrans, offsets, nil
}

// offsetsFor looks up, for every row of ticks, the offset of the regime
// whose start in edges is the last one not after the row.
func offsetsFor(ticks, edges, offsets *column.Column) (*column.Column, error) {
	pos, err := column.SearchSorted(edges, ticks, column.SideRight)
	if err != nil {
		return nil, err
	}
	idx, err := column.Binary(pos, column.IntScalar(column.Int64, 1), column.OpSub, column.Int64)
	if err != nil {
		return nil, err
	}
	return column.Take(offsets, idx, true)
}

// localTicks returns the wall-clock ticks of the column: the raw ticks for
// naive columns, shifted by the zone offset in effect for aware ones.
func (c *DatetimeColumn) localTicks() (*column.Column, error) {
	if c.tz == "" {
		return c.data, nil
	}
	tab, err := loadZone(c.tz)
	if err != nil {
		return nil, err
	}
	trans, _, offsets, err := zoneColumns(tab, c.unit)
	if err != nil {
		return nil, err
	}
	off, err := offsetsFor(c.data, trans, offsets)
	if err != nil {
		return nil, err
	}
	return column.Binary(c.data, off, column.OpAdd, c.data.DataType())
}

// LocalTime returns the wall-clock time of an aware column as a naive column.
// Naive columns are returned unchanged.
func (c *DatetimeColumn) LocalTime() (*DatetimeColumn, error) {
	local, err := c.localTicks()
	if err != nil {
		return nil, err
	}
	return mustDatetime(local, ""), nil
}

// FindAmbiguousAndNonexistent flags the rows of a naive column whose wall
// time occurs twice (ambiguous) or never (nonexistent) in zone. ok is false
// when the zone never changes offset, in which case no row is flagged.
func (c *DatetimeColumn) FindAmbiguousAndNonexistent(zone string) (ambiguous, nonexistent *column.Column, ok bool, err error) {
	tab, err := loadZone(zone)
	if err != nil {
		return nil, nil, false, err
	}
	if !tab.HasTransitions() {
		return nil, nil, false, nil
	}
	trans, _, offsets, err := zoneColumns(tab, c.unit)
	if err != nil {
		return nil, nil, false, err
	}
	n := tab.Len()
	trans, _ = trans.Slice(1, n-1)
	newOff, _ := offsets.Slice(1, n-1)
	oldOff, _ := offsets.Slice(0, n-1)

	// clock1 is turned to the new offset at the transition, clock2 keeps
	// the old one.
	dtype := DatetimeType(c.unit)
	clock1, err := column.Binary(trans, newOff, column.OpAdd, dtype)
	if err != nil {
		return nil, nil, false, kernelErr(err)
	}
	clock2, err := column.Binary(trans, oldOff, column.OpAdd, dtype)
	if err != nil {
		return nil, nil, false, kernelErr(err)
	}

	// Clocks turned back repeat [clock1, clock2); clocks turned forward
	// skip [clock2, clock1).
	if ambiguous, err = c.inIntervals(clock1, clock2, column.OpLt); err != nil {
		return nil, nil, false, err
	}
	if nonexistent, err = c.inIntervals(clock2, clock1, column.OpGt); err != nil {
		return nil, nil, false, err
	}
	return ambiguous, nonexistent, true, nil
}

// inIntervals marks rows inside [begin[k], end[k]) for every transition k
// where clock1 cmp clock2 holds; begin and end are picked by the caller.
func (c *DatetimeColumn) inIntervals(begin, end *column.Column, cmp column.BinaryOp) (*column.Column, error) {
	clock1, clock2 := begin, end
	if cmp == column.OpGt {
		clock1, clock2 = end, begin
	}
	cond, err := column.Binary(clock1, clock2, cmp, column.Boolean)
	if err != nil {
		return nil, err
	}
	lefts, err := column.ApplyBooleanMask(begin, cond)
	if err != nil {
		return nil, err
	}
	rights, err := column.ApplyBooleanMask(end, cond)
	if err != nil {
		return nil, err
	}
	bins, err := column.LabelBins(c.data, lefts, true, rights, false)
	if err != nil {
		return nil, err
	}
	return bins.NotNull(), nil
}

// TzLocalize interprets naive wall-clock ticks as local time in zone and
// returns an aware column holding UTC ticks. Ambiguous and nonexistent
// wall times become null. An empty zone on a naive column returns a copy;
// on an aware column it returns the naive local time.
func (c *DatetimeColumn) TzLocalize(zone string, ambiguous, nonexistent Policy) (*DatetimeColumn, error) {
	if err := checkPolicies(ambiguous, nonexistent); err != nil {
		return nil, err
	}
	if zone == "" {
		if c.IsAware() {
			return c.LocalTime()
		}
		return c.Copy(), nil
	}
	if c.IsAware() {
		return nil, errors.Wrapf(ErrTypeIncompatible, "already localized to %s; use TzConvert", c.tz)
	}
	tab, err := loadZone(zone)
	if err != nil {
		return nil, err
	}

	mask := c.data.IsNull()
	amb, non, ok, err := c.FindAmbiguousAndNonexistent(zone)
	if err != nil {
		return nil, err
	}
	if ok {
		for _, m := range []*column.Column{amb, non} {
			if mask, err = column.Binary(mask, m, column.OpOr, column.Boolean); err != nil {
				return nil, err
			}
		}
	}
	localized, err := column.ScatterByMask(c.data, mask, column.NullScalar(c.data.DataType()))
	if err != nil {
		return nil, err
	}

	_, localTrans, offsets, err := zoneColumns(tab, c.unit)
	if err != nil {
		return nil, err
	}
	toUTC, err := offsetsFor(localized, localTrans, offsets)
	if err != nil {
		return nil, err
	}
	utc, err := column.Binary(localized, toUTC, column.OpSub, c.data.DataType())
	if err != nil {
		return nil, kernelErr(err)
	}
	return &DatetimeColumn{data: utc, unit: c.unit, tz: zone}, nil
}

// TzConvert changes the zone of an aware column. The stored UTC ticks never
// change: an empty zone yields the naive UTC view sharing c's buffer, the
// same zone yields a copy and another zone re-tags the shared buffer.
func (c *DatetimeColumn) TzConvert(zone string) (*DatetimeColumn, error) {
	switch {
	case !c.IsAware():
		return nil, errors.Wrap(ErrTypeIncompatible, "cannot convert tz-naive timestamps; use TzLocalize")
	case zone == "":
		return &DatetimeColumn{data: c.data, unit: c.unit}, nil
	case zone == c.tz:
		return c.Copy(), nil
	}
	return NewDatetimeColumn(c.data, zone)
}
