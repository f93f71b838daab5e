// Package tzdata exposes IANA time zone transition tables in the columnar
// shape the temporal package consumes: one row per offset regime, ordered by
// the UTC instant at which the regime starts.
package tzdata

import (
	"sort"
	"sync"
	"time"
	_ "time/tzdata" // embedded zoneinfo so lookups do not depend on the host

	"github.com/pkg/errors"
)

const (
	// FirstTransition stands in for "the beginning of time" in row 0. It is
	// kept two days inside the nanosecond range so that adding any real UTC
	// offset and scaling to nanoseconds cannot overflow.
	FirstTransition int64 = -9_223_199_236

	// LastYear bounds the generated table for zones with recurring rules.
	LastYear = 2200
)

// ErrUnknownZone is returned for names the zone database does not know.
var ErrUnknownZone = errors.New("tzdata: unknown time zone")

// Table is the transition table for one zone. Transitions holds UTC seconds
// and Offsets the matching UTC offsets in seconds; both have the same length.
// Row 0 is the initial regime and its transition is FirstTransition.
type Table struct {
	Name        string
	Transitions []int64
	Offsets     []int64
}

var (
	mu    sync.Mutex
	cache = map[string]*Table{}
)

// Load returns the transition table for name, building it on first use.
// The returned table is shared and must not be modified.
func Load(name string) (*Table, error) {
	if name == "" || name == "Local" {
		return nil, errors.Wrapf(ErrUnknownZone, "%q", name)
	}
	mu.Lock()
	defer mu.Unlock()
	if t, ok := cache[name]; ok {
		return t, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownZone, "%q: %v", name, err)
	}
	t := build(name, loc)
	cache[name] = t
	return t, nil
}

// build walks the zone's regimes with Time.ZoneBounds, merging consecutive
// regimes that share an offset.
func build(name string, loc *time.Location) *Table {
	t := &Table{Name: name}
	at := time.Unix(FirstTransition, 0).In(loc)
	start := FirstTransition
	for {
		_, offset := at.Zone()
		if n := len(t.Offsets); n == 0 || t.Offsets[n-1] != int64(offset) {
			t.Transitions = append(t.Transitions, start)
			t.Offsets = append(t.Offsets, int64(offset))
		}
		_, end := at.ZoneBounds()
		if end.IsZero() || end.Year() > LastYear || !end.After(at) {
			break
		}
		start = end.Unix()
		at = end
	}
	return t
}

// Len returns the number of regimes.
func (t *Table) Len() int { return len(t.Offsets) }

// HasTransitions reports whether the zone ever changed its offset.
func (t *Table) HasTransitions() bool { return len(t.Offsets) > 1 }

// LocalTransitions returns every transition expressed in the wall-clock
// time of the regime it starts.
func (t *Table) LocalTransitions() []int64 {
	out := make([]int64, len(t.Transitions))
	for i := range t.Transitions {
		out[i] = t.Transitions[i] + t.Offsets[i]
	}
	return out
}

// OffsetAt returns the UTC offset in effect at the UTC instant utc (seconds).
func (t *Table) OffsetAt(utc int64) int64 {
	i := sort.Search(len(t.Transitions), func(j int) bool { return t.Transitions[j] > utc }) - 1
	if i < 0 {
		i = 0
	}
	return t.Offsets[i]
}
