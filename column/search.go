package column

import (
	"cmp"
	"sort"

	"github.com/pkg/errors"
)

// Side selects the insertion point among equal elements.
type Side int

const (
	// SideLeft returns the first position where the needle could be inserted.
	SideLeft Side = iota
	// SideRight returns the last such position.
	SideRight
)

// SearchSorted returns, for every needle, the insertion index into the sorted
// haystack as an Int64 column. Null needles yield null. The haystack must be
// free of nulls.
func SearchSorted(haystack, needles *Column, side Side) (*Column, error) {
	if haystack.HasNulls() {
		return nil, errors.Wrap(ErrInvalidInput, "searchsorted haystack contains nulls")
	}
	if haystack.dtype.storage() != needles.dtype.storage() {
		return nil, errors.Wrapf(ErrTypeMismatch, "search %s in %s", needles.dtype, haystack.dtype)
	}
	out := alloc(Int64, needles.length)
	for i := 0; i < needles.length; i++ {
		if !needles.IsValid(i) {
			out.setNull(i)
			continue
		}
		var pos int
		switch haystack.dtype.storage() {
		case storageInt:
			pos = searchOrdered(haystack.ints, needles.ints[i], side)
		case storageFloat:
			pos = searchOrdered(haystack.floats, needles.floats[i], side)
		case storageString:
			pos = searchOrdered(haystack.strs, needles.strs[i], side)
		default:
			return nil, errors.Wrapf(ErrTypeMismatch, "search is not supported for %s", haystack.dtype)
		}
		out.ints[i] = int64(pos)
	}
	return out, nil
}

func searchOrdered[T cmp.Ordered](hay []T, v T, side Side) int {
	if side == SideLeft {
		return sort.Search(len(hay), func(j int) bool { return hay[j] >= v })
	}
	return sort.Search(len(hay), func(j int) bool { return hay[j] > v })
}

// LabelBins assigns each element of values the index of the bin that contains
// it, or null when no bin does. Bin k spans leftEdges[k] to rightEdges[k];
// the inclusive flags choose whether each boundary belongs to the bin. Bins
// must be sorted and non-overlapping.
func LabelBins(values, leftEdges *Column, leftInclusive bool, rightEdges *Column, rightInclusive bool) (*Column, error) {
	if leftEdges.length != rightEdges.length {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d left edges, %d right edges", leftEdges.length, rightEdges.length)
	}
	for _, e := range []*Column{leftEdges, rightEdges} {
		if e.dtype.storage() != storageInt || values.dtype.storage() != storageInt {
			return nil, errors.Wrapf(ErrTypeMismatch, "label_bins requires integer-backed columns, got %s and %s", values.dtype, e.dtype)
		}
		if e.HasNulls() {
			return nil, errors.Wrap(ErrInvalidInput, "bin edges contain nulls")
		}
	}
	out := alloc(Int64, values.length)
	for i := 0; i < values.length; i++ {
		if !values.IsValid(i) {
			out.setNull(i)
			continue
		}
		v := values.ints[i]
		// last bin whose left edge admits v
		k := sort.Search(leftEdges.length, func(j int) bool {
			if leftInclusive {
				return leftEdges.ints[j] > v
			}
			return leftEdges.ints[j] >= v
		}) - 1
		if k < 0 {
			out.setNull(i)
			continue
		}
		r := rightEdges.ints[k]
		if (rightInclusive && v <= r) || (!rightInclusive && v < r) {
			out.ints[i] = int64(k)
			continue
		}
		out.setNull(i)
	}
	return out, nil
}
