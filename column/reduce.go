package column

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

// Interpolation selects how Quantile resolves a rank between two elements.
type Interpolation int

const (
	Linear Interpolation = iota
	Lower
	Higher
	Midpoint
	Nearest
)

// ParseInterpolation maps the conventional interpolation names to values.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "linear", "":
		return Linear, nil
	case "lower":
		return Lower, nil
	case "higher":
		return Higher, nil
	case "midpoint":
		return Midpoint, nil
	case "nearest":
		return Nearest, nil
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown interpolation %q", s)
}

func (i Interpolation) String() string {
	return [...]string{"linear", "lower", "higher", "midpoint", "nearest"}[i]
}

// Min returns the smallest valid element, or a null scalar when there is none.
func Min(c *Column) Scalar { return extreme(c, -1) }

// Max returns the largest valid element, or a null scalar when there is none.
func Max(c *Column) Scalar { return extreme(c, 1) }

func extreme(c *Column, sign int) Scalar {
	best := NullScalar(c.dtype)
	for i := 0; i < c.length; i++ {
		if !c.IsValid(i) {
			continue
		}
		s := c.Scalar(i)
		if s.Type.storage() == storageFloat && math.IsNaN(s.Float) {
			continue
		}
		if !best.Valid || compareScalars(s, best)*sign > 0 {
			best = s
		}
	}
	return best
}

func compareScalars(a, b Scalar) int {
	switch a.Type.storage() {
	case storageFloat:
		return cmpOrdered(a.Float, b.Float)
	case storageString:
		return cmpOrdered(a.Str, b.Str)
	case storageBool:
		return cmpOrdered(asInt(a), asInt(b))
	}
	return cmpOrdered(a.Int, b.Int)
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Any reports whether any valid element of a Boolean column is true.
func Any(c *Column) (bool, error) {
	if !c.dtype.IsBoolean() {
		return false, errors.Wrapf(ErrTypeMismatch, "any requires a boolean column, got %s", c.dtype)
	}
	for i := 0; i < c.length; i++ {
		if c.IsValid(i) && c.Bool(i) {
			return true, nil
		}
	}
	return false, nil
}

// All reports whether every valid element of a Boolean column is true.
func All(c *Column) (bool, error) {
	if !c.dtype.IsBoolean() {
		return false, errors.Wrapf(ErrTypeMismatch, "all requires a boolean column, got %s", c.dtype)
	}
	for i := 0; i < c.length; i++ {
		if c.IsValid(i) && !c.Bool(i) {
			return false, nil
		}
	}
	return true, nil
}

// Sum adds the valid elements. Integer-backed sums keep c's type and are
// overflow-checked; an all-null column sums to zero.
func Sum(c *Column) (Scalar, error) {
	switch c.dtype.storage() {
	case storageFloat:
		var s float64
		for i := 0; i < c.length; i++ {
			if c.IsValid(i) {
				s += c.floats[i]
			}
		}
		return FloatScalar(s), nil
	case storageInt:
		var s int64
		for i := 0; i < c.length; i++ {
			if !c.IsValid(i) {
				continue
			}
			var ok bool
			if s, ok = AddChecked(s, c.ints[i]); !ok {
				return Scalar{}, errors.Wrap(ErrOverflow, "sum")
			}
		}
		return IntScalar(c.dtype, s), nil
	}
	return Scalar{}, errors.Wrapf(ErrTypeMismatch, "sum of %s", c.dtype)
}

// validFloats returns the valid elements of a numeric or temporal column as
// float64 values.
func validFloats(c *Column) ([]float64, error) {
	out := make([]float64, 0, c.length-c.NullCount())
	switch c.dtype.storage() {
	case storageFloat:
		for i := 0; i < c.length; i++ {
			if c.IsValid(i) {
				out = append(out, c.floats[i])
			}
		}
	case storageInt:
		for i := 0; i < c.length; i++ {
			if c.IsValid(i) {
				out = append(out, float64(c.ints[i]))
			}
		}
	default:
		return nil, errors.Wrapf(ErrTypeMismatch, "numeric reduction of %s", c.dtype)
	}
	return out, nil
}

// Mean returns the average of the valid elements; ok is false when there are none.
func Mean(c *Column) (mean float64, ok bool, err error) {
	vals, err := validFloats(c)
	if err != nil || len(vals) == 0 {
		return 0, false, err
	}
	// Integer-backed columns are averaged relative to the first element so
	// that large tick counts keep their precision.
	if c.dtype.storage() == storageInt {
		var base int64
		for i := 0; i < c.length; i++ {
			if c.IsValid(i) {
				base = c.ints[i]
				break
			}
		}
		var acc float64
		for i := 0; i < c.length; i++ {
			if c.IsValid(i) {
				acc += float64(c.ints[i] - base)
			}
		}
		return float64(base) + acc/float64(len(vals)), true, nil
	}
	var acc float64
	for _, v := range vals {
		acc += v
	}
	return acc / float64(len(vals)), true, nil
}

// Var returns the variance with the given delta degrees of freedom; ok is
// false when fewer than ddof+1 elements are valid.
func Var(c *Column, ddof int) (float64, bool, error) {
	vals, err := validFloats(c)
	if err != nil {
		return 0, false, err
	}
	n := len(vals)
	if n-ddof <= 0 {
		return 0, false, nil
	}
	var mean, m2 float64
	for i, v := range vals {
		d := v - mean
		mean += d / float64(i+1)
		m2 += d * (v - mean)
	}
	return m2 / float64(n-ddof), true, nil
}

// Std returns the standard deviation with the given delta degrees of freedom.
func Std(c *Column, ddof int) (float64, bool, error) {
	v, ok, err := Var(c, ddof)
	return math.Sqrt(v), ok, err
}

// Cov returns the sample covariance over rows where both columns are valid.
func Cov(a, b *Column, ddof int) (float64, bool, error) {
	xs, ys, err := pairwise(a, b)
	if err != nil {
		return 0, false, err
	}
	n := len(xs)
	if n-ddof <= 0 {
		return 0, false, nil
	}
	mx, my := meanOf(xs), meanOf(ys)
	var acc float64
	for i := range xs {
		acc += (xs[i] - mx) * (ys[i] - my)
	}
	return acc / float64(n-ddof), true, nil
}

// Corr returns the Pearson correlation over rows where both columns are valid.
func Corr(a, b *Column) (float64, bool, error) {
	xs, ys, err := pairwise(a, b)
	if err != nil || len(xs) < 2 {
		return 0, false, err
	}
	mx, my := meanOf(xs), meanOf(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN(), true, nil
	}
	return sxy / math.Sqrt(sxx*syy), true, nil
}

func pairwise(a, b *Column) ([]float64, []float64, error) {
	if a.length != b.length {
		return nil, nil, errors.Wrapf(ErrLengthMismatch, "%d vs %d rows", a.length, b.length)
	}
	var xs, ys []float64
	for i := 0; i < a.length; i++ {
		if !a.IsValid(i) || !b.IsValid(i) {
			continue
		}
		x, y := a.Scalar(i), b.Scalar(i)
		if x.Type.storage() == storageString || y.Type.storage() == storageString {
			return nil, nil, errors.Wrapf(ErrTypeMismatch, "covariance of %s and %s", a.dtype, b.dtype)
		}
		xs = append(xs, asFloat(x))
		ys = append(ys, asFloat(y))
	}
	return xs, ys, nil
}

func meanOf(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// Quantile returns the q-th quantile of the valid elements. Numeric columns
// produce a Float64 scalar; datetime and duration columns produce a scalar of
// their own type, truncated toward zero ticks.
func Quantile(c *Column, q float64, interp Interpolation) (Scalar, error) {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return Scalar{}, errors.Wrapf(ErrInvalidInput, "quantile %g outside [0, 1]", q)
	}
	outType := Float64
	if c.dtype.IsTemporal() {
		outType = c.dtype
	}
	switch c.dtype.storage() {
	case storageInt:
		vals := make([]int64, 0, c.length)
		for i := 0; i < c.length; i++ {
			if c.IsValid(i) {
				vals = append(vals, c.ints[i])
			}
		}
		if len(vals) == 0 {
			return NullScalar(outType), nil
		}
		slices.Sort(vals)
		lo, hi, frac := rank(len(vals), q)
		a, b := vals[lo], vals[hi]
		if outType == Float64 {
			return FloatScalar(interpolate(float64(a), float64(b), frac, interp)), nil
		}
		return IntScalar(outType, a+int64(interpolate(0, float64(b-a), frac, interp))), nil
	case storageFloat:
		vals, _ := validFloats(c)
		if len(vals) == 0 {
			return NullScalar(outType), nil
		}
		slices.Sort(vals)
		lo, hi, frac := rank(len(vals), q)
		return FloatScalar(interpolate(vals[lo], vals[hi], frac, interp)), nil
	}
	return Scalar{}, errors.Wrapf(ErrTypeMismatch, "quantile of %s", c.dtype)
}

// Median is the linear 0.5 quantile.
func Median(c *Column) (Scalar, error) { return Quantile(c, 0.5, Linear) }

func rank(n int, q float64) (lo, hi int, frac float64) {
	pos := q * float64(n-1)
	lo = int(math.Floor(pos))
	hi = int(math.Ceil(pos))
	return lo, hi, pos - float64(lo)
}

func interpolate(a, b, frac float64, interp Interpolation) float64 {
	switch interp {
	case Lower:
		return a
	case Higher:
		if frac == 0 {
			return a
		}
		return b
	case Midpoint:
		if frac == 0 {
			return a
		}
		return a + (b-a)/2
	case Nearest:
		// ties resolve to the lower element
		if frac > 0.5 {
			return b
		}
		return a
	}
	return a + (b-a)*frac
}
