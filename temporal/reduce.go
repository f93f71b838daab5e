package temporal

import (
	"math"

	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// Reductions run on the int64 reinterpretation of the ticks and re-wrap the
// result at the column's unit. An empty or all-null column reduces to a null
// scalar.

func ticksScalar(dtype column.DataType, v float64, ok bool) (column.Scalar, error) {
	if !ok || math.IsNaN(v) {
		return column.NullScalar(dtype), nil
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return column.Scalar{}, errors.Wrapf(ErrOverflow, "%g ticks", v)
	}
	return column.IntScalar(dtype, int64(v)), nil
}

func mean(c *column.Column) (column.Scalar, error) {
	m, ok, err := column.Mean(c)
	if err != nil {
		return column.Scalar{}, kernelErr(err)
	}
	return ticksScalar(c.DataType(), m, ok)
}

func std(c *column.Column, out column.DataType, ddof int) (column.Scalar, error) {
	s, ok, err := column.Std(c, ddof)
	if err != nil {
		return column.Scalar{}, kernelErr(err)
	}
	return ticksScalar(out, s, ok)
}

func quantiles(c *column.Column, qs []float64, interp column.Interpolation) (*column.Column, error) {
	ticks := make([]int64, len(qs))
	valid := make([]bool, len(qs))
	for i, q := range qs {
		s, err := column.Quantile(c, q, interp)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
		}
		ticks[i], valid[i] = s.Int, s.Valid
	}
	return column.FromInt64s(c.DataType(), ticks, valid)
}

func pairwise(a *column.Column, b Temporal, fn func(x, y *column.Column) (float64, bool, error)) (float64, error) {
	if a.Len() != b.Len() {
		return 0, errors.Wrapf(ErrInvalidInput, "length mismatch %d vs %d", a.Len(), b.Len())
	}
	x, _ := a.Reinterpret(column.Int64)
	y, _ := b.Column().Reinterpret(column.Int64)
	v, ok, err := fn(x, y)
	if err != nil {
		return 0, kernelErr(err)
	}
	if !ok {
		return math.NaN(), nil
	}
	return v, nil
}

// Min returns the earliest instant.
func (c *DatetimeColumn) Min() column.Scalar { return column.Min(c.data) }

// Max returns the latest instant.
func (c *DatetimeColumn) Max() column.Scalar { return column.Max(c.data) }

// Mean returns the average instant, truncated to the unit.
func (c *DatetimeColumn) Mean() (column.Scalar, error) { return mean(c.data) }

// Median returns the linear 0.5 quantile.
func (c *DatetimeColumn) Median() (column.Scalar, error) {
	return c.Quantile(0.5, column.Linear)
}

// Std returns the standard deviation as a duration at the column's unit.
func (c *DatetimeColumn) Std(ddof int) (column.Scalar, error) {
	return std(c.asInt64(), DurationType(c.unit), ddof)
}

// Quantile returns the q-th quantile as an instant scalar.
func (c *DatetimeColumn) Quantile(q float64, interp column.Interpolation) (column.Scalar, error) {
	s, err := column.Quantile(c.data, q, interp)
	if err != nil {
		return column.Scalar{}, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return s, nil
}

// Quantiles returns one instant per requested quantile.
func (c *DatetimeColumn) Quantiles(qs []float64, interp column.Interpolation) (*DatetimeColumn, error) {
	res, err := quantiles(c.data, qs, interp)
	if err != nil {
		return nil, err
	}
	return &DatetimeColumn{data: res, unit: c.unit, tz: c.tz}, nil
}

// Cov returns the covariance of the raw ticks of c and other.
func (c *DatetimeColumn) Cov(other Temporal, ddof int) (float64, error) {
	return pairwise(c.data, other, func(x, y *column.Column) (float64, bool, error) {
		return column.Cov(x, y, ddof)
	})
}

// Corr returns the Pearson correlation of the raw ticks of c and other.
func (c *DatetimeColumn) Corr(other Temporal) (float64, error) {
	return pairwise(c.data, other, column.Corr)
}

// Sum adds the durations; the total must fit in int64 ticks.
func (c *TimedeltaColumn) Sum() (column.Scalar, error) {
	s, err := column.Sum(c.data)
	if err != nil {
		return column.Scalar{}, kernelErr(err)
	}
	return s, nil
}

func (c *TimedeltaColumn) Min() column.Scalar { return column.Min(c.data) }
func (c *TimedeltaColumn) Max() column.Scalar { return column.Max(c.data) }

// Mean returns the average duration, truncated to the unit.
func (c *TimedeltaColumn) Mean() (column.Scalar, error) { return mean(c.data) }

func (c *TimedeltaColumn) Median() (column.Scalar, error) {
	return c.Quantile(0.5, column.Linear)
}

// Std returns the standard deviation as a duration at the column's unit.
func (c *TimedeltaColumn) Std(ddof int) (column.Scalar, error) {
	return std(c.asInt64(), c.data.DataType(), ddof)
}

func (c *TimedeltaColumn) Quantile(q float64, interp column.Interpolation) (column.Scalar, error) {
	s, err := column.Quantile(c.data, q, interp)
	if err != nil {
		return column.Scalar{}, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return s, nil
}

func (c *TimedeltaColumn) Quantiles(qs []float64, interp column.Interpolation) (*TimedeltaColumn, error) {
	res, err := quantiles(c.data, qs, interp)
	if err != nil {
		return nil, err
	}
	return mustTimedelta(res), nil
}

func (c *TimedeltaColumn) Cov(other Temporal, ddof int) (float64, error) {
	return pairwise(c.data, other, func(x, y *column.Column) (float64, bool, error) {
		return column.Cov(x, y, ddof)
	})
}

func (c *TimedeltaColumn) Corr(other Temporal) (float64, error) {
	return pairwise(c.data, other, column.Corr)
}
