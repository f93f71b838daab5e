package temporal

import (
	"strconv"
	"strings"
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/ncruces/go-strftime"
	"github.com/pkg/errors"
)

// directive is one compiled piece of a format. When verb is 0, text is
// either a literal run or, for instants, strftime text handed to
// go-strftime as is.
type directive struct {
	verb  byte
	width int // %3f, %6f, %9f
	text  string
}

// compileFormat splits a format into text runs and directives, rejecting
// verbs outside allowed. With inline set, every verb but the fractional
// seconds stays in the text run for go-strftime.
func compileFormat(format, allowed string, inline bool) ([]directive, error) {
	var out []directive
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, directive{text: text.String()})
			text.Reset()
		}
	}
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			text.WriteByte(format[i])
			continue
		}
		if i+1 >= len(format) {
			return nil, errors.Wrapf(ErrInvalidInput, "format %q ends with a lone %%", format)
		}
		i++
		d := directive{verb: format[i]}
		if c := format[i]; c == '3' || c == '6' || c == '9' {
			if i+1 >= len(format) || format[i+1] != 'f' {
				return nil, errors.Wrapf(ErrInvalidInput, "format %q: %%%c must be followed by f", format, c)
			}
			d = directive{verb: 'f', width: int(c - '0')}
			i++
		}
		switch {
		case d.verb == '%' && inline:
			text.WriteString("%%")
			continue
		case d.verb == '%':
			text.WriteByte('%')
			continue
		case !strings.ContainsRune(allowed, rune(d.verb)):
			return nil, errors.Wrapf(ErrInvalidInput, "format %q: unsupported directive %%%c", format, d.verb)
		case inline && d.verb != 'f':
			text.WriteByte('%')
			text.WriteByte(d.verb)
			continue
		}
		flush()
		out = append(out, d)
	}
	flush()
	return out, nil
}

const instantVerbs = "YymdHIMSpPjfzZaAbBuwGVUW"

func appendPadded(dst []byte, v int64, width int) []byte {
	if v < 0 {
		dst = append(dst, '-')
		v = -v
	}
	for n := len(strconv.FormatInt(v, 10)); n < width; n++ {
		dst = append(dst, '0')
	}
	return strconv.AppendInt(dst, v, 10)
}

// fracWidth is the number of fractional digits a bare %f renders at u.
func fracWidth(u Unit) int {
	switch u {
	case Millisecond:
		return 3
	case Nanosecond:
		return 9
	}
	return 6
}

func appendInstant(dst []byte, prog []directive, t time.Time, u Unit) []byte {
	for _, d := range prog {
		if d.verb == 0 {
			dst = strftime.AppendFormat(dst, d.text, t)
			continue
		}
		w := d.width
		if w == 0 {
			w = fracWidth(u)
		}
		ns := int64(t.Nanosecond())
		for i := w; i < 9; i++ {
			ns /= 10
		}
		dst = appendPadded(dst, ns, w)
	}
	return dst
}

// Strftime renders every row with format. Aware columns render their local
// wall-clock time; %z and %Z render as +0000 and UTC. %f renders 3, 6 or 9
// digits by unit (6 for seconds); %3f, %6f and %9f force a width. Null rows
// stay null.
func (c *DatetimeColumn) Strftime(format string) (*column.Column, error) {
	prog, err := compileFormat(format, instantVerbs, true)
	if err != nil {
		return nil, err
	}
	var buf []byte
	return c.mapLocal(column.String, func(t time.Time) column.Scalar {
		buf = appendInstant(buf[:0], prog, t, c.unit)
		return column.StringScalar(string(buf))
	})
}

var unitFormats = [...]string{
	Second:      "%Y-%m-%d %H:%M:%S",
	Millisecond: "%Y-%m-%d %H:%M:%S.%3f",
	Microsecond: "%Y-%m-%d %H:%M:%S.%6f",
	Nanosecond:  "%Y-%m-%d %H:%M:%S.%9f",
}

// AsStrings renders rows in ISO form with as many fractional digits as the
// unit carries. In pandas-compatible mode the format narrows to the finest
// component that is non-zero in some row, down to a bare date.
func (c *DatetimeColumn) AsStrings() (*column.Column, error) {
	format := unitFormats[c.unit]
	if CurrentOptions().PandasCompatible {
		var err error
		if format, err = c.narrowFormat(format); err != nil {
			return nil, err
		}
	}
	return c.Strftime(format)
}

func (c *DatetimeColumn) anyField(f Field) (bool, error) {
	vals, err := c.Field(f)
	if err != nil {
		return false, err
	}
	nonZero, err := column.Binary(vals, column.IntScalar(vals.DataType(), 0), column.OpNe, column.Boolean)
	if err != nil {
		return false, err
	}
	return column.Any(nonZero)
}

func (c *DatetimeColumn) narrowFormat(format string) (string, error) {
	checks := []struct {
		f   Field
		min Unit
	}{
		{FieldNanosecond, Nanosecond},
		{FieldMicrosecond, Microsecond},
		{FieldMillisecond, Millisecond},
		{FieldSecond, Second},
		{FieldMinute, Second},
		{FieldHour, Second},
	}
	var has [6]bool
	for i, chk := range checks {
		if c.unit < chk.min {
			continue
		}
		ok, err := c.anyField(chk.f)
		if err != nil {
			return "", err
		}
		has[i] = ok
	}
	clock := has[3] || has[4] || has[5]
	date, _, _ := strings.Cut(format, " ")
	if strings.HasSuffix(format, "f") {
		trimmed := format[:len(format)-3]
		switch {
		case has[0]:
			return format, nil
		case has[1]:
			return trimmed + "%6f", nil
		case has[2]:
			return trimmed + "%3f", nil
		case clock:
			return format[:len(format)-4], nil
		}
		return date, nil
	}
	if !clock {
		return date, nil
	}
	return format, nil
}

const durationVerbs = "DHMS"

// Strftime renders durations. %D is whole days (floored, so negative values
// read "-1 days 23:..."), %H %M %S the remaining clock; %S carries the
// unit's fractional digits for sub-second units.
func (c *TimedeltaColumn) Strftime(format string) (*column.Column, error) {
	prog, err := compileFormat(format, durationVerbs, false)
	if err != nil {
		return nil, err
	}
	n := c.Len()
	out := make([]string, n)
	valid := make([]bool, n)
	tps := c.unit.TicksPerSecond()
	var buf []byte
	for i := 0; i < n; i++ {
		if !c.data.IsValid(i) {
			continue
		}
		valid[i] = true
		ticks := c.data.Int64(i)
		secs, frac := column.FloorDiv(ticks, tps), column.FloorMod(ticks, tps)
		days, rem := column.FloorDiv(secs, 86_400), column.FloorMod(secs, 86_400)
		buf = buf[:0]
		for _, d := range prog {
			switch d.verb {
			case 0:
				buf = append(buf, d.text...)
			case 'D':
				buf = appendPadded(buf, days, 1)
			case 'H':
				buf = appendPadded(buf, rem/3600, 2)
			case 'M':
				buf = appendPadded(buf, rem%3600/60, 2)
			case 'S':
				buf = appendPadded(buf, rem%60, 2)
				if c.unit != Second {
					buf = append(buf, '.')
					buf = appendPadded(buf, frac, fracWidth(c.unit))
				}
			}
		}
		out[i] = string(buf)
	}
	return column.FromStrings(out, valid)
}

// AsStrings renders rows as "%D days %H:%M:%S".
func (c *TimedeltaColumn) AsStrings() (*column.Column, error) {
	return c.Strftime("%D days %H:%M:%S")
}
