package temporal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/miretskiy/firn/column"
	"github.com/ncruces/go-strftime"
	"github.com/pkg/errors"
)

var (
	isoDate     = regexp.MustCompile(`^(\d{4})([-/.]?)(\d{2})(?:([-/.]?)(\d{2}))?`)
	usDate      = regexp.MustCompile(`^(\d{1,2})([-/.])(\d{1,2})([-/.])(\d{4})`)
	dayMonthY   = regexp.MustCompile(`^(\d{1,2}) ([A-Za-z]+) (\d{4})`)
	monthDayY   = regexp.MustCompile(`^([A-Za-z]+) (\d{1,2})(,?) (\d{4})`)
	clockRe     = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?(?:\.(\d+))?(\s*)([AaPp][Mm])?(.*)$`)
	offsetTail  = regexp.MustCompile(`^(Z|[+-]\d{2}:?\d{2})$`)
	zoneTail    = regexp.MustCompile(`^(\s*)([A-Za-z]{3,})$`)
	zoneMarkers = regexp.MustCompile(`:\d{2}(?:\.\d+)?(Z|[+-]\d{2}:?\d{2}|\s*[A-Za-z]{3,})$`)
)

func monthName(s string) (string, bool) {
	for m := 1; m <= 12; m++ {
		switch full := monthNames[m]; {
		case strings.EqualFold(s, full):
			return "%B", true
		case strings.EqualFold(s, full[:3]):
			return "%b", true
		}
	}
	return "", false
}

func inRange(s string, lo, hi int) bool {
	v, err := strconv.Atoi(s)
	return err == nil && v >= lo && v <= hi
}

// guessDate recognizes a leading date and returns its format and the
// unconsumed remainder.
func guessDate(s string) (format, rest string, ok bool) {
	if m := isoDate.FindStringSubmatch(s); m != nil && (m[5] == "" || m[2] == m[4]) {
		if !inRange(m[3], 1, 12) {
			return "", "", false
		}
		if m[5] == "" {
			if m[2] == "" {
				return "", "", false
			}
			return "%Y" + m[2] + "%m", s[len(m[0]):], true
		}
		if !inRange(m[5], 1, 31) {
			return "", "", false
		}
		return "%Y" + m[2] + "%m" + m[4] + "%d", s[len(m[0]):], true
	}
	if m := usDate.FindStringSubmatch(s); m != nil && m[2] == m[4] {
		first, second := "%m", "%d"
		if !inRange(m[1], 1, 12) {
			first, second = "%d", "%m"
			if !inRange(m[3], 1, 12) {
				return "", "", false
			}
		}
		return first + m[2] + second + m[4] + "%Y", s[len(m[0]):], true
	}
	if m := dayMonthY.FindStringSubmatch(s); m != nil {
		if f, ok := monthName(m[2]); ok && inRange(m[1], 1, 31) {
			return "%d " + f + " %Y", s[len(m[0]):], true
		}
	}
	if m := monthDayY.FindStringSubmatch(s); m != nil {
		if f, ok := monthName(m[1]); ok && inRange(m[2], 1, 31) {
			return f + " %d" + m[3] + " %Y", s[len(m[0]):], true
		}
	}
	return "", "", false
}

// guessClock recognizes HH:MM[:SS][.frac][ AM|PM][zone].
func guessClock(s string) (string, bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	var b strings.Builder
	if m[6] != "" {
		if !inRange(m[1], 1, 12) {
			return "", false
		}
		b.WriteString("%I")
	} else {
		if !inRange(m[1], 0, 23) {
			return "", false
		}
		b.WriteString("%H")
	}
	if !inRange(m[2], 0, 59) {
		return "", false
	}
	b.WriteString(":%M")
	if m[3] != "" {
		if !inRange(m[3], 0, 59) {
			return "", false
		}
		b.WriteString(":%S")
	}
	if m[4] != "" {
		b.WriteString(".%f")
	}
	tail := m[7]
	if m[6] != "" {
		if m[6] == strings.ToLower(m[6]) {
			b.WriteString(m[5] + "%P")
		} else {
			b.WriteString(m[5] + "%p")
		}
	} else {
		tail = m[5] + tail
	}
	switch {
	case tail == "":
	case offsetTail.MatchString(tail):
		b.WriteString("%z")
	case zoneTail.MatchString(tail):
		b.WriteString(zoneTail.FindStringSubmatch(tail)[1] + "%Z")
	default:
		return "", false
	}
	return b.String(), true
}

// guessFormat guesses the strftime format of a date or date-time string.
// A clock without a date is not recognized.
func guessFormat(s string) (string, bool) {
	date, rest, ok := guessDate(s)
	if !ok {
		return "", false
	}
	if rest == "" {
		return date, true
	}
	if sep := rest[0]; sep == ' ' || sep == 'T' {
		if clock, ok := guessClock(rest[1:]); ok {
			return date + string(sep) + clock, true
		}
	}
	return "", false
}

// InferFormat infers the strftime format of a sample timestamp string.
// Fractional seconds are reported as .%Nf where N is the number of digits
// in the sample. A trailing "Z" is ignored unless pandas-compatible mode is
// on. Formats that carry an offset or zone name are not implemented.
func InferFormat(sample string) (string, error) {
	if !CurrentOptions().PandasCompatible {
		sample = strings.ReplaceAll(sample, "Z", "")
	}
	return inferFormat(sample)
}

func inferFormat(sample string) (string, error) {
	if f, ok := guessFormat(sample); ok {
		if strings.Contains(f, "%z") || strings.Contains(f, "%Z") {
			return "", errors.Wrapf(ErrNotImplemented, "timezone-aware datetimes (%q)", sample)
		}
		if !strings.Contains(f, ".%f") {
			return f, nil
		}
	}

	parts := strings.Split(sample, ".")
	if len(parts) != 2 {
		return "", errors.Wrapf(ErrAmbiguousInference, "%q is not likely a datetime", sample)
	}
	digits := len(parts[1]) - len(strings.TrimLeft(parts[1], "0123456789"))
	if digits == 0 || digits > 9 {
		return "", errors.Wrapf(ErrAmbiguousInference, "%q: fractional seconds", sample)
	}
	if digits < len(parts[1]) {
		return "", errors.Wrapf(ErrNotImplemented, "timezone-aware datetimes (%q)", sample)
	}

	first, ok := guessFormat(parts[0])
	if !ok {
		f, ok := guessFormat("1970-01-01 " + parts[0])
		if !ok {
			return "", errors.Wrapf(ErrAmbiguousInference, "%q", sample)
		}
		_, first, _ = strings.Cut(f, " ")
	}
	return first + ".%" + strconv.Itoa(digits) + "f", nil
}

// ParseTimestamp parses a naive timestamp literal into nanoseconds since
// the epoch. Literals carrying an offset or zone are not supported.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if zoneMarkers.MatchString(s) {
		return 0, errors.Wrapf(ErrNotSupported, "timezone-aware timestamp %q", s)
	}
	format, err := inferFormat(s)
	if err != nil {
		return 0, errors.Wrapf(ErrUnsupportedOperand, "timestamp %q: %v", s, err)
	}
	return Strptime(s, format, Nanosecond)
}

// Strptime parses s with format into ticks at u. Formats are strptime
// specifications as understood by go-strftime, plus .%f and .%Nf after %S,
// which accept any number of fractional digits. Fractional digits beyond
// u's resolution are truncated.
func Strptime(s, format string, u Unit) (int64, error) {
	layout, err := stripFraction(format)
	if err != nil {
		return 0, err
	}
	t, err := strftime.Parse(layout, s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidInput, "%q does not match format %q: %v", s, format, err)
	}
	tps := u.TicksPerSecond()
	ticks, ok := column.MulChecked(t.Unix(), tps)
	if !ok {
		return 0, errors.Wrapf(ErrOverflow, "%q at unit %s", s, u)
	}
	if ticks, ok = column.AddChecked(ticks, int64(t.Nanosecond())/(1_000_000_000/tps)); !ok {
		return 0, errors.Wrapf(ErrOverflow, "%q at unit %s", s, u)
	}
	return ticks, nil
}

// stripFraction drops fractional-second fields from a strptime format.
// time.Parse picks up a fraction directly after the seconds on its own.
func stripFraction(format string) (string, error) {
	var b strings.Builder
	secEnd := -1
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 == len(format) {
			b.WriteByte(format[i])
			continue
		}
		n := 0
		switch c := format[i+1]; {
		case c == 'f':
			n = 2
		case c >= '1' && c <= '9' && i+2 < len(format) && format[i+2] == 'f':
			n = 3
		default:
			b.WriteString(format[i : i+2])
			if c == 'S' {
				secEnd = b.Len()
			}
			i++
			continue
		}
		text := b.String()
		if secEnd < 0 || len(text) != secEnd+1 || (text[secEnd] != '.' && text[secEnd] != ',') {
			return "", errors.Wrapf(ErrInvalidInput, "format %q: fractional seconds must follow %%S.", format)
		}
		b.Reset()
		b.WriteString(text[:secEnd])
		i += n - 1
	}
	return b.String(), nil
}

// ParseDatetimes parses a string column into a naive instant column at u.
// An empty format is inferred from the first valid row. Null rows stay
// null; unparsable rows are an error.
func ParseDatetimes(c *column.Column, format string, u Unit) (*DatetimeColumn, error) {
	if !c.DataType().IsString() {
		return nil, errors.Wrapf(ErrTypeIncompatible, "cannot parse %s as datetimes", c.DataType())
	}
	if !u.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unit %d", u)
	}
	keepZ := CurrentOptions().PandasCompatible
	n := c.Len()
	ticks := make([]int64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if !c.IsValid(i) || isNaTString(c.Str(i)) {
			continue
		}
		s := c.Str(i)
		if !keepZ {
			s = strings.ReplaceAll(s, "Z", "")
		}
		if format == "" {
			f, err := inferFormat(s)
			if err != nil {
				return nil, err
			}
			format = f
		}
		v, err := Strptime(s, format, u)
		if err != nil {
			return nil, err
		}
		ticks[i], valid[i] = v, true
	}
	return Datetimes(u, ticks, valid)
}
