package frame

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// render draws a materialized frame as a box table headed by its shape,
// names and type labels.
func render(df *DataFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "shape: (%d, %d)\n", df.height, len(df.series))
	if len(df.series) == 0 {
		b.WriteString("┌┐\n╞╡\n└┘")
		return b.String()
	}

	cells := make([][]string, len(df.series))
	labels := make([]string, len(df.series))
	widths := make([]int, len(df.series))
	for j, s := range df.series {
		vals, err := s.Strings()
		if err != nil {
			return fmt.Sprintf("DataFrame{error: %v}", err)
		}
		cells[j] = vals
		labels[j] = s.typeLabel()
		widths[j] = max(3, utf8.RuneCountInString(s.Name), utf8.RuneCountInString(labels[j]))
		for _, v := range vals {
			widths[j] = max(widths[j], utf8.RuneCountInString(v))
		}
	}

	border := func(left, fill, mid, right string) {
		b.WriteString(left)
		for j, w := range widths {
			if j > 0 {
				b.WriteString(mid)
			}
			b.WriteString(strings.Repeat(fill, w+2))
		}
		b.WriteString(right)
		b.WriteByte('\n')
	}
	row := func(at func(j int) string) {
		b.WriteString("│")
		for j, w := range widths {
			if j > 0 {
				b.WriteString("┆")
			}
			v := at(j)
			b.WriteString(" " + v + strings.Repeat(" ", w-utf8.RuneCountInString(v)) + " ")
		}
		b.WriteString("│\n")
	}

	border("┌", "─", "┬", "┐")
	row(func(j int) string { return df.series[j].Name })
	row(func(int) string { return "---" })
	row(func(j int) string { return labels[j] })
	border("╞", "═", "╪", "╡")
	for i := 0; i < df.height; i++ {
		row(func(j int) string { return cells[j][i] })
	}
	border("└", "─", "┴", "┘")
	return strings.TrimSuffix(b.String(), "\n")
}
