package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Display widths used when titles are shown in charts and lists.
const (
	ChartNameWidth = 12
	ListNameWidth  = 15
)

// FormatMinutes renders minutes as "2h 5m", "45m" or "3h".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// Truncate shortens name to at most width runes followed by "..." when it is
// longer than width.
func Truncate(name string, width int) string {
	if width <= 0 || utf8.RuneCountInString(name) <= width {
		return name
	}
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == width {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString("...")
	return b.String()
}
