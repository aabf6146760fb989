package visibility

import (
	"fmt"
	"strconv"
	"strings"
)

// Margin grows (or, when negative, shrinks) the viewport on each side.
// Units are whatever the host measures in: pixels in a browser, rows and
// columns in a terminal.
type Margin struct {
	Top, Right, Bottom, Left int
}

// UniformMargin returns a margin of n on every side.
func UniformMargin(n int) Margin {
	return Margin{Top: n, Right: n, Bottom: n, Left: n}
}

// ParseMargin parses a CSS rootMargin-style value: one to four lengths with
// an optional "px" suffix, applied in top, right, bottom, left order.
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 4 {
		return Margin{}, fmt.Errorf("margin %q: want 1 to 4 values", s)
	}

	vals := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSuffix(f, "px"))
		if err != nil {
			return Margin{}, fmt.Errorf("margin %q: bad length %q", s, f)
		}
		vals[i] = n
	}

	switch len(vals) {
	case 1:
		return UniformMargin(vals[0]), nil
	case 2:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	default:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
}

// String renders the margin in four-value CSS form.
func (m Margin) String() string {
	return fmt.Sprintf("%dpx %dpx %dpx %dpx", m.Top, m.Right, m.Bottom, m.Left)
}
