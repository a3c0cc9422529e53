package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Layout splits the terminal into header, tab bar, caption, list and status
// bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a layout for the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentHeight returns the number of list rows that fit.
func (l Layout) ContentHeight() int {
	return max(l.Height-4, 1) // header + tabbar + caption + statusbar
}

// ContentWidth returns the width available for the list.
func (l Layout) ContentWidth() int {
	return max(l.Width, 20)
}

// BarWidth returns the width of the size bar in each row.
func (l Layout) BarWidth() int {
	return min(max(l.ContentWidth()-l.rowOverhead()-minNameWidth, 5), 30)
}

// NameWidth returns the width available for names.
func (l Layout) NameWidth() int {
	return max(l.ContentWidth()-l.rowOverhead()-l.BarWidth(), 8)
}

const (
	minNameWidth = 12
	// DetailWidth is the column holding ages or file counts.
	DetailWidth = 14
	// SizeWidth is the right-aligned size column.
	SizeWidth = 10
)

// rowOverhead is the fixed part of a list row:
// indicator(2) + pct(6) + " ["(2) + "] "(2) + " "(1) + detail + " "(1) + size.
func (l Layout) rowOverhead() int {
	return 2 + 6 + 2 + 2 + 1 + DetailWidth + 1 + SizeWidth
}

// FullWidth pads a string with spaces to reach exactly the target visual width.
// If the string is already wider, it is returned as-is (no truncation).
func FullWidth(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}
