package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// Row is one line of a ranked list.
type Row struct {
	Icon   string
	Name   string
	Detail string
	Size   int64
	IsDir  bool
	// Color overrides the name colour when set.
	Color lipgloss.Color
}

// ListView renders a scrolling list of rows with size bars.
type ListView struct {
	Theme  style.Theme
	Layout style.Layout
	Rows   []Row
	// Total is the size that percentages and bars are relative to.
	Total  int64
	Cursor int
	Offset int
	Empty  string
}

// Render renders the visible rows, padded to the content height.
func (lv *ListView) Render() string {
	width := lv.Layout.ContentWidth()
	height := lv.Layout.ContentHeight()

	if len(lv.Rows) == 0 {
		msg := lv.Empty
		if msg == "" {
			msg = "(nothing to show)"
		}
		lines := []string{style.FullWidth(lipgloss.NewStyle().Foreground(lv.Theme.TextMuted).Render("  "+msg), width)}
		for len(lines) < height {
			lines = append(lines, strings.Repeat(" ", width))
		}
		return strings.Join(lines, "\n")
	}

	end := min(lv.Offset+height, len(lv.Rows))
	lines := make([]string, 0, height)
	for i := lv.Offset; i < end; i++ {
		lines = append(lines, lv.renderRow(lv.Rows[i], i == lv.Cursor, width))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func (lv *ListView) renderRow(row Row, selected bool, width int) string {
	pct := util.Percent(row.Size, lv.Total)
	bar := lv.Theme.BarGradient(lv.Layout.BarWidth(), pct/100)

	indicator := "  "
	if selected {
		indicator = lv.Theme.CursorIndicator.Render(" >")
	}

	name := row.Name
	if row.IsDir {
		name += "/"
	}
	if row.Icon != "" {
		name = row.Icon + " " + name
	}
	nameWidth := lv.Layout.NameWidth()
	name = style.FullWidth(ansi.Truncate(name, nameWidth, "…"), nameWidth)

	nameStyle := lv.Theme.FileName
	if row.IsDir {
		nameStyle = lv.Theme.DirName
	}
	if row.Color != "" {
		nameStyle = nameStyle.Foreground(row.Color)
	}

	detail := lipgloss.NewStyle().
		Foreground(lv.Theme.TextMuted).
		Width(style.DetailWidth).
		Align(lipgloss.Right).
		Render(ansi.Truncate(row.Detail, style.DetailWidth, "…"))
	size := lipgloss.NewStyle().
		Foreground(lv.Theme.GradientColor(pct/100)).
		Width(style.SizeWidth).
		Align(lipgloss.Right).
		Render(util.FormatSize(row.Size))

	line := fmt.Sprintf("%s%s [%s] %s %s %s",
		indicator,
		lv.Theme.PercentText.Render(fmt.Sprintf("%5.1f%%", pct)),
		bar,
		nameStyle.Render(name),
		detail,
		size,
	)
	line = style.FullWidth(line, width)
	if selected {
		return lv.Theme.SelectedRow.Width(width).Render(line)
	}
	return line
}

// EnsureVisible adjusts Offset so the cursor row is on screen.
func (lv *ListView) EnsureVisible() {
	height := lv.Layout.ContentHeight()
	if lv.Cursor < lv.Offset {
		lv.Offset = lv.Cursor
	}
	if lv.Cursor >= lv.Offset+height {
		lv.Offset = lv.Cursor - height + 1
	}
	lv.Offset = max(lv.Offset, 0)
}
