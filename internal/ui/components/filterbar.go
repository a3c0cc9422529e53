package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/birdseye/internal/filter"
	"github.com/sadopc/birdseye/internal/ui/style"
)

// RenderFilterBar renders the active filters as chips, highlighting the
// selected one.
func RenderFilterBar(theme style.Theme, chain filter.Chain, selected, width int) string {
	if len(chain) == 0 {
		hint := "No filters. s min-size  o min-age  w max-age  c max-results"
		return theme.CaptionStyle.Width(max(width, 0)).Render(" " + hint)
	}

	chips := make([]string, 0, len(chain))
	for i, f := range chain {
		if i == selected {
			chips = append(chips, theme.FilterActive.Render(f.Label()))
		} else {
			chips = append(chips, theme.FilterInactive.Render(f.Label()))
		}
	}
	line := " " + strings.Join(chips, " ")
	if width > 0 && lipgloss.Width(line) > width {
		line = ansi.Truncate(line, width, "…")
	}
	return style.FullWidth(line, max(width, 0))
}
