package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/model"
	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// PanelNames labels the tabs in order.
var PanelNames = []string{"Files", "Directories", "Types", "Filtered"}

// StatusInfo holds the current state for the status bar.
type StatusInfo struct {
	Shown       int
	Skipped     int64
	AllowDelete bool
	CanDelete   bool
	Message     string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(theme style.Theme, info StatusInfo, width int) string {
	if info.Message != "" {
		msg := " " + lipgloss.NewStyle().Foreground(theme.Warning).Bold(true).Render(info.Message)
		return theme.StatusBarStyle.Width(width).Render(msg)
	}

	parts := []string{fmt.Sprintf("%d shown", info.Shown)}
	if info.Skipped > 0 {
		parts = append(parts, theme.ErrorText.Render(fmt.Sprintf("%s unreadable", util.FormatCount(info.Skipped))))
	}
	switch {
	case !info.CanDelete:
		parts = append(parts, "read-only")
	case info.AllowDelete:
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("delete enabled"))
	default:
		parts = append(parts, "delete locked")
	}
	left := " " + strings.Join(parts, " | ")

	hints := []struct{ key, desc string }{
		{"?", "help"},
		{"n", "sort"},
		{"D", "unlock"},
		{"q", "quit"},
	}
	rightParts := make([]string, 0, len(hints))
	for _, h := range hints {
		k := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(h.key)
		d := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(" " + h.desc)
		rightParts = append(rightParts, k+d)
	}
	right := strings.Join(rightParts, "  ") + " "

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return theme.StatusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderTabBar renders the panel tabs and the current sort.
func RenderTabBar(theme style.Theme, active int, sort model.SortConfig, width int) string {
	tabLine := make([]string, 0, len(PanelNames))
	for i, tab := range PanelNames {
		label := fmt.Sprintf(" %d %s ", i+1, tab)
		if i == active {
			tabLine = append(tabLine, theme.TabActiveStyle.Render(label))
		} else {
			tabLine = append(tabLine, theme.TabInactiveStyle.Render(label))
		}
	}
	left := " " + strings.Join(tabLine, " ")
	sortLabel := lipgloss.NewStyle().Foreground(theme.TextMuted).Render("Sort: " + sort.String() + " ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(sortLabel), 1)
	return lipgloss.NewStyle().
		Foreground(theme.TextSecondary).
		Background(theme.BgLight).
		Width(max(width, 0)).
		Render(left + strings.Repeat(" ", gap) + sortLabel)
}
