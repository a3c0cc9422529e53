package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/ui/style"
)

type helpBind struct{ key, desc string }

var helpSections = []struct {
	name  string
	binds []helpBind
}{
	{
		name: "Panels",
		binds: []helpBind{
			{"1-4", "Files / Directories / Types / Filtered"},
			{"j/k", "Move down/up"},
			{"n", "Cycle sort field and order"},
			{"m", "Types: toggle treemap"},
		},
	},
	{
		name: "Filtered panel",
		binds: []helpBind{
			{"s o w c", "Add min-size / min-age / max-age / max-results"},
			{"tab ←/→", "Select filter"},
			{"+/-", "Adjust selected filter"},
			{"x", "Remove selected filter"},
		},
	},
	{
		name: "Actions",
		binds: []helpBind{
			{"D", "Unlock / lock deletion"},
			{"d", "Delete current entry"},
			{"y/n", "Confirm / cancel"},
			{"E", "Export to JSON"},
			{"r", "Rescan"},
		},
	},
	{
		name: "General",
		binds: []helpBind{
			{"?", "Toggle help"},
			{"q", "Quit"},
		},
	},
}

// RenderHelp renders the help overlay.
func RenderHelp(theme style.Theme, width, height int) string {
	boxWidth := max(min(64, width-4), 0)

	title := theme.ModalTitle.Render("  birdseye - Keyboard Shortcuts")

	var lines []string
	lines = append(lines, title)
	lines = append(lines, "")

	for _, sec := range helpSections {
		secTitle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent).
			Render("  " + sec.name)
		lines = append(lines, secTitle)

		for _, b := range sec.binds {
			key := lipgloss.NewStyle().
				Foreground(theme.Primary).
				Bold(true).
				Width(14).
				Render("    " + b.key)
			desc := lipgloss.NewStyle().
				Foreground(theme.TextSecondary).
				Render(b.desc)
			lines = append(lines, fmt.Sprintf("%s %s", key, desc))
		}
		lines = append(lines, "")
	}

	footer := lipgloss.NewStyle().
		Foreground(theme.TextMuted).
		Render("  Press ? or Esc to close")
	lines = append(lines, footer)

	content := strings.Join(lines, "\n")

	box := theme.ModalStyle.
		Width(boxWidth).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
