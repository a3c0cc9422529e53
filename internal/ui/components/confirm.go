package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// ConfirmItem is the entry pending deletion.
type ConfirmItem struct {
	Path  string
	Size  int64
	IsDir bool
	// Files is the number of files removed with a directory.
	Files int
}

// RenderConfirmDialog renders the modal asking whether to delete item.
func RenderConfirmDialog(theme style.Theme, item ConfirmItem, width, height int) string {
	boxWidth := max(min(60, width-4), 0)
	text := lipgloss.NewStyle().Foreground(theme.TextPrimary)
	muted := lipgloss.NewStyle().Foreground(theme.TextMuted)
	danger := lipgloss.NewStyle().Foreground(theme.Error)

	kind, detail := "file", util.FormatSize(item.Size)
	if item.IsDir {
		kind = "directory"
		detail = fmt.Sprintf("%s in %s files", detail, util.FormatCountExact(int64(item.Files)))
	}

	lines := []string{
		theme.ModalTitle.Render("  Delete " + kind + "?"),
		danger.Render("  " + util.TruncateString(item.Path, max(boxWidth-6, 8))),
		muted.Render("  " + detail),
		"",
		lipgloss.NewStyle().Foreground(theme.Warning).Render("  This cannot be undone."),
		"",
		text.Render("  Press ") +
			lipgloss.NewStyle().Bold(true).Foreground(theme.Success).Render("y") +
			text.Render(" to delete, ") +
			lipgloss.NewStyle().Bold(true).Foreground(theme.Error).Render("n/esc") +
			text.Render(" to keep it"),
	}

	box := theme.ModalStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
