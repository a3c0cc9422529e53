package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/scanner"
	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// RenderScanProgress renders the overlay shown until the first snapshot
// arrives.
func RenderScanProgress(theme style.Theme, stats scanner.Stats, spinner, root string, width, height int) string {
	boxWidth := max(min(50, width-4), 0)

	var lines []string

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Primary).
		Render("  Scanning...")
	if spinner != "" {
		title = "  " + spinner + title
	}
	lines = append(lines, title)
	if root != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextMuted).
			Render("  "+util.TruncateString(root, max(boxWidth-8, 8))))
	}
	lines = append(lines, "")

	statStyle := lipgloss.NewStyle().Foreground(theme.TextSecondary)
	lines = append(lines,
		statStyle.Render(fmt.Sprintf("  Files:  %s", util.FormatCountExact(stats.Files))),
		statStyle.Render(fmt.Sprintf("  Dirs:   %s", util.FormatCountExact(stats.Dirs))),
		statStyle.Render(fmt.Sprintf("  Size:   %s", util.FormatSize(stats.Bytes))),
		statStyle.Render(fmt.Sprintf("  Speed:  %s items/s", util.FormatCount(int64(stats.ItemsPerSecond())))),
	)

	if stats.Errors > 0 {
		lines = append(lines, theme.ErrorText.Render(fmt.Sprintf("  Skipped: %d", stats.Errors)))
	}

	lines = append(lines, "")
	elapsed := fmt.Sprintf("  Elapsed: %.1fs", stats.Elapsed.Seconds())
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextMuted).Render(elapsed))

	box := theme.ModalStyle.
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
