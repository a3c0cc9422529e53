package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// HeaderInfo is what the top bar shows.
type HeaderInfo struct {
	Root  string
	Size  int64
	Files int
	Dirs  int
	// Status is shown before the totals, e.g. a spinner while scanning.
	Status string
}

// RenderHeader renders the top header bar.
func RenderHeader(theme style.Theme, info HeaderInfo, width int) string {
	if width < 10 {
		return ""
	}

	titleStyled := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render(" birdseye")

	stats := fmt.Sprintf("%s files  %s dirs  %s ",
		util.FormatCount(int64(info.Files)),
		util.FormatCount(int64(info.Dirs)),
		util.FormatSize(info.Size),
	)
	if info.Status != "" {
		stats = info.Status + "  " + stats
	}
	statsStyled := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(stats)

	titleW := lipgloss.Width(titleStyled)
	statsW := lipgloss.Width(statsStyled)

	// The root path gets whatever space remains.
	pathMaxW := width - titleW - statsW - 3
	pathStr := ""
	if pathMaxW > 5 {
		pathStr = util.TruncateString(info.Root, pathMaxW)
	}
	pathStyled := lipgloss.NewStyle().Foreground(theme.TextPrimary).Render("  " + pathStr)

	gap := max(width-titleW-lipgloss.Width(pathStyled)-statsW, 1)
	line := titleStyled + pathStyled + strings.Repeat(" ", gap) + statsStyled
	return theme.HeaderStyle.Width(width).Render(line)
}

// RenderCaption renders the line under the tab bar describing the panel.
func RenderCaption(theme style.Theme, text string, width int) string {
	return theme.CaptionStyle.Width(max(width, 0)).Render(" " + text)
}
