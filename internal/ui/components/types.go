package components

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/model"
	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// CategoryStats totals the listed extension groups of one category.
type CategoryStats struct {
	Category  model.FileCategory
	FileCount int
	TotalSize int64
}

// SummarizeCategories folds extension groups into per-category totals,
// largest first.
func SummarizeCategories(groups []model.ExtensionGroup) []CategoryStats {
	byCat := make(map[model.FileCategory]*CategoryStats)
	for _, g := range groups {
		st, ok := byCat[g.Category]
		if !ok {
			st = &CategoryStats{Category: g.Category}
			byCat[g.Category] = st
		}
		st.FileCount += len(g.Files)
		st.TotalSize += g.Size
	}
	out := make([]CategoryStats, 0, len(byCat))
	for _, st := range byCat {
		out = append(out, *st)
	}
	slices.SortStableFunc(out, func(a, b CategoryStats) int {
		if c := cmp.Compare(b.TotalSize, a.TotalSize); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// TypeLabel names an extension group; files without an extension are
// grouped as "(none)".
func TypeLabel(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return "." + ext
}

// RenderTypes renders extension groups as "ext | size | percent | N files"
// rows with a category-coloured bar, followed by a category summary.
func RenderTypes(theme style.Theme, groups []model.ExtensionGroup, total int64, cursor, offset, width, height int) string {
	if height <= 0 {
		return ""
	}
	if len(groups) == 0 {
		lines := []string{lipgloss.NewStyle().Foreground(theme.TextMuted).Render("  (no files found)")}
		for len(lines) < height {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	extW := 12
	sizeW := 11
	countW := 12
	barW := min(max(width-extW-sizeW-countW-16, 5), 30)

	var lines []string
	hdrStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.TextPrimary)
	lines = append(lines, hdrStyle.Render(fmt.Sprintf("  %-*s %*s %7s  %-*s %*s",
		extW, "Type", sizeW, "Size", "Share", barW, "", countW, "Files")))

	rows := height - 3
	end := min(offset+max(rows, 0), len(groups))
	for i := offset; i < end; i++ {
		g := groups[i]
		pct := util.Percent(g.Size, total)
		catColor := lipgloss.Color(model.CategoryColor(g.Category))

		ext := lipgloss.NewStyle().Foreground(catColor).Bold(true).Width(extW).
			Render(util.TruncateString(TypeLabel(g.Ext), extW))
		size := lipgloss.NewStyle().Foreground(theme.TextSecondary).Width(sizeW).Align(lipgloss.Right).
			Render(util.FormatSize(g.Size))
		share := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(fmt.Sprintf("%6.1f%%", pct))
		count := lipgloss.NewStyle().Foreground(theme.TextSecondary).Width(countW).Align(lipgloss.Right).
			Render(fmt.Sprintf("%s files", util.FormatCount(int64(len(g.Files)))))
		bar := renderCategoryBar(barW, pct/100, catColor, theme.TextMuted)

		indicator := "  "
		if i == cursor {
			indicator = theme.CursorIndicator.Render(" >")
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s  %s %s", indicator, ext, size, share, bar, count))
	}
	for len(lines) < height-2 {
		lines = append(lines, "")
	}

	sep := lipgloss.NewStyle().Foreground(theme.TextMuted).Render("  " + strings.Repeat("-", max(width-4, 0)))
	lines = append(lines, sep, renderCategorySummary(theme, SummarizeCategories(groups), width))

	if len(lines) > height {
		lines = lines[:height]
	}
	bg := lipgloss.NewStyle().Background(theme.BgDark).Width(max(width, 0))
	for i := range lines {
		lines[i] = bg.Render(lines[i])
	}
	return strings.Join(lines, "\n")
}

func renderCategorySummary(theme style.Theme, stats []CategoryStats, width int) string {
	parts := make([]string, 0, len(stats))
	for _, st := range stats {
		color := lipgloss.Color(model.CategoryColor(st.Category))
		parts = append(parts, lipgloss.NewStyle().Foreground(color).Render(
			fmt.Sprintf("%s %s", model.CategoryName(st.Category), util.FormatSize(st.TotalSize))))
	}
	line := "  " + strings.Join(parts, lipgloss.NewStyle().Foreground(theme.TextMuted).Render(" · "))
	if lipgloss.Width(line) > width && width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func renderCategoryBar(width int, ratio float64, color, dimColor lipgloss.Color) string {
	filled := min(max(int(ratio*float64(width)), 0), width)
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("=", filled)) +
		lipgloss.NewStyle().Foreground(dimColor).Render(strings.Repeat("-", width-filled))
}
