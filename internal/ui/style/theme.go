package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme holds the palette and the prebuilt styles of the UI.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Success   lipgloss.Color

	BgDark   lipgloss.Color
	BgMedium lipgloss.Color
	BgLight  lipgloss.Color

	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	// Size bars blend from GradientStart (small share) to GradientEnd.
	GradientStart lipgloss.Color
	GradientEnd   lipgloss.Color

	HeaderStyle      lipgloss.Style
	CaptionStyle     lipgloss.Style
	TabActiveStyle   lipgloss.Style
	TabInactiveStyle lipgloss.Style
	StatusBarStyle   lipgloss.Style
	FilterActive     lipgloss.Style
	FilterInactive   lipgloss.Style

	SelectedRow     lipgloss.Style
	CursorIndicator lipgloss.Style
	DirName         lipgloss.Style
	FileName        lipgloss.Style
	PercentText     lipgloss.Style
	ErrorText       lipgloss.Style

	ModalStyle   lipgloss.Style
	ModalTitle   lipgloss.Style
	SpinnerStyle lipgloss.Style
}

// DefaultTheme returns the dark theme.
func DefaultTheme() Theme {
	t := Theme{
		Primary:   "#3B82F6",
		Secondary: "#14B8A6",
		Accent:    "#38BDF8",
		Muted:     "#64748B",
		Error:     "#F43F5E",
		Warning:   "#F59E0B",
		Success:   "#22C55E",

		BgDark:   "#0F172A",
		BgMedium: "#1E293B",
		BgLight:  "#334155",

		TextPrimary:   "#E2E8F0",
		TextSecondary: "#CBD5E1",
		TextMuted:     "#94A3B8",

		GradientStart: "#14B8A6",
		GradientEnd:   "#F43F5E",
	}

	bar := lipgloss.NewStyle().Background(t.BgMedium)
	chip := lipgloss.NewStyle().Padding(0, 1)

	// Spacing inside the header is laid out by the renderer.
	t.HeaderStyle = bar.Bold(true).Foreground(t.TextPrimary)
	t.StatusBarStyle = bar.Foreground(t.TextSecondary)
	t.CaptionStyle = lipgloss.NewStyle().Foreground(t.TextMuted).Italic(true)

	t.TabActiveStyle = chip.Bold(true).Foreground(t.TextPrimary).Background(t.Primary)
	t.TabInactiveStyle = chip.Foreground(t.TextMuted)
	t.FilterActive = chip.Bold(true).Foreground(t.BgDark).Background(t.Secondary)
	t.FilterInactive = chip.Foreground(t.TextSecondary).Background(t.BgLight)

	t.SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(t.BgLight)
	t.CursorIndicator = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.DirName = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.FileName = lipgloss.NewStyle().Foreground(t.TextSecondary)
	t.PercentText = lipgloss.NewStyle().Foreground(t.TextMuted).Width(6).Align(lipgloss.Right)
	t.ErrorText = lipgloss.NewStyle().Foreground(t.Error)

	t.ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Background(t.BgMedium).
		Padding(1, 2)
	t.ModalTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary).MarginBottom(1)
	t.SpinnerStyle = lipgloss.NewStyle().Foreground(t.Secondary)

	return t
}

// GradientColor returns the gradient colour at ratio, clamped to [0, 1].
func (t Theme) GradientColor(ratio float64) lipgloss.Color {
	switch {
	case ratio <= 0:
		return t.GradientStart
	case ratio >= 1:
		return t.GradientEnd
	}
	from, to := t.gradient()
	return lipgloss.Color(from.BlendLab(to, ratio).Hex())
}

// BarGradient renders a bar of width cells with ratio of them filled. The
// filled part shades along the gradient, cell by cell.
func (t Theme) BarGradient(width int, ratio float64) string {
	if width <= 0 {
		return ""
	}
	filled := min(max(int(ratio*float64(width)), 0), width)
	from, to := t.gradient()
	step := 1 / float64(max(width-1, 1))

	var b strings.Builder
	for i := range filled {
		c := from.BlendLab(to, float64(i)*step)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("━"))
	}
	if rest := width - filled; rest > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Muted).Render(strings.Repeat("─", rest)))
	}
	return b.String()
}

func (t Theme) gradient() (from, to colorful.Color) {
	from, _ = colorful.Hex(string(t.GradientStart))
	to, _ = colorful.Hex(string(t.GradientEnd))
	return from, to
}
