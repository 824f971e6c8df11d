package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// HorizonSlider renders an integer slider as "label  min ━━━━●──── max  value".
// Out-of-range values are clamped for display.
func HorizonSlider(label string, value, lo, hi, barWidth int, focused bool) string {
	t := theme.Active
	if hi <= lo {
		hi = lo + 1
	}
	value = max(lo, min(hi, value))
	pct := float64(value-lo) / float64(hi-lo)

	fill := t.Accent
	if focused {
		fill = t.AccentBright
	}
	bar := progress.New(
		progress.WithSolidFill(string(fill)),
		progress.WithWidth(max(4, barWidth)),
		progress.WithoutPercentage(),
		progress.WithFillCharacters('━', '─'),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	boundStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(fill).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	if label != "" {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(space.Render("  "))
	}
	b.WriteString(boundStyle.Render(fmt.Sprintf("%d ", lo)))
	b.WriteString(bar.ViewAs(pct))
	b.WriteString(boundStyle.Render(fmt.Sprintf(" %d", hi)))
	b.WriteString(space.Render("  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", value)))
	return b.String()
}
