package components

import (
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single page in the tab bar.
type Tab struct {
	Name string
	Key  string
}

// Tabs defines the dashboard pages in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: "o"},
	{Name: "Analysis", Key: "a"},
	{Name: "Forecast", Key: "f"},
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active
	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	bracket := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	// Shortcut letters are the lowercase initials, so they render in place.
	return base.Render(" ") +
		bracket.Render("[") + key.Render(tab.Name[:1]) + bracket.Render("]") +
		base.Render(tab.Name[1:]+" ")
}

// TabVisualWidth returns the rendered width of a tab.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab bar with the given active index. Tabs are
// separated by a single-column divider.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	bar := ""
	for i, tab := range Tabs {
		if i > 0 {
			bar += sep
		}
		bar += renderTab(tab, i == activeIdx)
	}

	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
