package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// analysisMissing lists what the analysis page needs but does not have.
func (a App) analysisMissing() []string {
	var missing []string
	if a.data == nil || len(a.data.Monthly) == 0 {
		missing = append(missing, "monthly sales series")
	}
	if a.sarima == nil {
		missing = append(missing, "SARIMA model")
	}
	if a.hw == nil {
		missing = append(missing, "Holt-Winters model")
	}
	return missing
}

func (a App) renderAnalysisTab(cw int) string {
	if missing := a.analysisMissing(); len(missing) > 0 {
		var body strings.Builder
		body.WriteString("Model analysis needs the sales data and both models. Missing: ")
		body.WriteString(strings.Join(missing, ", "))
		body.WriteString(".")
		for _, err := range []error{a.dataErr, a.sarimaErr, a.hwErr} {
			if err != nil {
				body.WriteString("\n")
				body.WriteString(err.Error())
			}
		}
		return components.WarningCard("Data or models unavailable", body.String(), cw)
	}

	var b strings.Builder

	// Row 1: one card per model
	models := []forecast.Model{a.sarima, a.hw}
	if a.isCompactLayout() {
		for _, m := range models {
			b.WriteString(renderModelCard(m, cw))
			b.WriteString("\n")
		}
	} else {
		widths := components.LayoutRow(cw, len(models))
		cards := make([]string, len(models))
		for i, m := range models {
			cards[i] = renderModelCard(m, widths[i])
		}
		b.WriteString(components.CardRow(cards))
		b.WriteString("\n")
	}

	// Row 2: actual vs fitted
	b.WriteString(a.renderFitChart(cw))
	return b.String()
}

func renderModelCard(m forecast.Model, w int) string {
	t := theme.Active
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	naStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	metrics := m.Metrics()
	labelW := 0
	for _, mt := range metrics {
		labelW = max(labelW, lipgloss.Width(mt.Label))
	}

	var body strings.Builder
	body.WriteString(descStyle.Render(m.Describe()))
	body.WriteString("\n")
	for _, mt := range metrics {
		body.WriteString("\n")
		body.WriteString(labelStyle.Render(fmt.Sprintf("%-*s  ", labelW, mt.Label)))
		v := cli.FormatMetric(mt.Value, mt.Available)
		if mt.Available {
			body.WriteString(valueStyle.Render(v))
		} else {
			body.WriteString(naStyle.Render(v))
		}
	}

	return components.ContentCard(m.Name(), body.String(), w)
}

// seriesStyle returns the chart colour and glyphs for a model kind.
func seriesStyle(k forecast.Kind) (color lipgloss.Color, point, line rune) {
	t := theme.Active
	switch k {
	case forecast.KindSARIMA:
		return t.SARIMALine, '◆', '╌'
	case forecast.KindHoltWinters:
		return t.HWLine, '▲', '┄'
	default:
		return t.Accent, '■', '·'
	}
}

func actualSeries(values []float64) components.Series {
	return components.Series{
		Name:   "Actual",
		Values: values,
		Color:  theme.Active.Actual,
		Point:  '●',
		Line:   '•',
	}
}

func (a App) renderFitChart(cw int) string {
	actual := actualValues(a.data.Monthly)
	models := []forecast.Model{a.sarima, a.hw}

	fitted := make([][]model.MonthlyValue, len(models))
	for i, m := range models {
		fitted[i] = m.Fitted()
	}
	start, n := monthAxis(append([][]model.MonthlyValue{actual}, fitted...)...)

	series := []components.Series{actualSeries(onAxis(start, n, actual))}
	for i, m := range models {
		color, point, line := seriesStyle(m.Kind())
		series = append(series, components.Series{
			Name:   m.Name() + " fitted",
			Values: onAxis(start, n, fitted[i]),
			Color:  color,
			Point:  point,
			Line:   line,
		})
	}

	chartH := 14
	if a.isCompactLayout() {
		chartH = 10
	}
	innerW := components.CardInnerWidth(cw)
	body := components.LineChart(series, nil, monthLabels(start, n), innerW, chartH) +
		"\n" + components.Legend(series, nil)

	return components.ContentCard("Actual vs Fitted", body, cw)
}
