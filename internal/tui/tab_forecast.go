package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func (a App) renderForecastTab(cw int) string {
	var b strings.Builder

	b.WriteString(a.renderHorizonCard(cw))
	b.WriteString("\n")

	if len(a.models()) == 0 {
		b.WriteString(components.WarningCard("No models loaded",
			"Forecasting needs at least one model artifact. Check the model paths on the Overview page.", cw))
		b.WriteString("\n")
		b.WriteString(a.renderNotebookNote(cw))
		return b.String()
	}

	if res := a.fc.result; res != nil {
		for _, err := range res.Combined.Errors {
			b.WriteString(components.WarningCard("Forecast failed", err.Error(), cw))
			b.WriteString("\n")
		}
		if !res.Combined.Empty() {
			b.WriteString(components.ContentCard(
				fmt.Sprintf("Forecast · next %d months", res.Periods),
				renderForecastTable(res.Combined, components.CardInnerWidth(cw)),
				cw,
			))
			b.WriteString("\n")
			b.WriteString(a.renderForecastChart(res, cw))
			b.WriteString("\n")
		}
	}

	b.WriteString(a.renderNotebookNote(cw))
	return b.String()
}

func (a App) renderHorizonCard(cw int) string {
	t := theme.Active
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	statusStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	barW := min(48, components.CardInnerWidth(cw)-30)
	var body strings.Builder
	body.WriteString(components.HorizonSlider("Months to forecast", a.fc.periods,
		forecast.MinPeriods, forecast.MaxPeriods, barW, true))
	body.WriteString("\n")

	switch res := a.fc.result; {
	case a.fc.running:
		body.WriteString(statusStyle.Render("Running forecast..."))
	case res == nil:
		body.WriteString(hintStyle.Render("Press Enter to run the forecast · h/l to change the horizon"))
	case res.Periods != a.fc.periods:
		body.WriteString(hintStyle.Render(fmt.Sprintf(
			"Showing the %d-month run · press Enter to forecast %d months", res.Periods, a.fc.periods)))
	default:
		body.WriteString(hintStyle.Render(fmt.Sprintf(
			"%d%% interval for SARIMA · values rounded to whole units", int(math.Round(a.opts.Confidence*100)))))
	}

	return components.ContentCard("Forecast Horizon", body.String(), cw)
}

// renderForecastTable renders the merged forecast as a bordered table.
func renderForecastTable(c *forecast.Combined, width int) string {
	t := theme.Active

	headers := []string{"Month"}
	for _, col := range c.Columns {
		headers = append(headers, string(col))
	}
	rows := make([][]string, len(c.Rows))
	for i, r := range c.Rows {
		row := []string{r.Month.String()}
		for _, col := range c.Columns {
			if v, ok := r.Values[col]; ok {
				row = append(row, cli.FormatNumber(v))
			} else {
				row = append(row, "")
			}
		}
		rows[i] = row
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Padding(0, 1)
	boundStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = headerStyle
			case col > 0 && isBoundColumn(c.Columns[col-1]):
				s = boundStyle
			default:
				s = cellStyle
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	out := tbl.Render()
	if lipgloss.Width(out) > width {
		tbl = tbl.Width(width)
		out = tbl.Render()
	}
	return out
}

func isBoundColumn(col model.Column) bool {
	return col == forecast.ColSARIMALower || col == forecast.ColSARIMAUpper
}

func (a App) renderForecastChart(res *ForecastDoneMsg, cw int) string {
	t := theme.Active

	var history []model.MonthlyValue
	if a.data != nil {
		history = actualValues(a.data.Monthly)
	}
	var last *model.MonthlyValue
	if len(history) > 0 {
		last = &history[len(history)-1]
	}

	all := [][]model.MonthlyValue{history}
	type projected struct {
		kind  forecast.Kind
		name  string
		mean  []model.MonthlyValue
		lower []model.MonthlyValue
		upper []model.MonthlyValue
	}
	var lines []projected
	for _, o := range res.Outcomes {
		if o.Forecast == nil {
			continue
		}
		p := projected{kind: o.Kind, name: o.Name}
		// Anchor each projection on the last observed month so lines connect.
		if last != nil {
			p.mean = append(p.mean, *last)
		}
		for _, pt := range o.Forecast.Points {
			p.mean = append(p.mean, model.MonthlyValue{Month: pt.Month, Value: pt.Mean})
			if pt.Lower != nil && pt.Upper != nil {
				p.lower = append(p.lower, model.MonthlyValue{Month: pt.Month, Value: *pt.Lower})
				p.upper = append(p.upper, model.MonthlyValue{Month: pt.Month, Value: *pt.Upper})
			}
		}
		if len(p.lower) > 0 && last != nil {
			p.lower = append([]model.MonthlyValue{*last}, p.lower...)
			p.upper = append([]model.MonthlyValue{*last}, p.upper...)
		}
		lines = append(lines, p)
		all = append(all, p.mean)
	}

	start, n := monthAxis(all...)
	series := []components.Series{actualSeries(onAxis(start, n, history))}
	var band *components.Band
	for _, p := range lines {
		color, point, line := seriesStyle(p.kind)
		series = append(series, components.Series{
			Name:   p.name,
			Values: onAxis(start, n, p.mean),
			Color:  color,
			Point:  point,
			Line:   line,
		})
		if band == nil && len(p.lower) > 0 {
			band = &components.Band{
				Name:  fmt.Sprintf("%s %d%% interval", p.name, int(math.Round(a.opts.Confidence*100))),
				Lower: onAxis(start, n, p.lower),
				Upper: onAxis(start, n, p.upper),
				Color: t.BandFill,
			}
		}
	}

	chartH := 14
	if a.isCompactLayout() {
		chartH = 10
	}
	body := components.LineChart(series, band, monthLabels(start, n), components.CardInnerWidth(cw), chartH) +
		"\n" + components.Legend(series, band)
	return components.ContentCard("History and Forecast", body, cw)
}

func (a App) renderNotebookNote(cw int) string {
	if a.opts.NotebookURL == "" {
		return ""
	}
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	link := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Underline(true)
	return components.ContentCard("Model Training",
		style.Render("The models were trained in a separate notebook: ")+link.Render(a.opts.NotebookURL), cw)
}
