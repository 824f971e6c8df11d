package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const overviewIntro = "Monthly sales analysis and forecasting. The Analysis page compares " +
	"how well each model fits the sales history; the Forecast page projects " +
	"demand one to twelve months ahead."

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	// Row 1: about + files in use
	intro := a.renderIntroCard
	files := a.renderFilesCard
	if a.isCompactLayout() {
		b.WriteString(intro(cw))
		b.WriteString("\n")
		b.WriteString(files(cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{intro(halves[0]), files(halves[1])}))
	}
	b.WriteString("\n")

	if a.data == nil || a.data.Summary.Empty() {
		msg := "No transactions loaded. Check the transaction file path with `salescast config` " +
			"or run `salescast setup`."
		if a.dataErr != nil {
			msg = a.dataErr.Error()
		}
		b.WriteString(components.WarningCard("No sales data", msg, cw))
		return b.String()
	}

	// Row 2: headline stats
	sum := a.data.Summary
	st := a.stats
	b.WriteString(components.MetricCardRow([]components.Stat{
		{Label: "Transactions", Value: cli.FormatNumber(int64(sum.Records))},
		{Label: "Units Sold", Value: cli.FormatQty(sum.TotalQty)},
		{Label: "Months", Value: cli.FormatNumber(int64(st.Months)), Note: cli.FormatPeriod(sum.FirstDate, sum.LastDate)},
		{Label: "Mean / Month", Value: cli.FormatQty(st.Mean)},
		{Label: "Peak Month", Value: cli.FormatQty(st.Peak.Qty), Note: st.Peak.Month.String()},
	}, cw))
	b.WriteString("\n")

	// Row 3: monthly sales chart
	monthly := a.data.Monthly
	if len(monthly) > 0 {
		vals := make([]float64, len(monthly))
		labels := make([]string, len(monthly))
		for i, m := range monthly {
			vals[i] = m.Qty
			labels[i] = fmt.Sprintf("%02d", int(m.Month.Month))
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		b.WriteString(components.ContentCard(
			"Monthly Sales",
			components.BarChart(vals, labels, t.Accent, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 4: busiest days
	if len(st.BusiestDays) > 0 {
		b.WriteString(a.renderBusiestDaysCard(cw))
	}

	return b.String()
}

func (a App) renderIntroCard(w int) string {
	t := theme.Active
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).
		Width(components.CardInnerWidth(w))
	nameStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var body strings.Builder
	body.WriteString(textStyle.Render(overviewIntro))
	body.WriteString("\n\n")
	body.WriteString(nameStyle.Render("SARIMA"))
	body.WriteString(descStyle.Render("        seasonal ARIMA with prediction intervals"))
	body.WriteString("\n")
	body.WriteString(nameStyle.Render("Holt-Winters"))
	body.WriteString(descStyle.Render("  exponential smoothing with trend and season"))

	return components.ContentCard("Sales Forecasting Dashboard", body.String(), w)
}

func (a App) renderFilesCard(w int) string {
	t := theme.Active
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	badStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pathStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	innerW := components.CardInnerWidth(w)
	rows := []struct {
		label, path string
		err         error
	}{
		{"Transactions", a.opts.Sources.Data, a.dataErr},
		{"SARIMA", a.opts.Sources.SARIMA, a.sarimaErr},
		{"Holt-Winters", a.opts.Sources.HoltWinters, a.hwErr},
	}

	var body strings.Builder
	for i, r := range rows {
		if i > 0 {
			body.WriteString("\n")
		}
		mark := okStyle.Render("✓ ")
		if r.err != nil {
			mark = badStyle.Render("✗ ")
		}
		body.WriteString(mark)
		body.WriteString(labelStyle.Render(fmt.Sprintf("%-13s", r.label)))
		body.WriteString(pathStyle.Render(truncStr(r.path, innerW-15)))
		if r.err != nil {
			body.WriteString("\n")
			body.WriteString(errStyle.Render("  " + truncStr(r.err.Error(), innerW-2)))
		}
	}
	if a.data != nil {
		body.WriteString("\n\n")
		src := "parsed"
		if a.data.CacheHit {
			src = "from cache"
		}
		body.WriteString(errStyle.Render(fmt.Sprintf("Loaded in %.2fs (%s)", a.loadTime.Seconds(), src)))
	}

	return components.ContentCard("Files in Use", body.String(), w)
}

func (a App) renderBusiestDaysCard(cw int) string {
	t := theme.Active
	st := a.stats
	dayStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	peak := st.BusiestDays[0].Qty
	barMax := max(10, innerW-30)

	var body strings.Builder
	for i, d := range st.BusiestDays {
		if i > 0 {
			body.WriteString("\n")
		}
		label := d.Date.Format("2006-01-02") + " " + cli.FormatDayOfWeek(d.Date.Weekday())
		body.WriteString(dayStyle.Render(label + "  "))
		barLen := 0
		if peak > 0 {
			barLen = int(d.Qty / peak * float64(barMax))
		}
		body.WriteString(barStyle.Render(strings.Repeat("█", barLen)))
		body.WriteString(dimStyle.Render(" " + cli.FormatQty(d.Qty)))
	}
	body.WriteString("\n")
	body.WriteString(dimStyle.Render(fmt.Sprintf("%s days without sales", cli.FormatNumber(int64(st.ZeroDays)))))

	return components.ContentCard("Busiest Days", body.String(), cw)
}
