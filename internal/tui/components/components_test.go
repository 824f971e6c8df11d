package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow_SumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{100, 3}, {81, 4}, {7, 7}, {120, 5}} {
		widths := LayoutRow(tc.total, tc.n)
		require.Len(t, widths, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		assert.Equal(t, tc.total, sum, "total=%d n=%d", tc.total, tc.n)
		assert.LessOrEqual(t, widths[0]-widths[tc.n-1], 1)
	}
	assert.Nil(t, LayoutRow(10, 0))
}

func TestCardRow_PadsShorterCards(t *testing.T) {
	tall := ContentCard("Tall", "one\ntwo\nthree", 20)
	short := ContentCard("Short", "one", 20)
	row := CardRow([]string{tall, short})

	lines := strings.Split(row, "\n")
	require.Len(t, lines, lipgloss.Height(tall))
	for i, line := range lines {
		assert.Equal(t, 40, lipgloss.Width(line), "line %d", i)
	}
}

func TestMetricCardRow_Width(t *testing.T) {
	row := MetricCardRow([]Stat{
		{Label: "Months", Value: "36"},
		{Label: "Total", Value: "12,345", Note: "units"},
		{Label: "Mean", Value: "343"},
	}, 90)
	for _, line := range strings.Split(row, "\n") {
		assert.Equal(t, 90, lipgloss.Width(line))
	}
	assert.Empty(t, MetricCardRow(nil, 90))
}

func TestTabWidths(t *testing.T) {
	for _, tab := range Tabs {
		assert.Equal(t, len(tab.Name)+2, TabVisualWidth(tab, true), tab.Name)
		assert.Equal(t, len(tab.Name)+4, TabVisualWidth(tab, false), tab.Name)
	}
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey("o"))
	assert.Equal(t, 1, TabIdxByKey("a"))
	assert.Equal(t, 2, TabIdxByKey("f"))
	assert.Equal(t, -1, TabIdxByKey("x"))
}

func TestRenderTabBar_FillsWidth(t *testing.T) {
	bar := RenderTabBar(1, 100)
	assert.Equal(t, 100, lipgloss.Width(bar))
	assert.Contains(t, bar, "Analysis")
}

func TestRenderStatusBar(t *testing.T) {
	bar := RenderStatusBar(80, "[q]uit", "120 transactions")
	assert.Equal(t, 80, lipgloss.Width(bar))
	assert.True(t, strings.HasSuffix(stripANSI(bar), "120 transactions "))

	bare := RenderStatusBar(40, "[q]uit", "")
	assert.Equal(t, 40, lipgloss.Width(bare))
}

func TestSparkline_Length(t *testing.T) {
	line := Sparkline([]float64{1, 5, 3, 0}, lipgloss.Color("#ffffff"))
	assert.Equal(t, 4, lipgloss.Width(line))
	assert.Empty(t, Sparkline(nil, lipgloss.Color("#ffffff")))
}

func TestBarChart_Dimensions(t *testing.T) {
	values := []float64{10, 40, 25, 80, 60, 5}
	labels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}
	chart := BarChart(values, labels, lipgloss.Color("#ffffff"), 60, 8)

	lines := strings.Split(chart, "\n")
	assert.Len(t, lines, 8+2)
	for _, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 60)
	}
}

func TestBarChart_FallsBackToSparkline(t *testing.T) {
	chart := BarChart([]float64{1, 2, 3}, nil, lipgloss.Color("#ffffff"), 10, 8)
	assert.Equal(t, 1, lipgloss.Height(chart))
}

func TestLineChart_Dimensions(t *testing.T) {
	nan := math.NaN()
	series := []Series{
		{Name: "Actual", Values: []float64{10, 12, 15, 11, nan, nan}, Point: '●', Line: '•'},
		{Name: "Forecast", Values: []float64{nan, nan, nan, 11, 14, 16}, Point: '◆', Line: '╌'},
	}
	band := &Band{
		Name:  "95% interval",
		Lower: []float64{nan, nan, nan, 11, 10, 9},
		Upper: []float64{nan, nan, nan, 11, 18, 23},
	}
	labels := []string{"01", "02", "03", "04", "05", "06"}

	chart := LineChart(series, band, labels, 50, 12)
	lines := strings.Split(chart, "\n")
	assert.Len(t, lines, 12)
	for _, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 50)
	}
	plain := stripANSI(chart)
	assert.Contains(t, plain, "●")
	assert.Contains(t, plain, "◆")
}

func TestLineChart_EmptyInputs(t *testing.T) {
	assert.Empty(t, LineChart(nil, nil, nil, 50, 10))
	nan := math.NaN()
	assert.Empty(t, LineChart([]Series{{Values: []float64{nan, nan}}}, nil, nil, 50, 10))
	assert.Empty(t, LineChart([]Series{{Values: []float64{1, 2}}}, nil, nil, 10, 10))
}

func TestLegend(t *testing.T) {
	legend := stripANSI(Legend([]Series{
		{Name: "Actual", Point: '●', Line: '•'},
		{Name: "SARIMA", Point: '◆', Line: '╌'},
	}, &Band{Name: "interval"}))
	assert.Contains(t, legend, "•●• Actual")
	assert.Contains(t, legend, "╌◆╌ SARIMA")
	assert.Contains(t, legend, "░░░ interval")
}

func TestNiceScale(t *testing.T) {
	step, ceiling := niceScale(0, 87, 4)
	assert.Equal(t, 20.0, step)
	assert.Equal(t, 100.0, ceiling)

	step, ceiling = niceScale(0, 0, 4)
	assert.Greater(t, step, 0.0)
	assert.Greater(t, ceiling, 0.0)
}

func TestFormatChartLabel(t *testing.T) {
	assert.Equal(t, "0", formatChartLabel(0))
	assert.Equal(t, "950", formatChartLabel(950))
	assert.Equal(t, "1.5k", formatChartLabel(1500))
	assert.Equal(t, "2k", formatChartLabel(2000))
	assert.Equal(t, "1.2M", formatChartLabel(1_200_000))
}

func TestHorizonSlider(t *testing.T) {
	plain := stripANSI(HorizonSlider("Months", 3, 1, 12, 24, false))
	assert.Contains(t, plain, "Months")
	assert.True(t, strings.HasSuffix(plain, "3"))

	clamped := stripANSI(HorizonSlider("", 40, 1, 12, 24, true))
	assert.True(t, strings.HasSuffix(clamped, "12"))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
