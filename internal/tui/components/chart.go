package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		buf.WriteRune(blocks[max(0, min(len(blocks)-1, idx))])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// BarChart renders vertical bars with a y-axis and sparse x labels. Falls back
// to a sparkline when the area is too small.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	step, ceiling := niceScale(0, peak, max(2, height/2))
	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	chartW := max(5, width-yLabelW-1)

	n := len(values)
	barW := 1
	gap := 0
	if n > 0 && chartW/n >= 3 {
		barW = min(6, chartW/n-1)
		gap = 1
	}
	if n*(barW+gap) > chartW {
		// Keep the most recent values that fit.
		keep := chartW / (barW + gap)
		values = values[n-keep:]
		if len(labels) == n {
			labels = labels[n-keep:]
		}
		n = keep
	}

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := ceiling * float64(row) / float64(height)
		bottom := ceiling * float64(row-1) / float64(height)

		label := ""
		if tick := ceiling * float64(row) / float64(height); isTick(tick, step, ceiling/float64(height)) {
			label = formatChartLabel(tick)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		var line strings.Builder
		for i, v := range values {
			if i > 0 && gap > 0 {
				line.WriteString(" ")
			}
			switch {
			case v >= top:
				line.WriteString(strings.Repeat("█", barW))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * float64(len(blocks)))
				line.WriteString(strings.Repeat(string(blocks[max(0, min(len(blocks)-1, idx))]), barW))
			default:
				line.WriteString(strings.Repeat(" ", barW))
			}
		}
		b.WriteString(bar.Render(line.String()))
		b.WriteString("\n")
	}

	axisLen := n*(barW+gap) - gap
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", max(0, axisLen)))))
	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axis.Render(placeLabels(labels, barW+gap, axisLen)))
	}
	return b.String()
}

// Series is one line in a LineChart. NaN values are gaps.
type Series struct {
	Name   string
	Values []float64
	Color  lipgloss.Color
	Point  rune // glyph at data points
	Line   rune // glyph connecting points
}

// Band is a shaded range drawn behind the lines.
type Band struct {
	Name  string
	Lower []float64
	Upper []float64
	Color lipgloss.Color
}

type cell struct {
	ch    rune
	color lipgloss.Color
}

// LineChart plots series against a shared x index (one slot per label) with
// an optional band. width and height cover the plot area and axes; the legend
// is returned separately by Legend.
func LineChart(series []Series, band *Band, labels []string, width, height int) string {
	n := len(labels)
	for _, s := range series {
		n = max(n, len(s.Values))
	}
	if n == 0 || height < 3 || width < 15 {
		return ""
	}
	t := theme.Active

	lo, hi := math.Inf(1), math.Inf(-1)
	observe := func(v float64) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	for _, s := range series {
		for _, v := range s.Values {
			observe(v)
		}
	}
	if band != nil {
		for i := range band.Lower {
			observe(band.Lower[i])
			if i < len(band.Upper) {
				observe(band.Upper[i])
			}
		}
	}
	if math.IsInf(lo, 1) {
		return ""
	}
	lo = min(lo, 0)
	step, ceiling := niceScale(lo, hi, 4)
	floor := math.Floor(lo/step) * step
	span := ceiling - floor
	if span <= 0 {
		span = 1
	}

	yLabelW := max(len(formatChartLabel(ceiling)), len(formatChartLabel(floor))) + 1
	plotW := max(2, width-yLabelW-1)
	plotH := height - 1
	if len(labels) > 0 {
		plotH--
	}
	plotH = max(2, plotH)

	grid := make([][]cell, plotH)
	for r := range grid {
		grid[r] = make([]cell, plotW)
	}
	colOf := func(i int) int {
		if n == 1 {
			return 0
		}
		return i * (plotW - 1) / (n - 1)
	}
	rowOf := func(v float64) int {
		r := int(math.Round((ceiling - v) / span * float64(plotH-1)))
		return max(0, min(plotH-1, r))
	}
	set := func(r, c int, ch rune, color lipgloss.Color) {
		if r >= 0 && r < plotH && c >= 0 && c < plotW {
			grid[r][c] = cell{ch: ch, color: color}
		}
	}

	if band != nil {
		for i := 0; i+1 < len(band.Lower) && i+1 < len(band.Upper); i++ {
			if anyNaN(band.Lower[i], band.Upper[i], band.Lower[i+1], band.Upper[i+1]) {
				continue
			}
			c0, c1 := colOf(i), colOf(i+1)
			for c := c0; c <= c1; c++ {
				f := 0.0
				if c1 > c0 {
					f = float64(c-c0) / float64(c1-c0)
				}
				low := band.Lower[i] + f*(band.Lower[i+1]-band.Lower[i])
				up := band.Upper[i] + f*(band.Upper[i+1]-band.Upper[i])
				for r := rowOf(up); r <= rowOf(low); r++ {
					set(r, c, '░', band.Color)
				}
			}
		}
		if len(band.Lower) == 1 && len(band.Upper) == 1 && !anyNaN(band.Lower[0], band.Upper[0]) {
			for r := rowOf(band.Upper[0]); r <= rowOf(band.Lower[0]); r++ {
				set(r, colOf(0), '░', band.Color)
			}
		}
	}

	for _, s := range series {
		prev := -1
		for i, v := range s.Values {
			if math.IsNaN(v) {
				prev = -1
				continue
			}
			if prev >= 0 {
				drawSegment(set, colOf(prev), rowOf(s.Values[prev]), colOf(i), rowOf(v), s.Line, s.Color)
			}
			prev = i
		}
		for i, v := range s.Values {
			if !math.IsNaN(v) {
				set(rowOf(v), colOf(i), s.Point, s.Color)
			}
		}
	}

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	var b strings.Builder
	tickRows := map[int]string{}
	for v := floor; v <= ceiling+step/2; v += step {
		tickRows[rowOf(v)] = formatChartLabel(v)
	}
	for r := 0; r < plotH; r++ {
		b.WriteString(axis.Render(fmt.Sprintf("%*s┤", yLabelW, tickRows[r])))
		b.WriteString(renderCells(grid[r]))
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(strings.Repeat(" ", yLabelW) + "└" + strings.Repeat("─", plotW)))

	if len(labels) > 0 {
		slot := 1
		if n > 1 {
			slot = max(1, (plotW-1)/(n-1))
		}
		b.WriteString("\n")
		b.WriteString(axis.Render(strings.Repeat(" ", yLabelW+1) + placeLabels(labels, slot, plotW)))
	}
	return b.String()
}

// drawSegment connects two grid points with glyph, stepping along the longer axis.
func drawSegment(set func(r, c int, ch rune, color lipgloss.Color), c0, r0, c1, r1 int, glyph rune, color lipgloss.Color) {
	steps := max(abs(c1-c0), abs(r1-r0))
	if steps == 0 {
		set(r0, c0, glyph, color)
		return
	}
	for k := 0; k <= steps; k++ {
		f := float64(k) / float64(steps)
		c := c0 + int(math.Round(f*float64(c1-c0)))
		r := r0 + int(math.Round(f*float64(r1-r0)))
		set(r, c, glyph, color)
	}
}

// renderCells renders a grid row, batching runs of the same colour.
func renderCells(row []cell) string {
	t := theme.Active
	var b, run strings.Builder
	var runColor lipgloss.Color
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := lipgloss.NewStyle().Background(t.Surface)
		if runColor != "" {
			style = style.Foreground(runColor)
		}
		b.WriteString(style.Render(run.String()))
		run.Reset()
	}
	for _, c := range row {
		ch := c.ch
		if ch == 0 {
			ch = ' '
		}
		if c.color != runColor {
			flush()
			runColor = c.color
		}
		run.WriteRune(ch)
	}
	flush()
	return b.String()
}

// Legend renders a one-line key for series and an optional band.
func Legend(series []Series, band *Band) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	gap := lipgloss.NewStyle().Background(t.Surface).Render("   ")

	parts := make([]string, 0, len(series)+1)
	for _, s := range series {
		glyph := lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).
			Render(string([]rune{s.Line, s.Point, s.Line}))
		parts = append(parts, glyph+text.Render(" "+s.Name))
	}
	if band != nil {
		glyph := lipgloss.NewStyle().Foreground(band.Color).Background(t.Surface).Render("░░░")
		parts = append(parts, glyph+text.Render(" "+band.Name))
	}
	return strings.Join(parts, gap)
}

// placeLabels lays labels out at multiples of slot, skipping any that would
// overlap the previous one.
func placeLabels(labels []string, slot, width int) string {
	buf := []rune(strings.Repeat(" ", width))
	lastEnd := -1
	for i, lbl := range labels {
		pos := i * slot
		r := []rune(lbl)
		if pos <= lastEnd || pos+len(r) > width {
			continue
		}
		copy(buf[pos:], r)
		lastEnd = pos + len(r)
	}
	return strings.TrimRight(string(buf), " ")
}

// niceScale picks a round tick step for [lo, hi] aiming at about ticks
// intervals and returns it with the rounded-up ceiling.
func niceScale(lo, hi float64, ticks int) (step, ceiling float64) {
	span := hi - lo
	if span <= 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	rough := span / float64(max(1, ticks))
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		step = base
	case frac < 3.5:
		step = 2 * base
	default:
		step = 5 * base
	}
	ceiling = math.Ceil(hi/step) * step
	if ceiling <= lo {
		ceiling = lo + step
	}
	return step, ceiling
}

func isTick(v, step, tolerance float64) bool {
	k := math.Round(v / step)
	return math.Abs(v-k*step) < tolerance/2
}

func formatChartLabel(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case a >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	case a >= 1 || a == 0:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
