package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/theirongolddev/salescast/internal/model"
)

// Merged table columns.
const (
	ColSARIMAForecast model.Column = "SARIMA Forecast"
	ColSARIMALower    model.Column = "SARIMA Lower"
	ColSARIMAUpper    model.Column = "SARIMA Upper"
	ColHWForecast     model.Column = "Holt-Winters Forecast"
)

// Outcome is the result of running one model. Exactly one of Forecast and
// Err is set.
type Outcome struct {
	Kind     Kind
	Name     string
	Forecast *Forecast
	Err      error
}

// Run forecasts periods months with every model. Each model runs in
// isolation: an error or panic in one is recorded on its Outcome and the
// others still run. Models implementing IntervalForecaster are asked for an
// interval at confidence.
func Run(models []Model, periods int, confidence float64) []Outcome {
	out := make([]Outcome, 0, len(models))
	for _, m := range models {
		if m == nil {
			continue
		}
		out = append(out, runOne(m, periods, confidence))
	}
	return out
}

func runOne(m Model, periods int, confidence float64) (o Outcome) {
	o = Outcome{Kind: m.Kind(), Name: m.Name()}
	defer func() {
		if r := recover(); r != nil {
			o.Forecast = nil
			o.Err = fmt.Errorf("%w: %s: %v", model.ErrForecast, o.Name, r)
		}
	}()

	var (
		f   *Forecast
		err error
	)
	if iv, ok := m.(IntervalForecaster); ok {
		f, err = iv.ForecastInterval(periods, confidence)
	} else {
		f, err = m.Forecast(periods)
	}
	if err != nil {
		o.Err = fmt.Errorf("%w: %s: %w", model.ErrForecast, o.Name, err)
		return o
	}
	o.Forecast = f
	return o
}

// Combined is the month-keyed merge of successful forecasts, rounded to
// integers.
type Combined struct {
	Columns []model.Column
	Rows    []model.ForecastRow
	Errors  []error
}

// Empty reports whether no model produced a forecast.
func (c *Combined) Empty() bool {
	return len(c.Rows) == 0
}

// Err joins the per-model errors, or returns nil.
func (c *Combined) Err() error {
	return errors.Join(c.Errors...)
}

// Merge joins outcomes on month. Columns of failed models are omitted.
// Values are rounded half to even.
func Merge(outcomes []Outcome) *Combined {
	c := &Combined{}
	rows := make(map[model.Month]map[model.Column]int64)

	put := func(m model.Month, col model.Column, v float64) {
		r, ok := rows[m]
		if !ok {
			r = make(map[model.Column]int64)
			rows[m] = r
		}
		r[col] = Round(v)
	}

	for _, o := range outcomes {
		if o.Err != nil {
			c.Errors = append(c.Errors, o.Err)
			continue
		}
		if o.Forecast == nil {
			continue
		}
		cols := Columns(o.Kind)
		if len(o.Forecast.Points) > 0 && o.Forecast.Points[0].Lower == nil {
			cols = cols[:1]
		}
		c.Columns = append(c.Columns, cols...)
		for _, p := range o.Forecast.Points {
			put(p.Month, cols[0], p.Mean)
			if len(cols) == 3 && p.Lower != nil && p.Upper != nil {
				put(p.Month, cols[1], *p.Lower)
				put(p.Month, cols[2], *p.Upper)
			}
		}
	}

	months := make([]model.Month, 0, len(rows))
	for m := range rows {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	for _, m := range months {
		c.Rows = append(c.Rows, model.ForecastRow{Month: m, Values: rows[m]})
	}
	return c
}

// Columns returns the merged table columns a model kind contributes.
func Columns(k Kind) []model.Column {
	switch k {
	case KindSARIMA:
		return []model.Column{ColSARIMAForecast, ColSARIMALower, ColSARIMAUpper}
	case KindHoltWinters:
		return []model.Column{ColHWForecast}
	default:
		return []model.Column{model.Column(string(k) + " Forecast")}
	}
}

// Round rounds half to even and converts to int64.
func Round(v float64) int64 {
	return int64(math.RoundToEven(v))
}
