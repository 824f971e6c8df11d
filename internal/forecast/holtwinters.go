package forecast

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/model"
)

// Component methods for trend and seasonality.
const (
	MethodAdditive       = "add"
	MethodMultiplicative = "mul"
	MethodNone           = "none"
)

// HoltWinters is triple exponential smoothing with fixed smoothing
// parameters and initial state.
type HoltWinters struct {
	Trend    string
	Seasonal string
	Period   int
	Alpha    float64
	Beta     float64
	Gamma    float64
	Start    model.Month

	observed []float64
	metrics  []Metric
	fitted   []model.MonthlyValue

	// state after the last observation
	level   float64
	slope   float64
	seasons []float64
}

// Kind identifies the model family.
func (m *HoltWinters) Kind() Kind { return KindHoltWinters }

// Name is the display name.
func (m *HoltWinters) Name() string { return "Holt-Winters" }

// Describe names the seasonal and trend methods.
func (m *HoltWinters) Describe() string {
	if m.Seasonal == MethodNone {
		return fmt.Sprintf("Seasonal method: none, trend: %s", methodName(m.Trend))
	}
	return fmt.Sprintf("Seasonal method: %s (period %d), trend: %s",
		methodName(m.Seasonal), m.Period, methodName(m.Trend))
}

// Metrics returns the fit statistics stored with the artifact.
func (m *HoltWinters) Metrics() []Metric {
	out := make([]Metric, len(m.metrics))
	copy(out, m.metrics)
	return out
}

// Observed returns the training series.
func (m *HoltWinters) Observed() []model.MonthlyValue {
	return monthlyValues(m.Start, m.observed, 0)
}

// Fitted returns the in-sample smoothed values.
func (m *HoltWinters) Fitted() []model.MonthlyValue {
	out := make([]model.MonthlyValue, len(m.fitted))
	copy(out, m.fitted)
	return out
}

// smooth runs the recursions over the observed series from the initial
// state. It returns the one-step-ahead predictions.
func (m *HoltWinters) smooth(level, slope float64, initSeasons []float64) []float64 {
	l, b := level, slope
	if m.Trend == MethodNone {
		b = 0
	}
	s := make([]float64, len(initSeasons))
	copy(s, initSeasons)

	preds := make([]float64, len(m.observed))
	for t, y := range m.observed {
		season := m.neutralSeason()
		idx := 0
		if len(s) > 0 {
			idx = t % len(s)
			season = s[idx]
		}
		base := l + b
		preds[t] = m.combine(base, season)

		prevL := l
		switch m.Seasonal {
		case MethodAdditive:
			l = m.Alpha*(y-season) + (1-m.Alpha)*base
		case MethodMultiplicative:
			l = m.Alpha*(y/season) + (1-m.Alpha)*base
		default:
			l = m.Alpha*y + (1-m.Alpha)*base
		}
		if m.Trend == MethodAdditive {
			b = m.Beta*(l-prevL) + (1-m.Beta)*b
		}
		switch m.Seasonal {
		case MethodAdditive:
			s[idx] = m.Gamma*(y-base) + (1-m.Gamma)*season
		case MethodMultiplicative:
			s[idx] = m.Gamma*(y/base) + (1-m.Gamma)*season
		}
	}

	m.level, m.slope, m.seasons = l, b, s
	return preds
}

func (m *HoltWinters) neutralSeason() float64 {
	if m.Seasonal == MethodMultiplicative {
		return 1
	}
	return 0
}

func (m *HoltWinters) combine(base, season float64) float64 {
	if m.Seasonal == MethodMultiplicative {
		return base * season
	}
	return base + season
}

// Forecast extrapolates the final state: level + h*slope combined with the
// seasonal factor of the matching month.
func (m *HoltWinters) Forecast(steps int) (*Forecast, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	n := len(m.observed)
	means := make([]float64, steps)
	for h := 1; h <= steps; h++ {
		season := m.neutralSeason()
		if len(m.seasons) > 0 {
			season = m.seasons[(n+h-1)%len(m.seasons)]
		}
		means[h-1] = m.combine(m.level+float64(h)*m.slope, season)
	}
	if err := checkFinite(means); err != nil {
		return nil, err
	}

	first := m.Start.AddMonths(n)
	f := &Forecast{Model: KindHoltWinters, Name: m.Name(), Points: make([]Point, steps)}
	for i, v := range means {
		f.Points[i] = Point{Month: first.AddMonths(i), Mean: v}
	}
	return f, nil
}

// inSampleSSE is the sum of squared one-step errors over the fitted months.
func (m *HoltWinters) inSampleSSE() float64 {
	errs := make([]float64, 0, len(m.fitted))
	for _, f := range m.fitted {
		i := f.Month.Sub(m.Start)
		if i >= 0 && i < len(m.observed) {
			errs = append(errs, m.observed[i]-f.Value)
		}
	}
	return sumSquares(errs)
}

func methodName(method string) string {
	switch method {
	case MethodAdditive:
		return "additive"
	case MethodMultiplicative:
		return "multiplicative"
	default:
		return "none"
	}
}
