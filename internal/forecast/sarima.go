package forecast

import (
	"fmt"
	"math"

	"github.com/theirongolddev/salescast/internal/model"
)

// Order is a SARIMA order (p, d, q) x (P, D, Q, m).
type Order struct {
	P  int `json:"p"`
	D  int `json:"d"`
	Q  int `json:"q"`
	SP int `json:"P"`
	SD int `json:"D"`
	SQ int `json:"Q"`
	M  int `json:"m"`
}

// String formats the order as "(p,d,q)x(P,D,Q,m)".
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)x(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// SARIMA is a seasonal ARIMA model with fixed coefficients. Residuals are
// recovered by running the conditional-sum-of-squares recursion over the
// differenced training series.
type SARIMA struct {
	Order     Order
	AR        []float64
	MA        []float64
	SAR       []float64
	SMA       []float64
	Intercept float64
	Sigma2    float64
	Start     model.Month

	confidence float64
	metrics    []Metric

	// levels[0] is the observed series, each following entry one more
	// differencing pass: d non-seasonal, then D seasonal.
	levels    [][]float64
	residuals []float64
	fitted    []model.MonthlyValue

	// arPoly and maPoly are the products of the non-seasonal and seasonal
	// polynomials, indexed by lag with a leading 1.
	arPoly []float64
	maPoly []float64
}

var _ IntervalForecaster = (*SARIMA)(nil)

// Kind identifies the model family.
func (m *SARIMA) Kind() Kind { return KindSARIMA }

// Name is the display name.
func (m *SARIMA) Name() string { return "SARIMA" }

// Describe returns the model order.
func (m *SARIMA) Describe() string {
	return "Order " + m.Order.String()
}

// Metrics returns the information criteria stored with the artifact.
func (m *SARIMA) Metrics() []Metric {
	out := make([]Metric, len(m.metrics))
	copy(out, m.metrics)
	return out
}

// Observed returns the training series the model was fitted on.
func (m *SARIMA) Observed() []model.MonthlyValue {
	return monthlyValues(m.Start, m.levels[0], 0)
}

// Fitted returns in-sample one-step predictions. Months consumed by
// differencing have no fitted value.
func (m *SARIMA) Fitted() []model.MonthlyValue {
	out := make([]model.MonthlyValue, len(m.fitted))
	copy(out, m.fitted)
	return out
}

// Confidence is the default interval level stored with the model.
func (m *SARIMA) Confidence() float64 {
	return m.confidence
}

// prepare differences the observed series and replays the recursion to
// recover residuals and fitted values.
func (m *SARIMA) prepare(observed []float64) {
	m.arPoly = polyMul(lagPoly(m.AR, 1, -1), lagPoly(m.SAR, m.Order.M, -1))
	m.maPoly = polyMul(lagPoly(m.MA, 1, 1), lagPoly(m.SMA, m.Order.M, 1))

	m.levels = [][]float64{observed}
	cur := observed
	for i := 0; i < m.Order.D; i++ {
		cur = difference(cur, 1)
		m.levels = append(m.levels, cur)
	}
	for i := 0; i < m.Order.SD; i++ {
		cur = difference(cur, m.Order.M)
		m.levels = append(m.levels, cur)
	}

	y := m.levels[len(m.levels)-1]
	m.residuals = make([]float64, len(y))
	for t := range y {
		m.residuals[t] = y[t] - m.predictAt(y, m.residuals, t, len(y))
	}

	if m.fitted == nil {
		offset := m.Order.D + m.Order.SD*m.Order.M
		m.fitted = make([]model.MonthlyValue, len(y))
		for t := range y {
			m.fitted[t] = model.MonthlyValue{
				Month: m.Start.AddMonths(offset + t),
				Value: observed[offset+t] - m.residuals[t],
			}
		}
	}
}

// predictAt is the one-step prediction of y[t] on the differenced scale.
// Residuals at or beyond known are treated as zero.
func (m *SARIMA) predictAt(y, resid []float64, t, known int) float64 {
	c := m.Intercept
	pred := c
	for k := 1; k < len(m.arPoly) && t-k >= 0; k++ {
		pred -= m.arPoly[k] * (y[t-k] - c)
	}
	for k := 1; k < len(m.maPoly) && t-k >= 0; k++ {
		if t-k < known {
			pred += m.maPoly[k] * resid[t-k]
		}
	}
	return pred
}

// Forecast returns the predicted mean for the next steps months.
func (m *SARIMA) Forecast(steps int) (*Forecast, error) {
	means, err := m.predict(steps)
	if err != nil {
		return nil, err
	}
	return m.build(means, nil, nil), nil
}

// ForecastInterval returns the predicted mean with a symmetric normal
// interval at the given confidence. Out-of-range confidence uses the model
// default. The standard error at horizon h is sigma*sqrt(psi_0^2+...+psi_{h-1}^2)
// with psi-weights of the integrated model.
func (m *SARIMA) ForecastInterval(steps int, confidence float64) (*Forecast, error) {
	means, err := m.predict(steps)
	if err != nil {
		return nil, err
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = m.confidence
	}

	z := normalQuantile((1 + confidence) / 2)
	se := m.standardErrors(steps)
	lower := make([]float64, steps)
	upper := make([]float64, steps)
	for h := 0; h < steps; h++ {
		lower[h] = means[h] - z*se[h]
		upper[h] = means[h] + z*se[h]
	}
	return m.build(means, lower, upper), nil
}

// standardErrors returns forecast standard errors for horizons 1..steps on
// the observed scale.
func (m *SARIMA) standardErrors(steps int) []float64 {
	ar := m.arPoly
	for i := 0; i < m.Order.D; i++ {
		ar = polyMul(ar, []float64{1, -1})
	}
	for i := 0; i < m.Order.SD; i++ {
		ar = polyMul(ar, lagPoly([]float64{1}, m.Order.M, -1))
	}
	psi := psiWeights(ar, m.maPoly, steps)

	sigma := math.Sqrt(math.Max(m.Sigma2, 0))
	out := make([]float64, steps)
	var acc float64
	for h := range psi {
		acc += psi[h] * psi[h]
		out[h] = sigma * math.Sqrt(acc)
	}
	return out
}

func (m *SARIMA) predict(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	y := m.levels[len(m.levels)-1]
	n := len(y)
	extY := make([]float64, n+steps)
	copy(extY, y)
	extResid := make([]float64, n+steps)
	copy(extResid, m.residuals)

	for t := n; t < n+steps; t++ {
		extY[t] = m.predictAt(extY, extResid, t, n)
	}

	out := extY[n:]
	for lvl := len(m.levels) - 2; lvl >= 0; lvl-- {
		lag := 1
		if lvl >= m.Order.D {
			lag = m.Order.M
		}
		out = undifference(m.levels[lvl], out, lag)
	}

	if err := checkFinite(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *SARIMA) build(means, lower, upper []float64) *Forecast {
	first := m.Start.AddMonths(len(m.levels[0]))
	f := &Forecast{Model: KindSARIMA, Name: m.Name(), Points: make([]Point, len(means))}
	for h, v := range means {
		p := Point{Month: first.AddMonths(h), Mean: v}
		if lower != nil {
			lo, hi := lower[h], upper[h]
			p.Lower, p.Upper = &lo, &hi
		}
		f.Points[h] = p
	}
	return f
}

func checkFinite(xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("non-finite value at step %d", i+1)
		}
	}
	return nil
}
