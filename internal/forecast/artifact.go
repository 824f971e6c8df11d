package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/salescast/internal/model"
)

// ArtifactVersion is the only artifact layout this build reads.
const ArtifactVersion = 1

type header struct {
	Kind    Kind `json:"kind"`
	Version int  `json:"version"`
}

type sarimaArtifact struct {
	header
	Order      Order         `json:"order"`
	AR         []float64     `json:"ar"`
	MA         []float64     `json:"ma"`
	SAR        []float64     `json:"sar"`
	SMA        []float64     `json:"sma"`
	Intercept  float64       `json:"intercept"`
	Sigma2     float64       `json:"sigma2"`
	Start      model.Month   `json:"start"`
	Observed   []float64     `json:"observed"`
	Fitted     []float64     `json:"fitted,omitempty"`
	Metrics    sarimaMetrics `json:"metrics"`
	Confidence float64       `json:"confidence,omitempty"`
}

type sarimaMetrics struct {
	AIC *float64 `json:"aic"`
	BIC *float64 `json:"bic"`
	LLF *float64 `json:"llf"`
}

type holtWintersArtifact struct {
	header
	Trend           string      `json:"trend"`
	Seasonal        string      `json:"seasonal"`
	SeasonalPeriods int         `json:"seasonal_periods"`
	Alpha           float64     `json:"alpha"`
	Beta            float64     `json:"beta"`
	Gamma           float64     `json:"gamma"`
	InitialLevel    float64     `json:"initial_level"`
	InitialTrend    float64     `json:"initial_trend"`
	InitialSeasons  []float64   `json:"initial_seasons"`
	Start           model.Month `json:"start"`
	Observed        []float64   `json:"observed"`
	Fitted          []float64   `json:"fitted,omitempty"`
	Metrics         hwMetrics   `json:"metrics"`
}

type hwMetrics struct {
	AIC *float64 `json:"aic"`
	BIC *float64 `json:"bic"`
	SSE *float64 `json:"sse"`
}

// LoadModel reads a model artifact from disk. A missing file matches
// model.ErrFileNotFound; anything unreadable or inconsistent matches
// model.ErrModelLoad.
func LoadModel(path string) (Model, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from local config/flags
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", model.ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrModelLoad, err)
	}
	defer func() { _ = f.Close() }()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode reads a model artifact. All failures match model.ErrModelLoad.
func Decode(r io.Reader) (Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading artifact: %w", model.ErrModelLoad, err)
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: decoding artifact: %w", model.ErrModelLoad, err)
	}
	if h.Version != ArtifactVersion {
		return nil, fmt.Errorf("%w: unsupported artifact version %d", model.ErrModelLoad, h.Version)
	}

	var m Model
	switch h.Kind {
	case KindSARIMA:
		var a sarimaArtifact
		if err = json.Unmarshal(data, &a); err == nil {
			m, err = newSARIMA(a)
		}
	case KindHoltWinters:
		var a holtWintersArtifact
		if err = json.Unmarshal(data, &a); err == nil {
			m, err = newHoltWinters(a)
		}
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", model.ErrModelLoad, h.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s artifact: %w", model.ErrModelLoad, h.Kind, err)
	}
	return m, nil
}

func newSARIMA(a sarimaArtifact) (*SARIMA, error) {
	o := a.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 || o.M < 0 {
		return nil, fmt.Errorf("negative order %s", o)
	}
	if (o.SP > 0 || o.SD > 0 || o.SQ > 0) && o.M < 2 {
		return nil, fmt.Errorf("seasonal order %s needs a period of at least 2", o)
	}
	for _, c := range []struct {
		name string
		got  int
		want int
	}{
		{"ar", len(a.AR), o.P},
		{"ma", len(a.MA), o.Q},
		{"sar", len(a.SAR), o.SP},
		{"sma", len(a.SMA), o.SQ},
	} {
		if c.got != c.want {
			return nil, fmt.Errorf("%s has %d coefficients, order wants %d", c.name, c.got, c.want)
		}
	}
	if a.Sigma2 < 0 {
		return nil, fmt.Errorf("negative sigma2 %g", a.Sigma2)
	}
	if err := checkSeries(a.Start, a.Observed, a.Fitted); err != nil {
		return nil, err
	}
	if lost := o.D + o.SD*o.M; len(a.Observed) <= lost {
		return nil, fmt.Errorf("%d observations do not survive differencing by %d", len(a.Observed), lost)
	}

	conf := a.Confidence
	if conf <= 0 || conf >= 1 {
		conf = DefaultConfidence
	}

	m := &SARIMA{
		Order:      o,
		AR:         a.AR,
		MA:         a.MA,
		SAR:        a.SAR,
		SMA:        a.SMA,
		Intercept:  a.Intercept,
		Sigma2:     a.Sigma2,
		Start:      a.Start,
		confidence: conf,
		metrics: []Metric{
			metric("aic", "Akaike Info Criterion (AIC)", a.Metrics.AIC),
			metric("bic", "Bayesian Info Criterion (BIC)", a.Metrics.BIC),
			metric("llf", "Log-Likelihood", a.Metrics.LLF),
		},
	}
	if a.Fitted != nil {
		m.fitted = monthlyValues(a.Start, a.Fitted, 0)
	}
	m.prepare(a.Observed)
	return m, nil
}

func newHoltWinters(a holtWintersArtifact) (*HoltWinters, error) {
	if a.Trend == "" {
		a.Trend = MethodNone
	}
	if a.Seasonal == "" {
		a.Seasonal = MethodNone
	}
	if a.Trend != MethodAdditive && a.Trend != MethodNone {
		return nil, fmt.Errorf("unsupported trend %q", a.Trend)
	}
	switch a.Seasonal {
	case MethodAdditive, MethodMultiplicative:
		if a.SeasonalPeriods < 2 {
			return nil, fmt.Errorf("seasonal_periods must be at least 2, got %d", a.SeasonalPeriods)
		}
		if len(a.InitialSeasons) != a.SeasonalPeriods {
			return nil, fmt.Errorf("initial_seasons has %d values, seasonal_periods is %d",
				len(a.InitialSeasons), a.SeasonalPeriods)
		}
	case MethodNone:
		a.InitialSeasons = nil
	default:
		return nil, fmt.Errorf("unsupported seasonal %q", a.Seasonal)
	}
	for name, v := range map[string]float64{"alpha": a.Alpha, "beta": a.Beta, "gamma": a.Gamma} {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("%s must be in [0, 1], got %g", name, v)
		}
	}
	if err := checkSeries(a.Start, a.Observed, a.Fitted); err != nil {
		return nil, err
	}

	m := &HoltWinters{
		Trend:    a.Trend,
		Seasonal: a.Seasonal,
		Period:   a.SeasonalPeriods,
		Alpha:    a.Alpha,
		Beta:     a.Beta,
		Gamma:    a.Gamma,
		Start:    a.Start,
		observed: a.Observed,
	}
	preds := m.smooth(a.InitialLevel, a.InitialTrend, a.InitialSeasons)
	if a.Fitted != nil {
		m.fitted = monthlyValues(a.Start, a.Fitted, 0)
	} else {
		m.fitted = monthlyValues(a.Start, preds, 0)
	}

	sse := a.Metrics.SSE
	if sse == nil {
		v := m.inSampleSSE()
		sse = &v
	}
	m.metrics = []Metric{
		metric("aic", "Akaike Info Criterion (AIC)", a.Metrics.AIC),
		metric("bic", "Bayesian Info Criterion (BIC)", a.Metrics.BIC),
		metric("sse", "Sum of Squared Errors (SSE)", sse),
	}
	return m, nil
}

func checkSeries(start model.Month, observed, fitted []float64) error {
	if start.IsZero() {
		return errors.New("missing start month")
	}
	if len(observed) == 0 {
		return errors.New("missing observed series")
	}
	if len(fitted) > len(observed) {
		return fmt.Errorf("fitted has %d values, observed only %d", len(fitted), len(observed))
	}
	return nil
}

func metric(key, label string, v *float64) Metric {
	if v == nil {
		return Metric{Key: key, Label: label}
	}
	return Metric{Key: key, Label: label, Value: *v, Available: true}
}
