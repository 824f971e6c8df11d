package forecast

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salescast/internal/model"
)

func loadTestdata(t *testing.T, name string) Model {
	t.Helper()
	m, err := LoadModel(filepath.Join("testdata", name))
	require.NoError(t, err)
	return m
}

func decodeJSON(t *testing.T, v any) (Model, error) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return Decode(strings.NewReader(string(b)))
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestLoadModel_Testdata(t *testing.T) {
	sar := loadTestdata(t, "model_sarima.json")
	assert.Equal(t, KindSARIMA, sar.Kind())
	assert.Equal(t, "Order (1,1,1)x(0,1,1,12)", sar.Describe())
	_, ok := sar.(IntervalForecaster)
	assert.True(t, ok)

	hw := loadTestdata(t, "model_holtwinters.json")
	assert.Equal(t, KindHoltWinters, hw.Kind())
	assert.Contains(t, hw.Describe(), "additive")
	_, ok = hw.(IntervalForecaster)
	assert.False(t, ok)

	obs := sar.Observed()
	require.Len(t, obs, 36)
	assert.Equal(t, "2022-05", obs[0].Month.String())
	assert.Equal(t, "2025-04", obs[35].Month.String())
}

func TestForecast_RowsMatchPeriods(t *testing.T) {
	models := []Model{loadTestdata(t, "model_sarima.json"), loadTestdata(t, "model_holtwinters.json")}
	first := model.Month{Year: 2025, Month: time.May}

	for periods := MinPeriods; periods <= MaxPeriods; periods++ {
		c := Merge(Run(models, periods, DefaultConfidence))
		require.NoError(t, c.Err())
		require.Len(t, c.Rows, periods, "periods=%d", periods)
		assert.Equal(t, []model.Column{ColSARIMAForecast, ColSARIMALower, ColSARIMAUpper, ColHWForecast}, c.Columns)

		for i, row := range c.Rows {
			assert.Equal(t, first.AddMonths(i), row.Month)
			assert.Len(t, row.Values, 4)
			assert.LessOrEqual(t, row.Values[ColSARIMALower], row.Values[ColSARIMAForecast])
			assert.GreaterOrEqual(t, row.Values[ColSARIMAUpper], row.Values[ColSARIMAForecast])
		}
	}
}

func TestMerge_RoundsHalfToEven(t *testing.T) {
	lo, hi := 0.5, 3.5
	outcomes := []Outcome{{
		Kind: KindSARIMA,
		Name: "SARIMA",
		Forecast: &Forecast{Model: KindSARIMA, Points: []Point{
			{Month: model.Month{Year: 2024, Month: time.January}, Mean: 2.5, Lower: &lo, Upper: &hi},
		}},
	}}
	c := Merge(outcomes)
	require.Len(t, c.Rows, 1)
	assert.Equal(t, int64(2), c.Rows[0].Values[ColSARIMAForecast])
	assert.Equal(t, int64(0), c.Rows[0].Values[ColSARIMALower])
	assert.Equal(t, int64(4), c.Rows[0].Values[ColSARIMAUpper])

	assert.Equal(t, int64(-2), Round(-2.5))
	assert.Equal(t, int64(101), Round(100.51))
}

func TestHoltWinters_ClosedForm(t *testing.T) {
	const (
		n      = 24
		period = 4
		level  = 100.0
		slope  = 2.5
	)
	seasons := []float64{-3, 1, 4, -2}
	m, err := decodeJSON(t, map[string]any{
		"kind": "holtwinters", "version": 1,
		"trend": "add", "seasonal": "add", "seasonal_periods": period,
		"alpha": 0, "beta": 0, "gamma": 0,
		"initial_level": level, "initial_trend": slope, "initial_seasons": seasons,
		"start": "2020-01",
		"observed": series(n, func(i int) float64 { return float64(i) }),
	})
	require.NoError(t, err)

	f, err := m.Forecast(6)
	require.NoError(t, err)
	require.Len(t, f.Points, 6)
	for h := 1; h <= 6; h++ {
		want := level + float64(n+h)*slope + seasons[(h-1)%period]
		assert.InDelta(t, want, f.Points[h-1].Mean, 1e-9, "h=%d", h)
		assert.Nil(t, f.Points[h-1].Lower)
	}
	assert.Equal(t, "2022-01", f.Points[0].Month.String())

	fitted := m.Fitted()
	require.Len(t, fitted, n)
	assert.InDelta(t, level+slope+seasons[0], fitted[0].Value, 1e-9)
}

func TestHoltWinters_Multiplicative(t *testing.T) {
	m, err := decodeJSON(t, map[string]any{
		"kind": "holtwinters", "version": 1,
		"trend": "none", "seasonal": "mul", "seasonal_periods": 2,
		"alpha": 0, "gamma": 0,
		"initial_level": 50, "initial_seasons": []float64{0.8, 1.2},
		"start": "2021-06", "observed": []float64{40, 60, 40, 60},
	})
	require.NoError(t, err)

	f, err := m.Forecast(2)
	require.NoError(t, err)
	assert.InDelta(t, 40, f.Points[0].Mean, 1e-9)
	assert.InDelta(t, 60, f.Points[1].Mean, 1e-9)

	// Perfect fit: fallback SSE is zero and reported as available.
	metrics := m.Metrics()
	require.Len(t, metrics, 3)
	assert.False(t, metrics[0].Available)
	assert.Equal(t, "sse", metrics[2].Key)
	assert.True(t, metrics[2].Available)
	assert.InDelta(t, 0, metrics[2].Value, 1e-9)
}

func TestSARIMA_RandomWalk(t *testing.T) {
	const sigma2 = 16.0
	obs := []float64{10, 12, 11, 15, 14, 18}
	m, err := decodeJSON(t, map[string]any{
		"kind": "sarima", "version": 1,
		"order":  map[string]int{"p": 0, "d": 1, "q": 0, "P": 0, "D": 0, "Q": 0, "m": 0},
		"sigma2": sigma2, "start": "2023-01", "observed": obs,
	})
	require.NoError(t, err)

	iv, ok := m.(IntervalForecaster)
	require.True(t, ok)
	f, err := iv.ForecastInterval(4, 0.95)
	require.NoError(t, err)

	z := normalQuantile(0.975)
	prevWidth := 0.0
	for h, p := range f.Points {
		assert.InDelta(t, 18, p.Mean, 1e-9)
		require.NotNil(t, p.Lower)
		width := *p.Upper - *p.Lower
		assert.InDelta(t, 2*z*math.Sqrt(sigma2)*math.Sqrt(float64(h+1)), width, 1e-9)
		assert.Greater(t, width, prevWidth)
		prevWidth = width
	}
	assert.Equal(t, "2023-07", f.Points[0].Month.String())

	// One-step fitted values of a random walk are the previous observation.
	fitted := m.Fitted()
	require.Len(t, fitted, len(obs)-1)
	for i, fv := range fitted {
		assert.Equal(t, model.Month{Year: 2023, Month: time.Month(i + 2)}, fv.Month)
		assert.InDelta(t, obs[i], fv.Value, 1e-9)
	}

	for _, mt := range m.Metrics() {
		assert.False(t, mt.Available, mt.Key)
	}
}

func TestSARIMA_SeasonalDifferencing(t *testing.T) {
	// A pure seasonal pattern under (0,0,0)x(0,1,0,3) repeats the last cycle.
	obs := []float64{5, 9, 7, 6, 10, 8}
	m, err := decodeJSON(t, map[string]any{
		"kind": "sarima", "version": 1,
		"order": map[string]int{"D": 1, "m": 3}, "start": "2023-01", "observed": obs,
	})
	require.NoError(t, err)

	f, err := m.Forecast(4)
	require.NoError(t, err)
	got := []float64{f.Points[0].Mean, f.Points[1].Mean, f.Points[2].Mean, f.Points[3].Mean}
	assert.InDeltaSlice(t, []float64{6, 10, 8, 6}, got, 1e-9)
}

func TestSARIMA_ExplicitFittedWins(t *testing.T) {
	m, err := decodeJSON(t, map[string]any{
		"kind": "sarima", "version": 1,
		"order": map[string]int{"d": 1}, "start": "2023-01",
		"observed": []float64{1, 2, 3}, "fitted": []float64{0, 1.5, 2.5},
		"metrics": map[string]float64{"aic": 12.345},
	})
	require.NoError(t, err)
	fitted := m.Fitted()
	require.Len(t, fitted, 3)
	assert.Equal(t, "2023-01", fitted[0].Month.String())
	assert.InDelta(t, 2.5, fitted[2].Value, 1e-9)

	metrics := m.Metrics()
	assert.True(t, metrics[0].Available)
	assert.InDelta(t, 12.345, metrics[0].Value, 1e-9)
	assert.False(t, metrics[1].Available)
}

func TestSARIMA_MultiplicativeMA(t *testing.T) {
	// (1+0.6L)(1+0.5L^4) carries a 0.3 cross term at lag 5.
	m, err := decodeJSON(t, map[string]any{
		"kind": "sarima", "version": 1,
		"order": map[string]int{"q": 1, "Q": 1, "m": 4},
		"ma":    []float64{0.6}, "sma": []float64{0.5},
		"start": "2023-01", "observed": []float64{1, 2, 3, 4, 5, 6},
	})
	require.NoError(t, err)

	f, err := m.Forecast(3)
	require.NoError(t, err)
	got := []float64{f.Points[0].Mean, f.Points[1].Mean, f.Points[2].Mean}
	assert.InDeltaSlice(t, []float64{3.464064, 2.0, 2.25}, got, 1e-9)

	fitted := m.Fitted()
	require.Len(t, fitted, 6)
	assert.InDelta(t, 2.72656, fitted[5].Value, 1e-9)
}

func TestSARIMA_IntervalFromPsiWeights(t *testing.T) {
	z := normalQuantile(0.975)
	width := func(p Point) float64 {
		require.NotNil(t, p.Lower)
		require.NotNil(t, p.Upper)
		return *p.Upper - *p.Lower
	}

	// ARIMA(0,1,1) with theta -0.5 has psi = 1, 0.5, 0.5, ...
	m, err := decodeJSON(t, map[string]any{
		"kind": "sarima", "version": 1,
		"order": map[string]int{"d": 1, "q": 1}, "ma": []float64{-0.5},
		"sigma2": 4.0, "start": "2023-01", "observed": []float64{10, 12, 11, 13},
	})
	require.NoError(t, err)
	f, err := m.(IntervalForecaster).ForecastInterval(3, 0.95)
	require.NoError(t, err)
	for h, se := range []float64{2, math.Sqrt(5), math.Sqrt(6)} {
		assert.InDelta(t, 2*z*se, width(f.Points[h]), 1e-9, "h=%d", h+1)
	}

	// A seasonal random walk only widens once a full cycle has passed.
	m, err = decodeJSON(t, map[string]any{
		"kind": "sarima", "version": 1,
		"order": map[string]int{"D": 1, "m": 3}, "sigma2": 1.0,
		"start": "2023-01", "observed": []float64{5, 9, 7, 6, 10, 8},
	})
	require.NoError(t, err)
	f, err = m.(IntervalForecaster).ForecastInterval(5, 0.95)
	require.NoError(t, err)
	for h, se := range []float64{1, 1, 1, math.Sqrt2, math.Sqrt2} {
		assert.InDelta(t, 2*z*se, width(f.Points[h]), 1e-9, "h=%d", h+1)
	}
}

func TestPolyMul(t *testing.T) {
	got := polyMul(lagPoly([]float64{0.6}, 1, 1), lagPoly([]float64{0.5}, 4, 1))
	assert.InDeltaSlice(t, []float64{1, 0.6, 0, 0, 0.5, 0.3}, got, 1e-12)
	assert.Equal(t, []float64{1}, lagPoly(nil, 12, -1))
}

type panicModel struct{ Model }

func (panicModel) Kind() Kind   { return KindSARIMA }
func (panicModel) Name() string { return "SARIMA" }
func (panicModel) Forecast(int) (*Forecast, error) {
	panic("singular matrix")
}

type failModel struct{ Model }

func (failModel) Kind() Kind   { return KindHoltWinters }
func (failModel) Name() string { return "Holt-Winters" }
func (failModel) Forecast(int) (*Forecast, error) {
	return nil, errors.New("state diverged")
}

func TestRun_IsolatesFailures(t *testing.T) {
	hw := loadTestdata(t, "model_holtwinters.json")
	c := Merge(Run([]Model{panicModel{}, hw}, 3, DefaultConfidence))

	assert.Equal(t, []model.Column{ColHWForecast}, c.Columns)
	require.Len(t, c.Rows, 3)
	for _, r := range c.Rows {
		assert.Len(t, r.Values, 1)
		assert.Contains(t, r.Values, ColHWForecast)
	}
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0], model.ErrForecast)
	assert.Contains(t, c.Errors[0].Error(), "singular matrix")

	sar := loadTestdata(t, "model_sarima.json")
	c = Merge(Run([]Model{sar, failModel{}}, 2, 0.8))
	assert.Equal(t, []model.Column{ColSARIMAForecast, ColSARIMALower, ColSARIMAUpper}, c.Columns)
	assert.Len(t, c.Rows, 2)

	c = Merge(Run([]Model{panicModel{}, failModel{}, nil}, 2, 0.95))
	assert.True(t, c.Empty())
	assert.Nil(t, c.Columns)
	assert.Len(t, c.Errors, 2)
	assert.ErrorIs(t, c.Err(), model.ErrForecast)
}

func TestDecode_Errors(t *testing.T) {
	validHW := func() map[string]any {
		return map[string]any{
			"kind": "holtwinters", "version": 1, "trend": "add", "seasonal": "add",
			"seasonal_periods": 2, "alpha": 0.5, "beta": 0.1, "gamma": 0.1,
			"initial_level": 1, "initial_seasons": []float64{0, 0},
			"start": "2023-01", "observed": []float64{1, 2, 3},
		}
	}
	cases := []struct {
		name   string
		mutate func(map[string]any)
		raw    string
	}{
		{name: "not json", raw: "\x80\x02}q"},
		{name: "unknown kind", mutate: func(m map[string]any) { m["kind"] = "prophet" }},
		{name: "future version", mutate: func(m map[string]any) { m["version"] = 2 }},
		{name: "season length", mutate: func(m map[string]any) { m["initial_seasons"] = []float64{0} }},
		{name: "bad trend", mutate: func(m map[string]any) { m["trend"] = "mul" }},
		{name: "alpha range", mutate: func(m map[string]any) { m["alpha"] = 1.5 }},
		{name: "no observed", mutate: func(m map[string]any) { delete(m, "observed") }},
		{name: "bad start", mutate: func(m map[string]any) { m["start"] = "May 2022" }},
		{name: "sarima coeffs", mutate: func(m map[string]any) {
			m["kind"] = "sarima"
			m["order"] = map[string]int{"p": 2}
			m["ar"] = []float64{0.1}
		}},
		{name: "sarima too short", mutate: func(m map[string]any) {
			m["kind"] = "sarima"
			m["order"] = map[string]int{"D": 1, "m": 12}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.raw != "" {
				_, err = Decode(strings.NewReader(tc.raw))
			} else {
				a := validHW()
				tc.mutate(a)
				_, err = decodeJSON(t, a)
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrModelLoad)
		})
	}
}

func TestLoadModel_Missing(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "model_sarima.json"))
	assert.ErrorIs(t, err, model.ErrFileNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistry_CachesAndInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hw.json")
	src, err := os.ReadFile(filepath.Join("testdata", "model_holtwinters.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, src, 0o600))

	r := NewRegistry()
	a, err := r.Load(path)
	require.NoError(t, err)
	b, err := r.Load(path)
	require.NoError(t, err)
	assert.Same(t, a.(*HoltWinters), b.(*HoltWinters))
	assert.Equal(t, 1, r.Len())

	r.Invalidate(path)
	assert.Equal(t, 0, r.Len())
	c, err := r.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, a.(*HoltWinters), c.(*HoltWinters))

	_, err = r.Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, model.ErrFileNotFound)
	assert.Equal(t, 1, r.Len())
}

func TestValidatePeriods(t *testing.T) {
	assert.NoError(t, ValidatePeriods(1))
	assert.NoError(t, ValidatePeriods(12))
	assert.Error(t, ValidatePeriods(0))
	assert.Error(t, ValidatePeriods(13))
	assert.Equal(t, 12, ClampPeriods(40))
	assert.Equal(t, 1, ClampPeriods(-3))
}

func TestNormalQuantile(t *testing.T) {
	assert.InDelta(t, 1.96, normalQuantile(0.975), 1e-3)
	assert.InDelta(t, -1.645, normalQuantile(0.05), 2e-3)
	assert.Zero(t, normalQuantile(0))
}
