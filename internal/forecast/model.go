// Package forecast applies externally fitted SARIMA and Holt-Winters models
// to monthly sales series.
package forecast

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/model"
)

// Horizon bounds for a forecast request, in months.
const (
	MinPeriods     = 1
	MaxPeriods     = 12
	DefaultPeriods = 3

	DefaultConfidence = 0.95
)

// Kind identifies a model family.
type Kind string

const (
	KindSARIMA      Kind = "sarima"
	KindHoltWinters Kind = "holtwinters"
)

// Metric is one fit statistic. Available is false when the artifact does not
// carry the value.
type Metric struct {
	Key       string
	Label     string
	Value     float64
	Available bool
}

// Model is a loaded, read-only forecasting model.
type Model interface {
	Kind() Kind
	Name() string
	Describe() string
	Metrics() []Metric
	// Observed returns the training series the model was fitted on.
	Observed() []model.MonthlyValue
	// Fitted returns in-sample one-step-ahead predictions on the original scale.
	Fitted() []model.MonthlyValue
	Forecast(steps int) (*Forecast, error)
}

// IntervalForecaster is implemented by models that produce prediction intervals.
type IntervalForecaster interface {
	ForecastInterval(steps int, confidence float64) (*Forecast, error)
}

// Point is one forecast month. Lower and Upper are nil without an interval.
type Point struct {
	Month model.Month
	Mean  float64
	Lower *float64
	Upper *float64
}

// Forecast is the output of one model for consecutive months.
type Forecast struct {
	Model  Kind
	Name   string
	Points []Point
}

// ValidatePeriods reports whether periods is an allowed horizon.
func ValidatePeriods(periods int) error {
	if periods < MinPeriods || periods > MaxPeriods {
		return fmt.Errorf("periods must be between %d and %d, got %d", MinPeriods, MaxPeriods, periods)
	}
	return nil
}

// ClampPeriods forces periods into the allowed horizon.
func ClampPeriods(periods int) int {
	return max(MinPeriods, min(MaxPeriods, periods))
}

func monthlyValues(start model.Month, values []float64, offset int) []model.MonthlyValue {
	out := make([]model.MonthlyValue, 0, len(values))
	for i, v := range values {
		out = append(out, model.MonthlyValue{Month: start.AddMonths(offset + i), Value: v})
	}
	return out
}
