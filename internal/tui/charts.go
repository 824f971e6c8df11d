package tui

import (
	"math"
	"strconv"

	"github.com/theirongolddev/salescast/internal/model"
)

// monthAxis returns the first month and the number of months spanned by all
// non-empty series.
func monthAxis(series ...[]model.MonthlyValue) (model.Month, int) {
	var first, last model.Month
	for _, s := range series {
		for _, v := range s {
			if first.IsZero() || v.Month.Before(first) {
				first = v.Month
			}
			if last.IsZero() || last.Before(v.Month) {
				last = v.Month
			}
		}
	}
	if first.IsZero() {
		return first, 0
	}
	return first, last.Sub(first) + 1
}

// onAxis spreads values over n slots starting at start. Months without a
// value are NaN.
func onAxis(start model.Month, n int, values []model.MonthlyValue) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	for _, v := range values {
		if i := v.Month.Sub(start); i >= 0 && i < n {
			out[i] = v.Value
		}
	}
	return out
}

func actualValues(monthly []model.MonthlyQty) []model.MonthlyValue {
	out := make([]model.MonthlyValue, len(monthly))
	for i, m := range monthly {
		out[i] = model.MonthlyValue{Month: m.Month, Value: m.Qty}
	}
	return out
}

// monthLabels labels the first slot with its full month and every January
// with its year.
func monthLabels(start model.Month, n int) []string {
	labels := make([]string, n)
	for i := range labels {
		m := start.AddMonths(i)
		switch {
		case i == 0:
			labels[i] = m.String()
		case m.Month == 1:
			labels[i] = strconv.Itoa(m.Year)
		}
	}
	return labels
}
