// Package pipeline orchestrates transaction loading, caching, and series aggregation.
package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

// Summarize computes the footer facts for a set of transactions.
func Summarize(records []model.Transaction) model.DataSummary {
	var s model.DataSummary
	for _, r := range records {
		if s.Records == 0 || r.Date.Before(s.FirstDate) {
			s.FirstDate = r.Date
		}
		if s.Records == 0 || r.Date.After(s.LastDate) {
			s.LastDate = r.Date
		}
		s.Records++
		s.TotalQty += r.Qty
	}
	return s
}

// AggregateDays sums quantities per calendar day. The result covers every day
// from the earliest to the latest transaction, ascending, with absent days
// filled with zero.
func AggregateDays(records []model.Transaction) []model.DailyQty {
	if len(records) == 0 {
		return nil
	}

	dayMap := make(map[time.Time]float64)
	var first, last time.Time
	for i, r := range records {
		day := model.Day(r.Date)
		dayMap[day] += r.Qty
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	n := int(last.Sub(first).Hours()/24) + 1
	days := make([]model.DailyQty, 0, n)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, model.DailyQty{Date: d, Qty: dayMap[d]})
	}
	return days
}

// AggregateMonths sums a daily series into calendar months. Every month from
// the first to the last day's month is present.
func AggregateMonths(daily []model.DailyQty) []model.MonthlyQty {
	if len(daily) == 0 {
		return nil
	}

	start := model.MonthOf(daily[0].Date)
	end := start
	sums := make(map[model.Month]float64)
	for _, d := range daily {
		m := model.MonthOf(d.Date)
		sums[m] += d.Qty
		if m.Before(start) {
			start = m
		}
		if end.Before(m) {
			end = m
		}
	}

	months := make([]model.MonthlyQty, 0, end.Sub(start)+1)
	for m := start; !end.Before(m); m = m.Next() {
		months = append(months, model.MonthlyQty{Month: m, Qty: sums[m]})
	}
	return months
}

// FilterDays returns the entries of daily within [since, until). A zero bound
// is open.
func FilterDays(daily []model.DailyQty, since, until time.Time) []model.DailyQty {
	var out []model.DailyQty
	for _, d := range daily {
		if !since.IsZero() && d.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !d.Date.Before(until) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// SeriesStats describes a monthly series for the overview page.
type SeriesStats struct {
	Months      int
	Total       float64
	Mean        float64
	Peak        model.MonthlyQty
	Trough      model.MonthlyQty
	ZeroDays    int
	BusiestDays []model.DailyQty
}

// Describe computes overview statistics. topN bounds BusiestDays.
func Describe(daily []model.DailyQty, monthly []model.MonthlyQty, topN int) SeriesStats {
	var st SeriesStats
	st.Months = len(monthly)
	for i, m := range monthly {
		st.Total += m.Qty
		if i == 0 || m.Qty > st.Peak.Qty {
			st.Peak = m
		}
		if i == 0 || m.Qty < st.Trough.Qty {
			st.Trough = m
		}
	}
	if st.Months > 0 {
		st.Mean = st.Total / float64(st.Months)
	}

	for _, d := range daily {
		if d.Qty == 0 {
			st.ZeroDays++
		}
	}

	busiest := make([]model.DailyQty, len(daily))
	copy(busiest, daily)
	sort.SliceStable(busiest, func(i, j int) bool {
		return busiest[i].Qty > busiest[j].Qty
	})
	if topN >= 0 && len(busiest) > topN {
		busiest = busiest[:topN]
	}
	st.BusiestDays = busiest
	return st
}
