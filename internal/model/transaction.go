// Package model defines domain types for salescast transactions and series.
package model

import "time"

// Transaction is one row of the sales transaction file.
type Transaction struct {
	Date time.Time // calendar date, UTC midnight
	Qty  float64

	// Fields keeps the remaining columns verbatim, keyed by header name.
	Fields map[string]string
}

// DataSummary holds the facts shown in the dashboard footer.
type DataSummary struct {
	Records   int
	FirstDate time.Time
	LastDate  time.Time
	TotalQty  float64
}

// Empty reports whether no transactions were loaded.
func (s DataSummary) Empty() bool {
	return s.Records == 0
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
