package model

import (
	"fmt"
	"time"
)

// DailyQty is the summed quantity for one calendar day.
type DailyQty struct {
	Date time.Time
	Qty  float64
}

// MonthlyQty is the summed quantity for one calendar month.
type MonthlyQty struct {
	Month Month
	Qty   float64
}

// MonthlyValue is a model output (fitted or forecast) for one month.
type MonthlyValue struct {
	Month Month
	Value float64
}

// Month is a year-month period. The zero value is not a valid month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the period containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "2006-01".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parsing month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Start returns the first day of the month at UTC midnight.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the period n months later (n may be negative).
func (m Month) AddMonths(n int) Month {
	idx := m.index() + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Next returns the following month.
func (m Month) Next() Month {
	return m.AddMonths(1)
}

// Sub returns the number of months from o to m.
func (m Month) Sub(o Month) int {
	return m.index() - o.index()
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// String formats the month as "2006-01".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Column names one value column of the merged forecast table.
type Column string

// ForecastRow is one month of the merged forecast table. Values only holds
// columns of models whose forecast succeeded.
type ForecastRow struct {
	Month  Month
	Values map[Column]int64
}
