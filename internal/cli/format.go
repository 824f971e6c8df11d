// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// NotAvailable is shown for metrics a model does not carry.
const NotAvailable = "N/A"

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatQty formats a quantity: whole numbers with separators, fractions
// with one decimal.
func FormatQty(q float64) string {
	if q == math.Trunc(q) && math.Abs(q) < 1e15 {
		return humanize.Comma(int64(q))
	}
	return humanize.CommafWithDigits(q, 1)
}

// FormatCompact formats a value with a K/M suffix for chart axes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.0fK", v/1_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatMetric formats a fit statistic with two decimals, or N/A.
func FormatMetric(v float64, available bool) string {
	if !available || math.IsNaN(v) {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatChange formats the relative change from previous to current.
func FormatChange(current, previous float64) string {
	if previous == 0 {
		return "—"
	}
	delta := (current - previous) / math.Abs(previous)
	if delta >= 0 {
		return "+" + FormatPercent(delta)
	}
	return FormatPercent(delta)
}

// FormatPeriod formats a date range as "2006-01 – 2006-01".
func FormatPeriod(first, last time.Time) string {
	return first.Format("2006-01") + " – " + last.Format("2006-01")
}

// FormatDayOfWeek returns a 3-letter day abbreviation.
func FormatDayOfWeek(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return "???"
	}
	return d.String()[:3]
}

// FormatAge formats how long ago t was, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
