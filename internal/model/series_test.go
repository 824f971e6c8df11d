package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth_Arithmetic(t *testing.T) {
	m := Month{Year: 2023, Month: time.November}

	assert.Equal(t, Month{Year: 2023, Month: time.December}, m.Next())
	assert.Equal(t, Month{Year: 2024, Month: time.February}, m.AddMonths(3))
	assert.Equal(t, Month{Year: 2022, Month: time.December}, m.AddMonths(-11))
	assert.Equal(t, 3, m.AddMonths(3).Sub(m))
	assert.True(t, m.Before(m.Next()))
	assert.False(t, m.Next().Before(m))
	assert.Equal(t, "2023-11", m.String())
	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), m.Start())
	assert.True(t, Month{}.IsZero())
}

func TestMonth_Text(t *testing.T) {
	var m Month
	require.NoError(t, m.UnmarshalText([]byte("2025-04")))
	assert.Equal(t, Month{Year: 2025, Month: time.April}, m)

	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-04", string(b))

	assert.Error(t, m.UnmarshalText([]byte("April 2025")))
}

func TestMonthOf_IgnoresDay(t *testing.T) {
	got := MonthOf(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, Month{Year: 2024, Month: time.February}, got)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Day(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
}
