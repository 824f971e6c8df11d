package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salescast/internal/model"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "sub", "series.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleEntry() Entry {
	d0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return Entry{
		FileInfo: FileInfo{MtimeNs: 1700000000000000000, SizeBytes: 512},
		Summary: model.DataSummary{
			Records:   4,
			FirstDate: d0,
			LastDate:  d0.AddDate(0, 0, 2),
			TotalQty:  12.5,
		},
		Daily: []model.DailyQty{
			{Date: d0, Qty: 3},
			{Date: d0.AddDate(0, 0, 1), Qty: 0},
			{Date: d0.AddDate(0, 0, 2), Qty: 9.5},
		},
	}
}

func TestCache_SaveLoadRoundTrip(t *testing.T) {
	c := openTemp(t)
	want := sampleEntry()

	require.NoError(t, c.Save("/data/sales.csv", want))

	fi, ok, err := c.Tracked("/data/sales.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.FileInfo, fi)

	got, ok, err := c.Load("/data/sales.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	n, err := c.FileCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_SaveReplacesSeries(t *testing.T) {
	c := openTemp(t)
	e := sampleEntry()
	require.NoError(t, c.Save("a.csv", e))

	e.Daily = e.Daily[:1]
	e.SizeBytes = 100
	require.NoError(t, c.Save("a.csv", e))

	got, ok, err := c.Load("a.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.Daily, 1)
	assert.Equal(t, int64(100), got.SizeBytes)
}

func TestCache_MissAndDelete(t *testing.T) {
	c := openTemp(t)

	_, ok, err := c.Tracked("nope.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Save("x.csv", sampleEntry()))
	require.NoError(t, c.Delete("x.csv"))

	_, ok, err = c.Load("x.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}
