package pipeline

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/store"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoad_ZeroFillsAndSumsMonths(t *testing.T) {
	path := writeCSV(t,
		"Tanggal,Qty",
		"2023-01-01,3",
		"2023-01-03,5",
	)

	res, err := Load(path)
	require.NoError(t, err)

	require.Len(t, res.Daily, 3)
	assert.Equal(t, []float64{3, 0, 5}, []float64{res.Daily[0].Qty, res.Daily[1].Qty, res.Daily[2].Qty})
	assert.Equal(t, day(2023, 1, 2), res.Daily[1].Date)

	require.Len(t, res.Monthly, 1)
	assert.Equal(t, model.Month{Year: 2023, Month: time.January}, res.Monthly[0].Month)
	assert.InDelta(t, 8, res.Monthly[0].Qty, 1e-9)

	assert.Equal(t, 2, res.Summary.Records)
	assert.Equal(t, day(2023, 1, 1), res.Summary.FirstDate)
	assert.Equal(t, day(2023, 1, 3), res.Summary.LastDate)
}

func TestAggregateDays_Properties(t *testing.T) {
	records := []model.Transaction{
		{Date: day(2023, 3, 30), Qty: 2},
		{Date: day(2023, 1, 15), Qty: 1},
		{Date: day(2023, 3, 30), Qty: 4},
		{Date: day(2023, 2, 1), Qty: 7},
	}

	daily := AggregateDays(records)
	first, last := day(2023, 1, 15), day(2023, 3, 30)
	wantLen := int(last.Sub(first).Hours()/24) + 1
	require.Len(t, daily, wantLen)

	var total float64
	for i, d := range daily {
		if i > 0 {
			assert.Equal(t, daily[i-1].Date.AddDate(0, 0, 1), d.Date, "gap at %d", i)
		}
		total += d.Qty
	}
	assert.InDelta(t, 14, total, 1e-9)
	assert.InDelta(t, 6, daily[len(daily)-1].Qty, 1e-9)

	monthly := AggregateMonths(daily)
	require.Len(t, monthly, 3)
	for _, m := range monthly {
		var sum float64
		for _, d := range daily {
			if model.MonthOf(d.Date) == m.Month {
				sum += d.Qty
			}
		}
		assert.InDelta(t, sum, m.Qty, 1e-9, m.Month.String())
	}
}

func TestAggregateMonths_FillsEmptyMonths(t *testing.T) {
	daily := AggregateDays([]model.Transaction{
		{Date: day(2022, 11, 30), Qty: 1},
		{Date: day(2023, 2, 1), Qty: 1},
	})
	monthly := AggregateMonths(daily)
	require.Len(t, monthly, 4)
	assert.Equal(t, "2022-12", monthly[1].Month.String())
	assert.Zero(t, monthly[1].Qty)
	assert.Zero(t, monthly[2].Qty)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, AggregateDays(nil))
	assert.Nil(t, AggregateMonths(nil))
	assert.True(t, Summarize(nil).Empty())
}

func TestFilterDays(t *testing.T) {
	daily := AggregateDays([]model.Transaction{
		{Date: day(2023, 1, 1), Qty: 1},
		{Date: day(2023, 1, 10), Qty: 1},
	})
	got := FilterDays(daily, day(2023, 1, 3), day(2023, 1, 6))
	require.Len(t, got, 3)
	assert.Equal(t, day(2023, 1, 3), got[0].Date)
	assert.Len(t, FilterDays(daily, time.Time{}, time.Time{}), 10)
}

func TestDescribe(t *testing.T) {
	daily := AggregateDays([]model.Transaction{
		{Date: day(2023, 1, 1), Qty: 5},
		{Date: day(2023, 2, 3), Qty: 9},
		{Date: day(2023, 2, 4), Qty: 2},
	})
	st := Describe(daily, AggregateMonths(daily), 2)
	assert.Equal(t, 2, st.Months)
	assert.InDelta(t, 16, st.Total, 1e-9)
	assert.InDelta(t, 8, st.Mean, 1e-9)
	assert.Equal(t, "2023-02", st.Peak.Month.String())
	assert.Equal(t, "2023-01", st.Trough.Month.String())
	require.Len(t, st.BusiestDays, 2)
	assert.InDelta(t, 9, st.BusiestDays[0].Qty, 1e-9)
	assert.Equal(t, len(daily)-3, st.ZeroDays)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrFileNotFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := writeCSV(t, "Tanggal,Qty", "not-a-date,1")
	res, err := Load(bad)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, model.ErrDataFormat))
}

func TestLoadWithCache_BrokenCacheFallsBackToParsing(t *testing.T) {
	path := writeCSV(t, "Tanggal,Qty", "2023-01-01,3", "2023-01-02,4")

	// A data_files table from an incompatible schema survives Open.
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE data_files (file_path TEXT PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cache, err := store.Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	res, err := LoadWithCache(path, cache)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Summary.Records)
	assert.InDelta(t, 7, res.Summary.TotalQty, 1e-9)
}

func TestLoadWithCache_HitOnUnchangedFile(t *testing.T) {
	path := writeCSV(t,
		"Tanggal,Qty",
		"2023-01-01,3",
		"2023-01-03,5",
		"2023-02-10,1",
	)
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(path, cache)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Len(t, first.Records, 3)

	second, err := LoadWithCache(path, cache)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Nil(t, second.Records, "raw transactions are not cached")
	assert.Equal(t, 3, second.Summary.Records)
	assert.Equal(t, first.Daily, second.Daily)
	assert.Equal(t, first.Monthly, second.Monthly)
	assert.Equal(t, first.Summary, second.Summary)

	// Rewriting the file changes its size, forcing a reparse.
	require.NoError(t, os.WriteFile(path, []byte("Tanggal,Qty\n2023-01-01,30\n"), 0o600))
	third, err := LoadWithCache(path, cache)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Len(t, third.Daily, 1)
}

func TestMemo_CachesSuccessOnly(t *testing.T) {
	var m Memo[int]
	var calls atomic.Int32
	fail := true
	fn := func() (int, error) {
		calls.Add(1)
		if fail {
			return 0, errors.New("boom")
		}
		return 7, nil
	}

	_, err := m.Get("k", fn)
	require.Error(t, err)

	fail = false
	v, err := m.Get("k", fn)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = m.Get("k", fn)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(2), calls.Load())

	m.Invalidate("k")
	_, ok := m.Peek("k")
	assert.False(t, ok)
	_, _ = m.Get("k", fn)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMemo_ConcurrentGetComputesOnce(t *testing.T) {
	var m Memo[string]
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get("k", func() (string, error) {
				calls.Add(1)
				<-release
				return "v", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_InvalidatePicksUpChanges(t *testing.T) {
	path := writeCSV(t, "Tanggal,Qty", "2023-01-01,3")
	l := NewLoader("")

	res, err := l.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 3, res.Summary.TotalQty, 1e-9)

	require.NoError(t, os.WriteFile(path, []byte("Tanggal,Qty\n2023-01-01,4\n"), 0o600))
	res, err = l.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 3, res.Summary.TotalQty, 1e-9, "memoized until invalidated")

	l.Invalidate(path)
	res, err = l.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 4, res.Summary.TotalQty, 1e-9)
}

func TestLoader_FailureNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.csv")
	l := NewLoader(filepath.Join(t.TempDir(), "cache.db"))

	_, err := l.Load(path)
	require.ErrorIs(t, err, model.ErrFileNotFound)

	require.NoError(t, os.WriteFile(path, []byte("Tanggal,Qty\n2023-05-01,2\n"), 0o600))
	res, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Records)
}
