package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/salescast/internal/logx"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHit bool
}

// LoadWithCache returns the cached series for path when the file's mtime and
// size match the cache entry, and otherwise parses the file and refreshes the
// cache. A nil cache behaves like Load. Cache faults are logged and the file
// is parsed instead.
//
// A cache hit carries the summary and the daily and monthly series, but
// Records stays nil: the raw transactions are not stored.
func LoadWithCache(path string, cache *store.Cache) (*CachedLoadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", model.ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrDataLoad, err)
	}

	if cache != nil {
		if hit, ok := loadCached(path, info, cache); ok {
			return hit, nil
		}
	}

	res, err := Load(path)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		err := cache.Save(path, store.Entry{
			FileInfo: store.FileInfo{
				MtimeNs:   info.ModTime().UnixNano(),
				SizeBytes: info.Size(),
			},
			Summary: res.Summary,
			Daily:   res.Daily,
		})
		if err != nil {
			logx.Log.Warningf("saving %s to cache: %v", path, err)
		}
	}

	return &CachedLoadResult{LoadResult: *res}, nil
}

// loadCached returns the cached result when it is still current.
func loadCached(path string, info os.FileInfo, cache *store.Cache) (*CachedLoadResult, bool) {
	tracked, ok, err := cache.Tracked(path)
	if err != nil {
		logx.Log.Warningf("reading cache for %s, parsing instead: %v", path, err)
		return nil, false
	}
	if !ok || tracked.MtimeNs != info.ModTime().UnixNano() || tracked.SizeBytes != info.Size() {
		return nil, false
	}

	entry, found, err := cache.Load(path)
	if err != nil {
		logx.Log.Warningf("loading cached series for %s, parsing instead: %v", path, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &CachedLoadResult{
		LoadResult: LoadResult{
			Summary: entry.Summary,
			Daily:   entry.Daily,
			Monthly: AggregateMonths(entry.Daily),
		},
		CacheHit: true,
	}, true
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "salescast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "salescast")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "series.db")
}

// LogPath returns the path of the TUI log file.
func LogPath() string {
	return filepath.Join(CacheDir(), "salescast.log")
}
