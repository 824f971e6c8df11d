package pipeline

import (
	"path/filepath"

	"github.com/theirongolddev/salescast/internal/logx"
	"github.com/theirongolddev/salescast/internal/store"
)

// Loader loads transaction files once per path and keeps the result for the
// life of the process.
type Loader struct {
	// CachePath is the SQLite cache used across runs. Empty disables it.
	CachePath string

	memo Memo[*CachedLoadResult]
}

// NewLoader returns a Loader backed by the SQLite cache at cachePath, or by
// no persistent cache when cachePath is empty.
func NewLoader(cachePath string) *Loader {
	return &Loader{CachePath: cachePath}
}

// Load returns the memoized result for path, loading it on first use.
func (l *Loader) Load(path string) (*CachedLoadResult, error) {
	key := memoKey(path)
	return l.memo.Get(key, func() (*CachedLoadResult, error) {
		res, err := l.load(path)
		if err != nil {
			logx.Log.Warningf("loading %s: %v", path, err)
			return nil, err
		}
		logx.Log.Infof("loaded %s: %d days, %d months (cache hit: %v)",
			path, len(res.Daily), len(res.Monthly), res.CacheHit)
		return res, nil
	})
}

// Cached returns the memoized result for path, if any.
func (l *Loader) Cached(path string) (*CachedLoadResult, bool) {
	return l.memo.Peek(memoKey(path))
}

// Invalidate forgets the memoized result for path.
func (l *Loader) Invalidate(path string) {
	l.memo.Invalidate(memoKey(path))
	logx.Log.Debugf("invalidated %s", path)
}

func (l *Loader) load(path string) (*CachedLoadResult, error) {
	if l.CachePath == "" {
		res, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &CachedLoadResult{LoadResult: *res}, nil
	}

	cache, err := store.Open(l.CachePath)
	if err != nil {
		logx.Log.Warningf("cache unavailable, parsing directly: %v", err)
		return LoadWithCache(path, nil)
	}
	defer func() { _ = cache.Close() }()

	return LoadWithCache(path, cache)
}

func memoKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
