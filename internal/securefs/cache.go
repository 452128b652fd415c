package securefs

import (
	"io/fs"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Default TTLs. Validation results are deterministic for a fixed filesystem
// state but can go stale when links change, so both TTLs stay short.
const (
	defaultValidateTTL = 30 * time.Second
	defaultStatTTL     = 5 * time.Second
)

// PathCache memoizes the expensive per-path work: jail validation (which
// walks the filesystem resolving symlinks) and stat calls. Only successful
// results are cached; errors are recomputed on the next call so transient
// failures do not stick.
type PathCache struct {
	validate *gocache.Cache
	stat     *gocache.Cache

	validateTTL time.Duration
	statTTL     time.Duration

	validateTotal atomic.Int64
	validateHits  atomic.Int64
	statTotal     atomic.Int64
	statHits      atomic.Int64
}

// CacheStats reports cache usage for monitoring.
type CacheStats struct {
	ValidateTotal int64
	ValidateHits  int64
	StatTotal     int64
	StatHits      int64
	Entries       int
}

// NewPathCache creates a cache with default TTLs. Expired entries are only
// reclaimed by ClearExpired (or the cleanup goroutine started by
// SecureFS.StartCacheCleanup); no janitor goroutine is spawned here.
func NewPathCache() *PathCache {
	return &PathCache{
		// Zero cleanup interval: expiry is checked on read, reclaimed explicitly.
		validate:    gocache.New(defaultValidateTTL, 0),
		stat:        gocache.New(defaultStatTTL, 0),
		validateTTL: defaultValidateTTL,
		statTTL:     defaultStatTTL,
	}
}

// GetValidatePath returns the memoized validation result for path, computing
// and caching it on miss. Errors are never cached.
func (pc *PathCache) GetValidatePath(path string, compute func(string) (string, error)) (string, error) {
	pc.validateTotal.Add(1)
	if cached, found := pc.validate.Get(path); found {
		pc.validateHits.Add(1)
		return cached.(string), nil
	}

	result, err := compute(path)
	if err != nil {
		return "", err
	}
	pc.validate.Set(path, result, pc.validateTTL)
	return result, nil
}

// GetStat returns the memoized stat result for a validated relative path,
// computing and caching it on miss. Errors are never cached.
func (pc *PathCache) GetStat(relPath string, compute func(string) (fs.FileInfo, error)) (fs.FileInfo, error) {
	pc.statTotal.Add(1)
	if cached, found := pc.stat.Get(relPath); found {
		pc.statHits.Add(1)
		return cached.(fs.FileInfo), nil
	}

	info, err := compute(relPath)
	if err != nil {
		return nil, err
	}
	pc.stat.Set(relPath, info, pc.statTTL)
	return info, nil
}

// Invalidate drops any cached entries for path. Mutating operations call
// this so a removed or renamed file is not reported from stale cache.
func (pc *PathCache) Invalidate(path string) {
	pc.validate.Delete(path)
	pc.stat.Delete(path)
}

// ClearExpired removes expired entries from both caches.
func (pc *PathCache) ClearExpired() {
	pc.validate.DeleteExpired()
	pc.stat.DeleteExpired()
}

// GetCacheStats returns hit/miss counters and the live entry count.
func (pc *PathCache) GetCacheStats() CacheStats {
	return CacheStats{
		ValidateTotal: pc.validateTotal.Load(),
		ValidateHits:  pc.validateHits.Load(),
		StatTotal:     pc.statTotal.Load(),
		StatHits:      pc.statHits.Load(),
		Entries:       pc.validate.ItemCount() + pc.stat.ItemCount(),
	}
}
