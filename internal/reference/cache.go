package reference

import "github.com/cznic/mathutil"

// CacheStats counts how Bases requests were served.
type CacheStats struct {
	Hits     uint64 // served from the cached window
	Misses   uint64 // cacheable, but the window had to be refilled
	Bypasses uint64 // too large for the cache, fetched at exact bounds
	Fetches  uint64 // raw fetches issued to the index
}

type cacheEntry struct {
	covering Range
	bases    string
}

// rangeCache holds the last window fetched from the index. A request is a hit
// only if the window fully contains it.
//
// Refills start at the requested position and read ahead up to size bases,
// stopping at the contig end. Windows are not aligned to a grid: a request
// that starts just before the cached window refetches a whole window even
// though most of it overlaps. Sequential forward scans, the common access
// pattern, never hit that case.
type rangeCache struct {
	size  int64 // 0 disables the cache
	entry *cacheEntry
}

// shouldUse reports whether r is small enough to go through the cache.
// Larger requests bypass it so one big read does not evict a useful window.
func (c *rangeCache) shouldUse(r Range) bool {
	return c.size > 0 && r.Len() <= c.size
}

// lookup returns the bases of r if the cached window contains it.
func (c *rangeCache) lookup(r Range) (string, bool) {
	if c.entry == nil || !c.entry.covering.Contains(r) {
		return "", false
	}
	off := r.Start - c.entry.covering.Start
	return c.entry.bases[off : off+r.Len()], true
}

// planRefill returns the window to fetch on a miss for r.
func (c *rangeCache) planRefill(r Range, contigLength int64) Range {
	return Range{
		Contig: r.Contig,
		Start:  r.Start,
		End:    mathutil.MinInt64(r.Start+c.size, contigLength),
	}
}

// install replaces the cached window.
func (c *rangeCache) install(covering Range, bases string) {
	c.entry = &cacheEntry{covering: covering, bases: bases}
}

func (c *rangeCache) reset() {
	c.entry = nil
}
