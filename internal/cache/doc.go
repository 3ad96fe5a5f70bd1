// Package cache provides the generic LRU caches used by the script engine
// (constant expression values) and the asset cache (file contents).
//
//	c := cache.New[string, []float64](512)
//	v := c.GetOrCreate("0.5", func() []float64 { return []float64{0.5} })
//
//	files := cache.NewSharded[string, *entry](64, cache.StringHasher)
//	files.Set(path, e)
//
// Both caches are safe for concurrent use and must not be copied.
package cache
