// Package cache provides the bounded, age-limited caches behind every lookup
// in fmtcache.
//
// It provides a generic LRU with capacity and age eviction, a three-way
// Lookup result that keeps "confirmed absent" apart from "never looked up",
// and a Memoize helper shared by the directory search, engine locator and
// config resolver.
package cache
