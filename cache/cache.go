package cache

import (
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a string cache key.
// Keys are usually absolute paths, so this is sized for PATH_MAX.
const MaxKeyLength = 4096

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// State is the outcome of a cache read.
type State int

const (
	// Miss means the key was never stored, was evicted, or has aged out.
	Miss State = iota
	// NegativeHit means an earlier lookup confirmed there is nothing to find.
	NegativeHit
	// Hit means a value is stored for the key.
	Hit
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Miss:
		return "miss"
	case NegativeHit:
		return "negative_hit"
	case Hit:
		return "hit"
	default:
		return "unknown"
	}
}

// Lookup is the result of a cache read.
// Value is only meaningful when State is Hit.
type Lookup[V any] struct {
	State State
	Value V
}

// Found reports whether the lookup produced a value.
func (l Lookup[V]) Found() bool {
	return l.State == Hit
}

// Known reports whether the lookup was answered from the cache, positively or
// negatively.
func (l Lookup[V]) Known() bool {
	return l.State != Miss
}

// Cache is the interface for the bounded lookup caches.
//
// Contract:
// - Concurrency: every method is atomic; sequences of calls are not.
// - Errors: Get never errors; absence is reported through Lookup.State.
// - Ownership: values are stored as given; callers must not mutate shared values.
type Cache[K comparable, V any] interface {
	// Get returns Hit, NegativeHit or Miss for key.
	Get(key K) Lookup[V]

	// Set stores value for key, evicting the least recently used entry on overflow.
	Set(key K, value V)

	// SetNegative records that key resolved to nothing.
	SetNegative(key K)
}

// ValidateKey checks if a string key is usable for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
