package cache

import "context"

// LoadFunc computes the value for a cache miss.
// found=false with a nil error means the lookup confirmed there is nothing.
type LoadFunc[V any] func(ctx context.Context) (value V, found bool, err error)

// Memoize answers key from c, or calls load on a miss and stores the result.
//
// On Hit, returns the cached value without calling load.
// On NegativeHit, returns (zero, false, nil) without calling load.
// On Miss, calls load. Found values are stored. Not-found results are stored
// as negative entries only when negative is true. Errors are NOT cached.
//
// The read and the write are separate cache operations: two callers missing
// on the same key may both run load.
func Memoize[K comparable, V any](
	ctx context.Context,
	c Cache[K, V],
	key K,
	negative bool,
	load LoadFunc[V],
) (V, bool, error) {
	var zero V
	if c == nil {
		return zero, false, ErrNilCache
	}

	switch got := c.Get(key); got.State {
	case Hit:
		return got.Value, true, nil
	case NegativeHit:
		return zero, false, nil
	}

	value, found, err := load(ctx)
	if err != nil {
		// Don't cache errors
		return zero, false, err
	}

	if found {
		c.Set(key, value)
		return value, true, nil
	}
	if negative {
		c.SetNegative(key)
	}
	return zero, false, nil
}
