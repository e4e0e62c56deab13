package cache

import "time"

// Policy configures capacity and age limits for an LRU.
type Policy struct {
	// MaxEntries is the number of entries kept before the least recently
	// used one is evicted. Zero or negative means unbounded.
	MaxEntries int

	// MaxAge is how long an entry stays readable after it was written.
	// Reads do not extend it. Zero or negative disables age expiry.
	MaxAge time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultPolicy returns the default cache policy.
// MaxEntries: 500, MaxAge: 1 minute
func DefaultPolicy() Policy {
	return Policy{
		MaxEntries: 500,
		MaxAge:     time.Minute,
	}
}

// Bounded reports whether the policy enforces a capacity.
func (p Policy) Bounded() bool {
	return p.MaxEntries > 0
}

// Expired reports whether an entry written at storedAt is too old at now.
func (p Policy) Expired(storedAt, now time.Time) bool {
	if p.MaxAge <= 0 {
		return false
	}
	return now.Sub(storedAt) > p.MaxAge
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
