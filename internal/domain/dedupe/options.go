package dedupe

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithTTL sets how long a submission id is remembered. Non-positive values
// keep ids until they are unrecorded.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if ttl <= 0 {
			d.ttl = gocache.NoExpiration
			return
		}
		d.ttl = ttl
	}
}

// WithCleanupInterval sets how often expired ids are purged.
func WithCleanupInterval(every time.Duration) Option {
	return func(d *inMemoryDeduper) {
		d.cleanup = every
	}
}
