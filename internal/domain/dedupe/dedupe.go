// Package dedupe tracks idempotency keys for client submissions.
package dedupe

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// pending marks a key that was recorded but not yet bound to a result.
const pending = ""

// Deduper records seen submission ids so a retried request is processed once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the submission can be retried, typically after
	// the work it guarded failed.
	Unrecord(ctx context.Context, id string)

	// Bind attaches the id of the resource a recorded submission produced.
	Bind(ctx context.Context, id, result string)

	// Result returns what id was bound to. ok is false while the submission
	// is still in flight or when id is unknown.
	Result(ctx context.Context, id string) (result string, ok bool)

	Size() int64
}

// inMemoryDeduper keeps ids in a go-cache with a per-entry TTL.
type inMemoryDeduper struct {
	cache   *gocache.Cache
	ttl     time.Duration
	cleanup time.Duration
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		ttl:     24 * time.Hour,
		cleanup: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = gocache.New(d.ttl, d.cleanup)
	return d
}

// SeenAndRecord relies on Cache.Add, which only stores when the key is absent
// or expired.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	return d.cache.Add(id, pending, gocache.DefaultExpiration) != nil
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Delete(id)
}

// Bind keeps the original expiry window measured from now.
func (d *inMemoryDeduper) Bind(_ context.Context, id, result string) {
	d.cache.Set(id, result, gocache.DefaultExpiration)
}

func (d *inMemoryDeduper) Result(_ context.Context, id string) (string, bool) {
	v, ok := d.cache.Get(id)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	if s == pending {
		return "", false
	}
	return s, true
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.cache.ItemCount())
}
