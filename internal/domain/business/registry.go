// Package business enforces that a business name belongs to one user.
package business

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/flyerhub/internal/domain/model"
)

// DefaultReserved lists names held by businesses that predate self-service
// registration.
var DefaultReserved = []string{
	"patel brothers",
	"taj mahal restaurant",
	"india bazaar",
	"bombay spice",
	"delhi palace",
	"krishna groceries",
}

// Normalize is the comparison form of a business name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Registry maps normalized business names to the user that registered them.
//
// A name claimed by a posting still in flight is provisional: it blocks other
// users but stays out of Names and Snapshot until a claim on it commits.
type Registry struct {
	mu          sync.RWMutex
	owners      map[string]string
	reserved    map[string]struct{}
	provisional map[string]struct{}
	inflight    map[string]int
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithReserved replaces the reserved name list.
func WithReserved(names []string) Option {
	return func(r *Registry) {
		r.reserved = make(map[string]struct{}, len(names))
		for _, n := range names {
			if n = Normalize(n); n != "" {
				r.reserved[n] = struct{}{}
			}
		}
	}
}

// NewRegistry creates a registry holding DefaultReserved unless overridden.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		owners:      make(map[string]string),
		provisional: make(map[string]struct{}),
		inflight:    make(map[string]int),
	}
	WithReserved(DefaultReserved)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsUnique reports whether name is neither reserved nor registered.
func (r *Registry) IsUnique(_ context.Context, name string) bool {
	n := Normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.freeLocked(n)
}

func (r *Registry) freeLocked(n string) bool {
	if _, ok := r.reserved[n]; ok {
		return false
	}
	_, taken := r.owners[n]
	return !taken
}

// Claim is one pending use of a business name. Exactly one of Commit or
// Abort should be called.
type Claim struct {
	reg  *Registry
	name string
	once sync.Once
}

// Claim takes name for userID until the claim is committed or aborted.
// Claiming a name the same user already holds succeeds; a name held by
// someone else, or reserved, is a conflict. Concurrent claims by the same
// user share the name, and it is only dropped when every one of them aborts
// and none committed.
func (r *Registry) Claim(_ context.Context, userID, name string) (*Claim, error) {
	n := Normalize(name)
	if n == "" || strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId and business name are required", model.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[n]; ok {
		if owner != userID {
			return nil, fmt.Errorf("%w: business name %q is taken", model.ErrConflict, name)
		}
	} else {
		if _, ok := r.reserved[n]; ok {
			return nil, fmt.Errorf("%w: business name %q is reserved", model.ErrConflict, name)
		}
		r.owners[n] = userID
		r.provisional[n] = struct{}{}
	}
	r.inflight[n]++
	return &Claim{reg: r, name: n}, nil
}

// Commit makes the name permanently held by its user.
func (c *Claim) Commit() {
	c.once.Do(func() {
		c.reg.mu.Lock()
		defer c.reg.mu.Unlock()
		delete(c.reg.provisional, c.name)
		c.reg.settleLocked(c.name)
	})
}

// Abort gives the claim up. The name is freed when this was its last
// in-flight claim and nothing committed it.
func (c *Claim) Abort() {
	c.once.Do(func() {
		c.reg.mu.Lock()
		defer c.reg.mu.Unlock()
		if c.reg.settleLocked(c.name) == 0 {
			if _, ok := c.reg.provisional[c.name]; ok {
				delete(c.reg.provisional, c.name)
				delete(c.reg.owners, c.name)
			}
		}
	})
}

func (r *Registry) settleLocked(n string) int {
	left := r.inflight[n] - 1
	if left <= 0 {
		delete(r.inflight, n)
		return 0
	}
	r.inflight[n] = left
	return left
}

// Register claims name for userID and commits it at once.
func (r *Registry) Register(ctx context.Context, userID, name string) error {
	c, err := r.Claim(ctx, userID, name)
	if err != nil {
		return err
	}
	c.Commit()
	return nil
}

// Owns reports whether userID holds name.
func (r *Registry) Owns(_ context.Context, userID, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[Normalize(name)]
	return ok && owner == userID
}

// Names returns the normalized names held by userID, sorted.
func (r *Registry) Names(_ context.Context, userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for n, owner := range r.owners {
		if _, ok := r.provisional[n]; ok {
			continue
		}
		if owner == userID {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the name to owner mapping.
func (r *Registry) Snapshot(_ context.Context) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.owners))
	for n, owner := range r.owners {
		if _, ok := r.provisional[n]; ok {
			continue
		}
		out[n] = owner
	}
	return out
}

// Restore replaces every registration. Names are normalized on the way in.
// It is meant for startup, before any claim is in flight.
func (r *Registry) Restore(_ context.Context, owners map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.provisional = make(map[string]struct{})
	r.inflight = make(map[string]int)
	r.owners = make(map[string]string, len(owners))
	for n, owner := range owners {
		if n = Normalize(n); n != "" {
			r.owners[n] = owner
		}
	}
}
