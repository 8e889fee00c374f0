package quota

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/flyerhub/internal/domain/model"
)

// Registry holds one Tracker per user, created on first use.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	opts     []Option
	policy   Policy
}

// NewRegistry creates an empty registry. opts apply to every tracker it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		trackers: make(map[string]*Tracker),
		opts:     opts,
		policy:   newSettings(opts).policy,
	}
}

// Tracker returns the tracker for userID, creating it if needed.
func (r *Registry) Tracker(_ context.Context, userID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[userID]
	if !ok {
		t = NewFreshTracker(r.opts...)
		r.trackers[userID] = t
	}
	return t
}

// Charge is Tracker(userID).Charge.
func (r *Registry) Charge(ctx context.Context, userID string, acceptCharge bool) (Receipt, error) {
	return r.Tracker(ctx, userID).Charge(ctx, acceptCharge)
}

// Policy returns the policy applied to new trackers.
func (r *Registry) Policy() Policy { return r.policy }

// Len returns the number of users tracked.
func (r *Registry) Len(_ context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Snapshot returns every user's stored state without applying rollover.
func (r *Registry) Snapshot(_ context.Context) map[string]model.QuotaState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]model.QuotaState, len(r.trackers))
	for id, t := range r.trackers {
		out[id] = t.rawState()
	}
	return out
}

// Restore replaces every tracker with the given states.
func (r *Registry) Restore(_ context.Context, states map[string]model.QuotaState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trackers = make(map[string]*Tracker, len(states))
	for id, st := range states {
		r.trackers[id] = NewTracker(st, r.opts...)
	}
}

// Users returns the tracked user ids in sorted order.
func (r *Registry) Users(_ context.Context) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.trackers))
	for id := range r.trackers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
