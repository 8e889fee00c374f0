// Package catalog is the flyer content source: an ordered, in-memory set of
// flyers that can be seeded from YAML and extended by user submissions.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/flyerhub/internal/domain/model"
)

// IDPrefix starts every generated flyer id.
const IDPrefix = "flyer-"

// Source supplies flyers in a stable order.
type Source interface {
	List(ctx context.Context) []model.Flyer
	Get(ctx context.Context, id string) (model.Flyer, error)
}

// InMemory is a Source backed by a map plus insertion order.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []model.Flyer

	now   func() time.Time
	newID func() string
}

var _ Source = (*InMemory)(nil)

// NewInMemory creates an empty catalog.
func NewInMemory(opts ...Option) *InMemory {
	c := &InMemory{
		byID:  make(map[string]int),
		now:   time.Now,
		newID: func() string { return IDPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every flyer in insertion order.
func (c *InMemory) List(_ context.Context) []model.Flyer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Flyer, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the flyer with id or an error wrapping model.ErrNotFound.
func (c *InMemory) Get(_ context.Context, id string) (model.Flyer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return model.Flyer{}, fmt.Errorf("%w: flyer %q", model.ErrNotFound, id)
	}
	return c.items[i], nil
}

// Len returns the number of flyers.
func (c *InMemory) Len(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Add appends complete flyers such as seeds. It fails without changing
// anything if an id is empty or already present.
func (c *InMemory) Add(_ context.Context, flyers ...model.Flyer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(flyers))
	for _, f := range flyers {
		if strings.TrimSpace(f.ID) == "" {
			return fmt.Errorf("%w: flyer id is required", model.ErrInvalidArgument)
		}
		if _, dup := c.byID[f.ID]; dup {
			return fmt.Errorf("%w: flyer %q already exists", model.ErrConflict, f.ID)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: flyer %q listed twice", model.ErrConflict, f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	for _, f := range flyers {
		c.byID[f.ID] = len(c.items)
		c.items = append(c.items, f)
	}
	return nil
}

// Create validates d and appends it as a new flyer owned by userID.
func (c *InMemory) Create(_ context.Context, d Draft, userID string) (model.Flyer, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Flyer{}, fmt.Errorf("%w: userId is required", model.ErrInvalidArgument)
	}
	now := c.now().UTC()
	f, err := d.Validate(now)
	if err != nil {
		return model.Flyer{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f.ID = c.newID()
	if _, dup := c.byID[f.ID]; dup {
		return model.Flyer{}, fmt.Errorf("%w: flyer %q already exists", model.ErrConflict, f.ID)
	}
	f.UserID = userID
	f.CreatedAt = now
	c.byID[f.ID] = len(c.items)
	c.items = append(c.items, f)
	return f, nil
}

// SetRating stores the denormalized rating of flyer id.
func (c *InMemory) SetRating(_ context.Context, id string, s model.RatingSummary) (model.Flyer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byID[id]
	if !ok {
		return model.Flyer{}, fmt.Errorf("%w: flyer %q", model.ErrNotFound, id)
	}
	c.items[i].AverageRating = s.AverageRating
	c.items[i].ReviewCount = s.ReviewCount
	return c.items[i], nil
}

// Snapshot returns every flyer in insertion order.
func (c *InMemory) Snapshot(ctx context.Context) []model.Flyer {
	return c.List(ctx)
}

// Restore replaces the catalog with flyers. Later duplicates of an id are dropped.
func (c *InMemory) Restore(_ context.Context, flyers []model.Flyer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[string]int, len(flyers))
	c.items = make([]model.Flyer, 0, len(flyers))
	for _, f := range flyers {
		if _, dup := c.byID[f.ID]; dup {
			continue
		}
		c.byID[f.ID] = len(c.items)
		c.items = append(c.items, f)
	}
}
