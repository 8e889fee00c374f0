// Package review keeps flyer reviews, one per (flyer, user), and derives the
// rating shown on each flyer.
package review

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/numeric"
)

type pairKey struct {
	flyerID string
	userID  string
}

// Aggregator stores reviews keyed by (flyerID, userID).
// All methods are safe for concurrent use.
type Aggregator struct {
	mu     sync.Mutex
	byPair map[pairKey]*model.Review
	byID   map[string]*model.Review
	order  []*model.Review

	now        func() time.Time
	newID      func() string
	maxComment int
}

// NewAggregator creates an empty aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		byPair:     make(map[pairKey]*model.Review),
		byID:       make(map[string]*model.Review),
		now:        time.Now,
		newID:      uuid.NewString,
		maxComment: DefaultMaxCommentLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddReview inserts r, or updates the existing review by the same user for the
// same flyer. An update replaces rating, comment and createdAt in place and
// keeps the stored id, userName and helpful count. created reports which path
// was taken; the stored review is returned.
func (a *Aggregator) AddReview(_ context.Context, r model.Review) (stored model.Review, created bool, err error) {
	if err := a.validate(r); err != nil {
		return model.Review{}, false, err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = a.now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := pairKey{flyerID: r.FlyerID, userID: r.UserID}
	if existing, ok := a.byPair[key]; ok {
		existing.Rating = r.Rating
		existing.Comment = r.Comment
		existing.CreatedAt = r.CreatedAt
		return *existing, false, nil
	}

	if r.ID == "" {
		r.ID = a.newID()
	}
	if _, taken := a.byID[r.ID]; taken {
		return model.Review{}, false, fmt.Errorf("%w: review id %q already exists", model.ErrConflict, r.ID)
	}
	rv := r
	a.insert(&rv)
	return rv, true, nil
}

func (a *Aggregator) validate(r model.Review) error {
	switch {
	case strings.TrimSpace(r.FlyerID) == "" || strings.TrimSpace(r.UserID) == "":
		return fmt.Errorf("%w: flyerId and userId are required", model.ErrInvalidArgument)
	case r.Rating < MinRating || r.Rating > MaxRating:
		return fmt.Errorf("%w: rating %d out of range [%d, %d]", model.ErrInvalidArgument, r.Rating, MinRating, MaxRating)
	case a.maxComment > 0 && utf8.RuneCountInString(r.Comment) > a.maxComment:
		return fmt.Errorf("%w: comment longer than %d characters", model.ErrInvalidArgument, a.maxComment)
	}
	return nil
}

// ByFlyer returns the reviews of flyerID, most helpful first, then newest first.
func (a *Aggregator) ByFlyer(_ context.Context, flyerID string) []model.Review {
	a.mu.Lock()
	out := make([]model.Review, 0)
	for _, r := range a.order {
		if r.FlyerID == flyerID {
			out = append(out, *r)
		}
	}
	a.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Helpful != out[j].Helpful {
			return out[i].Helpful > out[j].Helpful
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// AverageRating is the mean rating of flyerID rounded half-up to one decimal,
// or exactly 0 when the flyer has no reviews.
func (a *Aggregator) AverageRating(ctx context.Context, flyerID string) float64 {
	return a.Summary(ctx, flyerID).AverageRating
}

// Summary returns the average rating and review count of flyerID.
func (a *Aggregator) Summary(_ context.Context, flyerID string) model.RatingSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum, count := 0, 0
	for _, r := range a.order {
		if r.FlyerID == flyerID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return model.RatingSummary{}
	}
	return model.RatingSummary{
		AverageRating: numeric.Tenth(float64(sum) / float64(count)),
		ReviewCount:   count,
	}
}

// MarkHelpful adds one helpful vote to review id. Unknown ids are ignored.
// The updated review is returned when found.
func (a *Aggregator) MarkHelpful(_ context.Context, id string) (model.Review, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.byID[id]
	if !ok {
		return model.Review{}, false
	}
	r.Helpful++
	return *r, true
}

// HasReviewed reports whether userID has reviewed flyerID.
func (a *Aggregator) HasReviewed(_ context.Context, flyerID, userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.byPair[pairKey{flyerID: flyerID, userID: userID}]
	return ok
}

// Get returns the review userID left on flyerID.
func (a *Aggregator) Get(_ context.Context, flyerID, userID string) (model.Review, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.byPair[pairKey{flyerID: flyerID, userID: userID}]
	if !ok {
		return model.Review{}, false
	}
	return *r, true
}

// Len returns the total number of reviews.
func (a *Aggregator) Len(_ context.Context) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Snapshot returns every review in insertion order.
func (a *Aggregator) Snapshot(_ context.Context) []model.Review {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Review, len(a.order))
	for i, r := range a.order {
		out[i] = *r
	}
	return out
}

// Restore replaces the contents with reviews. The first record wins when two
// share a (flyerId, userId) pair or an id.
func (a *Aggregator) Restore(_ context.Context, reviews []model.Review) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.byPair = make(map[pairKey]*model.Review, len(reviews))
	a.byID = make(map[string]*model.Review, len(reviews))
	a.order = make([]*model.Review, 0, len(reviews))
	for i := range reviews {
		r := reviews[i]
		if _, dup := a.byPair[pairKey{flyerID: r.FlyerID, userID: r.UserID}]; dup {
			continue
		}
		if _, dup := a.byID[r.ID]; dup {
			continue
		}
		a.insert(&r)
	}
}

// insert must be called with a.mu held.
func (a *Aggregator) insert(r *model.Review) {
	a.byPair[pairKey{flyerID: r.FlyerID, userID: r.UserID}] = r
	a.byID[r.ID] = r
	a.order = append(a.order, r)
}
