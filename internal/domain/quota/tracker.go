// Package quota accounts free-tier flyer postings per calendar month.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Tier names reported with each charge.
const (
	TierFree    = "free"
	TierPaid    = "paid"
	TierPremium = "premium"
)

// Receipt describes one posting charge.
type Receipt struct {
	Price     decimal.Decimal  `json:"price"`
	Tier      string           `json:"tier"`
	Remaining Allowance        `json:"remaining"`
	State     model.QuotaState `json:"state"`
}

// Tracker is one user's posting quota. Every method first rolls the counter
// over when the calendar month has changed.
type Tracker struct {
	mu    sync.Mutex
	state model.QuotaState
	settings
}

// NewTracker wraps state. Use NewFreshTracker for a user with no history.
func NewTracker(state model.QuotaState, opts ...Option) *Tracker {
	return &Tracker{state: state, settings: newSettings(opts)}
}

// NewFreshTracker starts an empty tracker stamped with the current month.
func NewFreshTracker(opts ...Option) *Tracker {
	t := &Tracker{settings: newSettings(opts)}
	now := t.now()
	t.state.LastPostingMonth = monthIndex(now)
	t.state.LastPostingYear = now.Year()
	return t
}

// monthIndex is the 0-11 calendar month.
func monthIndex(t time.Time) int { return int(t.Month()) - 1 }

// ResetIfNeeded zeroes the counter on month rollover and reports whether it did.
func (t *Tracker) ResetIfNeeded(_ context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetLocked()
}

func (t *Tracker) resetLocked() bool {
	now := t.now()
	month, year := monthIndex(now), now.Year()
	same := t.state.LastPostingMonth == month
	if t.policy.YearAware {
		same = same && t.state.LastPostingYear == year
	}
	if same {
		return false
	}
	t.state.MonthlyPostingCount = 0
	t.state.LastPostingMonth = month
	t.state.LastPostingYear = year
	return true
}

// Increment records one posting.
func (t *Tracker) Increment(_ context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	t.state.MonthlyPostingCount++
}

// Remaining returns the free postings left this month, or Unlimited for premium users.
func (t *Tracker) Remaining(_ context.Context) Allowance {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	return t.remainingLocked()
}

func (t *Tracker) remainingLocked() Allowance {
	if t.state.IsPremium {
		return Unlimited()
	}
	return Limited(max(0, t.policy.FreeLimit-t.state.MonthlyPostingCount))
}

// Price returns what the next posting costs.
func (t *Tracker) Price(_ context.Context) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	return t.priceLocked()
}

func (t *Tracker) priceLocked() decimal.Decimal {
	if t.state.IsPremium || t.state.MonthlyPostingCount < t.policy.FreeLimit {
		return decimal.Zero
	}
	return t.policy.Price
}

func (t *Tracker) tierLocked() string {
	switch {
	case t.state.IsPremium:
		return TierPremium
	case t.state.MonthlyPostingCount < t.policy.FreeLimit:
		return TierFree
	}
	return TierPaid
}

// Charge records a posting when it is free or the caller accepted the price.
// Otherwise nothing changes and the error wraps model.ErrPaymentRequired; the
// receipt still carries the price.
func (t *Tracker) Charge(_ context.Context, acceptCharge bool) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()

	price := t.priceLocked()
	tier := t.tierLocked()
	if !price.IsZero() && !acceptCharge {
		return Receipt{Price: price, Tier: tier, Remaining: t.remainingLocked(), State: t.state},
			fmt.Errorf("%w: posting costs %s", model.ErrPaymentRequired, price.StringFixed(2))
	}
	t.state.MonthlyPostingCount++
	return Receipt{Price: price, Tier: tier, Remaining: t.remainingLocked(), State: t.state}, nil
}

// Refund takes back one posting recorded this month.
func (t *Tracker) Refund(_ context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	if t.state.MonthlyPostingCount > 0 {
		t.state.MonthlyPostingCount--
	}
}

// SetPremium changes premium status. It takes effect on the next call.
func (t *Tracker) SetPremium(_ context.Context, premium bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	t.state.IsPremium = premium
}

// State returns the current accounting after any rollover.
func (t *Tracker) State(_ context.Context) model.QuotaState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	return t.state
}

// Policy returns the pricing policy in effect.
func (t *Tracker) Policy() Policy { return t.policy }

// rawState returns the stored state without a rollover, for snapshots.
func (t *Tracker) rawState() model.QuotaState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
