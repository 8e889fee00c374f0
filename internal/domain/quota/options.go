package quota

import (
	"time"

	"github.com/shopspring/decimal"
)

// Defaults for the free tier.
const DefaultFreeLimit = 5

// DefaultPrice is the overage price once the free tier is used up.
var DefaultPrice = decimal.RequireFromString("5.99")

// Policy holds the pricing constants shared by every tracker.
type Policy struct {
	FreeLimit int
	Price     decimal.Decimal
	// YearAware compares year and month on rollover. When false only the
	// month index is compared, so a December posting still counts a year later.
	YearAware bool
}

// DefaultPolicy returns 5 free postings a month and a 5.99 overage price.
func DefaultPolicy() Policy {
	return Policy{FreeLimit: DefaultFreeLimit, Price: DefaultPrice, YearAware: true}
}

// Validate rejects negative limits and prices.
func (p Policy) Validate() error {
	if p.FreeLimit < 0 {
		return ErrNegativeLimit
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

type settings struct {
	policy Policy
	now    func() time.Time
}

// Option configures a Tracker or a Registry.
type Option func(*settings)

// WithPolicy replaces the whole pricing policy.
func WithPolicy(p Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithFreeLimit sets the number of free postings per month.
func WithFreeLimit(n int) Option {
	return func(s *settings) {
		s.policy.FreeLimit = n
	}
}

// WithPrice sets the overage price.
func WithPrice(price decimal.Decimal) Option {
	return func(s *settings) {
		s.policy.Price = price
	}
}

// WithYearAware toggles year-and-month rollover.
func WithYearAware(enabled bool) Option {
	return func(s *settings) {
		s.policy.YearAware = enabled
	}
}

// WithClock sets the time source used to detect month rollover.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{policy: DefaultPolicy(), now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
