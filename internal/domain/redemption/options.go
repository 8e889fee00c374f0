package redemption

import (
	"io"
	"time"
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for redeemedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator sets the generator for RedemptionCode ids.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// WithRandom sets the entropy source used to draw codes.
func WithRandom(r io.Reader) Option {
	return func(l *Ledger) {
		if r != nil {
			l.random = r
		}
	}
}
