package review

import "time"

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source for reviews submitted without createdAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator sets the generator for review ids.
func WithIDGenerator(newID func() string) Option {
	return func(a *Aggregator) {
		if newID != nil {
			a.newID = newID
		}
	}
}

// WithMaxCommentLength caps comment length in runes. Non-positive values disable the cap.
func WithMaxCommentLength(n int) Option {
	return func(a *Aggregator) {
		a.maxComment = n
	}
}
