package catalog

import "time"

// Option applies a configuration option to the InMemory catalog.
type Option func(*InMemory)

// WithClock sets the time source for createdAt and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *InMemory) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator sets the generator for flyer ids.
func WithIDGenerator(newID func() string) Option {
	return func(c *InMemory) {
		if newID != nil {
			c.newID = newID
		}
	}
}
