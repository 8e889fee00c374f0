// Package repository persists whole-store snapshots under string keys.
package repository

import "context"

// Snapshot keys used by the service.
const (
	KeyRedemptions = "redemption-storage"
	KeyReviews     = "review-storage"
	KeyQuota       = "quota-storage"
	KeyBusiness    = "business-storage"
	KeyCatalog     = "catalog-storage"
)

// Keys lists every snapshot key in load order.
func Keys() []string {
	return []string{KeyCatalog, KeyRedemptions, KeyReviews, KeyQuota, KeyBusiness}
}

// Store is a key-value persistence layer for JSON-encodable snapshots.
type Store interface {
	// Load decodes the value saved under key into dst.
	// found is false, and dst untouched, when nothing was saved yet.
	Load(ctx context.Context, key string, dst any) (found bool, err error)

	// Save encodes value and replaces whatever key held.
	Save(ctx context.Context, key string, value any) error

	// Keys returns the saved keys in sorted order.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}
