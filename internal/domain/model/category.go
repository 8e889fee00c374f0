// Package model contains domain models passed between layers.
package model

import "fmt"

// Category is one of the fixed flyer categories.
type Category string

// Known categories.
const (
	CategoryGroceries   Category = "groceries"
	CategoryRestaurants Category = "restaurants"
	CategoryEvents      Category = "events"
	CategoryMarkets     Category = "markets"
	CategorySports      Category = "sports"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryGroceries,
		CategoryRestaurants,
		CategoryEvents,
		CategoryMarkets,
		CategorySports,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryGroceries, CategoryRestaurants, CategoryEvents, CategoryMarkets, CategorySports:
		return true
	}
	return false
}

// ParseCategory converts s to a Category. Matching is exact.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
	}
	return c, nil
}
