package model

import "time"

// Location is where a flyer's store or event is.
type Location struct {
	Coordinate
	Address string `json:"address,omitempty"`
}

// Flyer is a promotional listing. Ranking treats it as immutable input.
type Flyer struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	BusinessName  string    `json:"businessName"`
	UserID        string    `json:"userId"`
	ImageURL      string    `json:"imageUrl"`
	Category      Category  `json:"category"`
	Location      Location  `json:"location"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Views         int       `json:"views"`
	Reactions     int       `json:"reactions"`
	IsTrending    bool      `json:"isTrending"`
	Discount      string    `json:"discount,omitempty"`
	CouponCode    string    `json:"couponCode,omitempty"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
}

// RankedFlyer is a Flyer with the distance from the ranking origin.
// DistanceKm is nil when no origin was supplied.
type RankedFlyer struct {
	Flyer
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}
