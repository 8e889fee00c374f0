package model

import "time"

// Review is one user's rating of a flyer. At most one exists per (FlyerID, UserID).
type Review struct {
	ID        string    `json:"id"`
	FlyerID   string    `json:"flyerId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	Helpful   int       `json:"helpful"`
}

// RatingSummary is the denormalized rating shown on a flyer.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}
