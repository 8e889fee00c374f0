package model

import "time"

// RedemptionCode is a per-user, per-flyer coupon code redeemable in person.
type RedemptionCode struct {
	ID         string     `json:"id"`
	FlyerID    string     `json:"flyerId"`
	UserID     string     `json:"userId"`
	Code       string     `json:"code"`
	IsRedeemed bool       `json:"isRedeemed"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
}
