package catalog

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/flyerhub/internal/domain/model"
)

// Minimum field lengths for a submitted flyer, in characters.
const (
	MinTitleLength        = 3
	MinBusinessNameLength = 2
	MinDescriptionLength  = 10
)

// DraftLocation is the location part of a submission. Pointers distinguish a
// missing coordinate from zero.
type DraftLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

// Draft is a flyer as submitted by a user, before ids and counters exist.
type Draft struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	BusinessName string        `json:"businessName"`
	ImageURL     string        `json:"imageUrl"`
	Category     string        `json:"category"`
	Location     DraftLocation `json:"location"`
	ExpiresAt    string        `json:"expiresAt"`
	Discount     string        `json:"discount,omitempty"`
	CouponCode   string        `json:"couponCode,omitempty"`
}

// Validate checks d against the submission rules and returns the flyer body
// it describes. Identity, timestamps and counters are left for the caller.
func (d Draft) Validate(now time.Time) (model.Flyer, error) {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	title := strings.TrimSpace(d.Title)
	business := strings.TrimSpace(d.BusinessName)
	description := strings.TrimSpace(d.Description)
	check(utf8.RuneCountInString(title) >= MinTitleLength,
		fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	check(utf8.RuneCountInString(business) >= MinBusinessNameLength,
		fmt.Sprintf("businessName must be at least %d characters", MinBusinessNameLength))
	check(utf8.RuneCountInString(description) >= MinDescriptionLength,
		fmt.Sprintf("description must be at least %d characters", MinDescriptionLength))

	category, err := model.ParseCategory(d.Category)
	check(err == nil, fmt.Sprintf("unknown category %q", d.Category))

	u, err := url.Parse(strings.TrimSpace(d.ImageURL))
	check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
		"imageUrl must be an absolute http(s) URL")

	expires, err := time.Parse(time.RFC3339, d.ExpiresAt)
	switch {
	case err != nil:
		problems = append(problems, "expiresAt must be an RFC3339 timestamp")
	case !expires.After(now):
		problems = append(problems, "expiresAt must be in the future")
	}

	var coord model.Coordinate
	if d.Location.Latitude == nil || d.Location.Longitude == nil {
		problems = append(problems, "location latitude and longitude are required")
	} else {
		coord = model.Coordinate{Latitude: *d.Location.Latitude, Longitude: *d.Location.Longitude}
		if err := coord.Validate(); err != nil {
			problems = append(problems, strings.TrimPrefix(err.Error(), model.ErrInvalidArgument.Error()+": "))
		}
	}

	if len(problems) > 0 {
		return model.Flyer{}, fmt.Errorf("%w: %s", model.ErrInvalidArgument, strings.Join(problems, "; "))
	}

	return model.Flyer{
		Title:        title,
		Description:  description,
		BusinessName: business,
		ImageURL:     u.String(),
		Category:     category,
		Location:     model.Location{Coordinate: coord, Address: strings.TrimSpace(d.Location.Address)},
		ExpiresAt:    expires.UTC(),
		Discount:     strings.TrimSpace(d.Discount),
		CouponCode:   strings.TrimSpace(d.CouponCode),
	}, nil
}
