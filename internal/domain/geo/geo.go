// Package geo ranks flyers by category, distance and recency.
package geo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/numeric"
)

// EarthRadiusKm is the mean earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometres,
// unrounded. The explicit float64 conversions keep the compiler from fusing
// multiply-adds, so results are identical on every architecture.
func Haversine(a, b model.Coordinate) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := float64(sinLat*sinLat) +
		float64(math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*sinLon*sinLon)
	// Rounding can push h past 1 for antipodal points, which would make Sqrt(1-h) NaN.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// Distance validates both points and returns the haversine distance rounded
// half-up to one decimal.
func Distance(a, b model.Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("origin: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("destination: %w", err)
	}
	return numeric.Tenth(Haversine(a, b)), nil
}

// Rank filters flyers by category (when non-nil) and orders them. With an origin
// every flyer gets a DistanceKm and the list is sorted nearest first; without
// one the list is sorted newest first. Both sorts are stable. The input slice is
// never modified.
func Rank(flyers []model.Flyer, category *model.Category, origin *model.Coordinate) ([]model.RankedFlyer, error) {
	if category != nil && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", model.ErrInvalidArgument, *category)
	}
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, fmt.Errorf("origin: %w", err)
		}
	}

	ranked := make([]model.RankedFlyer, 0, len(flyers))
	for i := range flyers {
		if category != nil && flyers[i].Category != *category {
			continue
		}
		rf := model.RankedFlyer{Flyer: flyers[i]}
		if origin != nil {
			d, err := Distance(*origin, flyers[i].Location.Coordinate)
			if err != nil {
				return nil, fmt.Errorf("flyer %s: %w", flyers[i].ID, err)
			}
			rf.DistanceKm = &d
		}
		ranked = append(ranked, rf)
	}

	if origin != nil {
		sort.SliceStable(ranked, func(i, j int) bool {
			return *ranked[i].DistanceKm < *ranked[j].DistanceKm
		})
	} else {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		})
	}
	return ranked, nil
}

// Trending returns the flyers flagged as trending, most reactions first.
func Trending(flyers []model.Flyer) []model.Flyer {
	out := make([]model.Flyer, 0)
	for i := range flyers {
		if flyers[i].IsTrending {
			out = append(out, flyers[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Reactions > out[j].Reactions
	})
	return out
}

// Search returns flyers whose title or description contains query,
// case-insensitively, in input order. A blank query matches nothing.
func Search(flyers []model.Flyer, query string) []model.Flyer {
	out := make([]model.Flyer, 0)
	if strings.TrimSpace(query) == "" {
		return out
	}
	for i := range flyers {
		if matches(flyers[i], query) {
			out = append(out, flyers[i])
		}
	}
	return out
}

// MatchKeyword narrows sports flyers to a sub-category keyword such as
// "cricket". Flyers of other categories pass through untouched, as does
// everything when keyword is blank.
func MatchKeyword(flyers []model.Flyer, keyword string) []model.Flyer {
	if strings.TrimSpace(keyword) == "" {
		return flyers
	}
	out := make([]model.Flyer, 0, len(flyers))
	for i := range flyers {
		if flyers[i].Category != model.CategorySports || matches(flyers[i], keyword) {
			out = append(out, flyers[i])
		}
	}
	return out
}

func matches(f model.Flyer, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(f.Title), q) ||
		strings.Contains(strings.ToLower(f.Description), q)
}
