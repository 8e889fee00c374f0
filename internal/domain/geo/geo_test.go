package geo_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/flyerhub/internal/domain/geo"
	"github.com/okian/flyerhub/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func flyerAt(id string, cat model.Category, lat, lon float64, createdAt time.Time) model.Flyer {
	return model.Flyer{
		ID:        id,
		Title:     "Flyer " + id,
		Category:  cat,
		Location:  model.Location{Coordinate: model.Coordinate{Latitude: lat, Longitude: lon}},
		CreatedAt: createdAt,
	}
}

func ids(in []model.RankedFlyer) []string {
	out := make([]string, len(in))
	for i := range in {
		out[i] = in[i].ID
	}
	return out
}

func TestHaversine(t *testing.T) {
	Convey("Given pairs of coordinates", t, func() {
		points := []model.Coordinate{
			{Latitude: 0, Longitude: 0},
			{Latitude: 40.7128, Longitude: -74.0060},
			{Latitude: 34.0522, Longitude: -118.2437},
			{Latitude: -33.8688, Longitude: 151.2093},
			{Latitude: 89.9, Longitude: 179.9},
			{Latitude: -89.9, Longitude: -179.9},
		}

		Convey("Then distance should be symmetric bit for bit", func() {
			for _, a := range points {
				for _, b := range points {
					So(geo.Haversine(a, b), ShouldEqual, geo.Haversine(b, a))
				}
			}
		})

		Convey("Then the distance from a point to itself should be zero", func() {
			for _, p := range points {
				So(geo.Haversine(p, p), ShouldEqual, 0.0)
			}
		})

		Convey("Then one degree of longitude on the equator should be about 111.2 km", func() {
			d, err := geo.Distance(points[0], model.Coordinate{Latitude: 0, Longitude: 1})
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 111.2)
		})

		Convey("Then New York to Los Angeles should be about 3936 km", func() {
			d := geo.Haversine(points[1], points[2])
			So(d, ShouldAlmostEqual, 3935.7, 1.0)
		})
	})

	Convey("Given exactly antipodal points", t, func() {
		origin := model.Coordinate{Latitude: 18.83885183633153, Longitude: 158.58327169620446}
		far := model.Coordinate{Latitude: -18.83885183633153, Longitude: -21.416728303795537}

		Convey("Then the distance should be half the circumference, never NaN", func() {
			So(math.IsNaN(geo.Haversine(origin, far)), ShouldBeFalse)
			d, err := geo.Distance(origin, far)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 20015.1)
		})

		Convey("Then ranking should put the origin first and encode cleanly", func() {
			flyers := []model.Flyer{
				flyerAt("far", model.CategoryEvents, far.Latitude, far.Longitude, time.Unix(0, 0)),
				flyerAt("near", model.CategoryEvents, origin.Latitude, origin.Longitude, time.Unix(0, 0)),
			}
			ranked, err := geo.Rank(flyers, nil, &origin)
			So(err, ShouldBeNil)
			So(ids(ranked), ShouldResemble, []string{"near", "far"})
			So(*ranked[1].DistanceKm, ShouldEqual, 20015.1)
			_, err = json.Marshal(ranked)
			So(err, ShouldBeNil)
		})
	})
}

func TestDistanceValidation(t *testing.T) {
	Convey("Given malformed coordinates", t, func() {
		good := model.Coordinate{Latitude: 10, Longitude: 10}

		Convey("When the origin is NaN", func() {
			_, err := geo.Distance(model.Coordinate{Latitude: math.NaN()}, good)
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the destination latitude is out of range", func() {
			_, err := geo.Distance(good, model.Coordinate{Latitude: 91})
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestRank(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	t3 := t2.Add(24 * time.Hour)

	Convey("Given the two-flyer scenario with an origin at 0,0", t, func() {
		flyers := []model.Flyer{
			flyerAt("a", model.CategoryGroceries, 0, 0, t1),
			flyerAt("b", model.CategoryGroceries, 0, 1, t2),
		}
		origin := &model.Coordinate{Latitude: 0, Longitude: 0}

		ranked, err := geo.Rank(flyers, nil, origin)

		Convey("Then the nearer flyer should come first with rounded distances", func() {
			So(err, ShouldBeNil)
			So(ids(ranked), ShouldResemble, []string{"a", "b"})
			So(*ranked[0].DistanceKm, ShouldEqual, 0.0)
			So(*ranked[1].DistanceKm, ShouldEqual, 111.2)
		})
	})

	Convey("Given flyers across categories", t, func() {
		flyers := []model.Flyer{
			flyerAt("g1", model.CategoryGroceries, 0, 2, t1),
			flyerAt("r1", model.CategoryRestaurants, 0, 0.5, t3),
			flyerAt("g2", model.CategoryGroceries, 0, 1, t2),
			flyerAt("e1", model.CategoryEvents, 0, 0.1, t1),
		}

		Convey("When filtering by category without an origin", func() {
			cat := model.CategoryGroceries
			ranked, err := geo.Rank(flyers, &cat, nil)

			Convey("Then only that category should remain, newest first, without distances", func() {
				So(err, ShouldBeNil)
				So(ids(ranked), ShouldResemble, []string{"g2", "g1"})
				for _, r := range ranked {
					So(r.DistanceKm, ShouldBeNil)
				}
			})
		})

		Convey("When ranking everything without an origin", func() {
			ranked, err := geo.Rank(flyers, nil, nil)

			Convey("Then equal timestamps should keep input order", func() {
				So(err, ShouldBeNil)
				So(ids(ranked), ShouldResemble, []string{"r1", "g2", "g1", "e1"})
			})
		})

		Convey("When ranking everything with an origin", func() {
			ranked, err := geo.Rank(flyers, nil, &model.Coordinate{})

			Convey("Then flyers should be sorted by distance ascending", func() {
				So(err, ShouldBeNil)
				So(ids(ranked), ShouldResemble, []string{"e1", "r1", "g2", "g1"})
			})

			Convey("And ranking again should give the same order", func() {
				again, err := geo.Rank(flyers, nil, &model.Coordinate{})
				So(err, ShouldBeNil)
				So(ids(again), ShouldResemble, ids(ranked))
			})
		})

		Convey("When the input slice is ranked", func() {
			_, _ = geo.Rank(flyers, nil, &model.Coordinate{})

			Convey("Then the input order should be untouched", func() {
				So(flyers[0].ID, ShouldEqual, "g1")
				So(flyers[3].ID, ShouldEqual, "e1")
			})
		})
	})

	Convey("Given flyers at identical distance", t, func() {
		flyers := []model.Flyer{
			flyerAt("x", model.CategoryMarkets, 1, 0, t1),
			flyerAt("y", model.CategoryMarkets, -1, 0, t2),
			flyerAt("z", model.CategoryMarkets, 0, 1, t3),
		}

		Convey("Then ties should keep input order", func() {
			ranked, err := geo.Rank(flyers, nil, &model.Coordinate{})
			So(err, ShouldBeNil)
			So(ids(ranked), ShouldResemble, []string{"x", "y", "z"})

			reversed := []model.Flyer{flyers[2], flyers[1], flyers[0]}
			ranked, err = geo.Rank(reversed, nil, &model.Coordinate{})
			So(err, ShouldBeNil)
			So(ids(ranked), ShouldResemble, []string{"z", "y", "x"})
		})
	})

	Convey("Given malformed input", t, func() {
		Convey("When the origin is out of range", func() {
			_, err := geo.Rank(nil, nil, &model.Coordinate{Latitude: 120})
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When a flyer has NaN coordinates", func() {
			flyers := []model.Flyer{flyerAt("bad", model.CategoryEvents, math.NaN(), 0, t1)}
			_, err := geo.Rank(flyers, nil, &model.Coordinate{})
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the category is unknown", func() {
			cat := model.Category("hardware")
			_, err := geo.Rank(nil, &cat, nil)
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When a flyer has NaN coordinates but no origin is given", func() {
			flyers := []model.Flyer{flyerAt("bad", model.CategoryEvents, math.NaN(), 0, t1)}
			ranked, err := geo.Rank(flyers, nil, nil)
			So(err, ShouldBeNil)
			So(ranked, ShouldHaveLength, 1)
		})
	})
}

func TestTrendingSearchKeyword(t *testing.T) {
	Convey("Given a mixed flyer list", t, func() {
		now := time.Now()
		flyers := []model.Flyer{
			{ID: "1", Title: "Diwali Mela", Description: "Food and lights", IsTrending: true, Reactions: 10, Category: model.CategoryEvents, CreatedAt: now},
			{ID: "2", Title: "Cricket League", Description: "Weekend tournament", IsTrending: true, Reactions: 50, Category: model.CategorySports, CreatedAt: now},
			{ID: "3", Title: "Badminton Open", Description: "Doubles only", Reactions: 99, Category: model.CategorySports, CreatedAt: now},
			{ID: "4", Title: "Spice Sale", Description: "20% off on all MASALA", IsTrending: true, Reactions: 10, Category: model.CategoryGroceries, CreatedAt: now},
		}

		Convey("When selecting trending flyers", func() {
			out := geo.Trending(flyers)

			Convey("Then only trending ones should remain, most reactions first, ties stable", func() {
				So(len(out), ShouldEqual, 3)
				So(out[0].ID, ShouldEqual, "2")
				So(out[1].ID, ShouldEqual, "1")
				So(out[2].ID, ShouldEqual, "4")
			})
		})

		Convey("When searching case-insensitively", func() {
			So(len(geo.Search(flyers, "masala")), ShouldEqual, 1)
			So(geo.Search(flyers, "DIWALI")[0].ID, ShouldEqual, "1")
			So(geo.Search(flyers, "   "), ShouldBeEmpty)
			So(geo.Search(flyers, "nothing-matches"), ShouldBeEmpty)
		})

		Convey("When narrowing sports flyers by keyword", func() {
			out := geo.MatchKeyword(flyers, "cricket")

			Convey("Then non-matching sports flyers should be dropped and others kept", func() {
				got := make([]string, 0, len(out))
				for _, f := range out {
					got = append(got, f.ID)
				}
				So(got, ShouldResemble, []string{"1", "2", "4"})
			})

			Convey("And a blank keyword should keep everything", func() {
				So(geo.MatchKeyword(flyers, ""), ShouldHaveLength, 4)
			})
		})
	})
}
