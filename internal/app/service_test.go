package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/flyerhub/internal/adapters/repository"
	service "github.com/okian/flyerhub/internal/app"
	"github.com/okian/flyerhub/internal/domain/catalog"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/quota"
	"github.com/okian/flyerhub/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var fixed = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func ptr(f float64) *float64 { return &f }

func seedFlyer() model.Flyer {
	return model.Flyer{
		ID:           "flyer-a",
		Title:        "Diwali Market",
		Description:  "Sweets, lights and gifts at the community market.",
		BusinessName: "Community Market",
		UserID:       "owner",
		ImageURL:     "https://example.com/market.jpg",
		Category:     model.CategoryMarkets,
		Location:     model.Location{Coordinate: model.Coordinate{Latitude: 37.77, Longitude: -122.41}},
		CreatedAt:    fixed.Add(-48 * time.Hour),
		ExpiresAt:    fixed.Add(30 * 24 * time.Hour),
	}
}

func draft(business string) catalog.Draft {
	return catalog.Draft{
		Title:        "Weekend Sale",
		Description:  "Twenty percent off every spice jar.",
		BusinessName: business,
		ImageURL:     "https://example.com/flyer.jpg",
		Category:     "groceries",
		Location:     catalog.DraftLocation{Latitude: ptr(37.78), Longitude: ptr(-122.40)},
		ExpiresAt:    fixed.Add(72 * time.Hour).Format(time.RFC3339),
	}
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithClock(clock),
		service.WithSeedFlyers([]model.Flyer{seedFlyer()}),
		service.WithQuotaPolicy(quota.Policy{FreeLimit: 1, Price: decimal.RequireFromString("5.99"), YearAware: true}),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService(service.WithWorkerCount(2), service.WithQueueSize(16))
		ctx := context.Background()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is marked as started with the seed catalog", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["flyers"], ShouldEqual, 1)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service with an invalid flush schedule", t, func() {
		svc := newService(service.WithFlushSchedule("whenever"))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})

	Convey("Given a service with a missing seed file", t, func() {
		svc := service.New(service.WithSeedFile(filepath.Join(t.TempDir(), "none.yaml")))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_CreateFlyer(t *testing.T) {
	Convey("Given a started service with one free posting per month", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the first flyer is posted", func() {
			res, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{
				SubmissionID: "sub-1", UserID: "u1", Draft: draft("Spice Corner"),
			})

			Convey("Then it is free and listed", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(res.Receipt.Tier, ShouldEqual, quota.TierFree)
				So(res.Receipt.Price.IsZero(), ShouldBeTrue)
				So(res.Flyer.UserID, ShouldEqual, "u1")
				So(res.Flyer.CreatedAt, ShouldEqual, fixed)

				got, err := svc.Flyer(ctx, res.Flyer.ID)
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "Weekend Sale")
				So(svc.BusinessNameAvailable(ctx, " spice corner "), ShouldBeFalse)
				So(svc.BusinessNames(ctx, "u1"), ShouldResemble, []string{"spice corner"})
			})

			Convey("And the same submission is retried", func() {
				again, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{
					SubmissionID: "sub-1", UserID: "u1", Draft: draft("Spice Corner"),
				})

				Convey("Then the first flyer is returned without a second charge", func() {
					So(err, ShouldBeNil)
					So(again.Duplicate, ShouldBeTrue)
					So(again.Flyer.ID, ShouldEqual, res.Flyer.ID)
					status, err := svc.Quota(ctx, "u1")
					So(err, ShouldBeNil)
					So(status.State.MonthlyPostingCount, ShouldEqual, 1)
				})
			})

			Convey("And a second posting does not accept the charge", func() {
				res2, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{
					SubmissionID: "sub-2", UserID: "u1", Draft: draft("Second Shop"),
				})

				Convey("Then payment is required and nothing sticks", func() {
					So(errors.Is(err, model.ErrPaymentRequired), ShouldBeTrue)
					So(res2.Receipt.Price.Equal(decimal.RequireFromString("5.99")), ShouldBeTrue)
					So(svc.BusinessNameAvailable(ctx, "Second Shop"), ShouldBeTrue)
					So(svc.GetStats()["flyers"], ShouldEqual, 2)
				})

				Convey("Then the same submission may be retried with the charge accepted", func() {
					paid, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{
						SubmissionID: "sub-2", UserID: "u1", Draft: draft("Second Shop"), AcceptCharge: true,
					})
					So(err, ShouldBeNil)
					So(paid.Duplicate, ShouldBeFalse)
					So(paid.Receipt.Tier, ShouldEqual, quota.TierPaid)
					So(paid.Receipt.Price.StringFixed(2), ShouldEqual, "5.99")
				})
			})

			Convey("And another user claims the same business name", func() {
				_, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{UserID: "u2", Draft: draft("SPICE CORNER")})

				Convey("Then it conflicts and the quota is untouched", func() {
					So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
					status, _ := svc.Quota(ctx, "u2")
					So(status.State.MonthlyPostingCount, ShouldEqual, 0)
					So(status.Remaining.Count(), ShouldEqual, 1)
				})
			})
		})

		Convey("When a reserved business name is used", func() {
			_, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{UserID: "u3", Draft: draft("Patel Brothers")})

			Convey("Then it conflicts", func() {
				So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When the draft is invalid", func() {
			d := draft("Spice Corner")
			d.Title = "no"
			_, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{SubmissionID: "sub-x", UserID: "u1", Draft: d})

			Convey("Then it is rejected before anything is claimed", func() {
				So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
				So(svc.BusinessNameAvailable(ctx, "Spice Corner"), ShouldBeTrue)
			})
		})

		Convey("When the user id is missing", func() {
			_, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{Draft: draft("Spice Corner")})
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When one user posts a new business name from many requests at once", func() {
			const requests = 32
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
				refused int
			)
			for i := 0; i < requests; i++ {
				wg.Add(1)
				go func(accept bool) {
					defer wg.Done()
					_, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{
						UserID: "rush", Draft: draft("Rush Hour Deli"), AcceptCharge: accept,
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						created++
					case errors.Is(err, model.ErrPaymentRequired):
						refused++
					}
				}(i%2 == 0)
			}
			wg.Wait()

			Convey("Then the name stays held by the user who got flyers posted", func() {
				So(created, ShouldBeGreaterThan, 0)
				So(created+refused, ShouldEqual, requests)
				So(svc.BusinessNameAvailable(ctx, "Rush Hour Deli"), ShouldBeFalse)
				So(svc.BusinessNames(ctx, "rush"), ShouldResemble, []string{"rush hour deli"})
				_, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{UserID: "u9", Draft: draft("rush hour deli")})
				So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When a premium user posts past the free tier", func() {
			_, err := svc.SetPremium(ctx, "vip", true)
			So(err, ShouldBeNil)
			for _, name := range []string{"Vip One", "Vip Two"} {
				res, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{UserID: "vip", Draft: draft(name)})
				So(err, ShouldBeNil)
				So(res.Receipt.Tier, ShouldEqual, quota.TierPremium)
			}
			status, _ := svc.Quota(ctx, "vip")
			So(status.Remaining.IsUnlimited(), ShouldBeTrue)
		})
	})
}

func TestService_RankingAndReviews(t *testing.T) {
	Convey("Given a started service with a seeded flyer", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When ranking from an origin", func() {
			ranked, err := svc.RankFlyers(ctx, service.FlyerQuery{Origin: &model.Coordinate{Latitude: 37.77, Longitude: -122.41}})

			Convey("Then distances are attached", func() {
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 1)
				So(ranked[0].DistanceKm, ShouldNotBeNil)
				So(*ranked[0].DistanceKm, ShouldEqual, 0.0)
			})
		})

		Convey("When ranking with an invalid origin", func() {
			_, err := svc.RankFlyers(ctx, service.FlyerQuery{Origin: &model.Coordinate{Latitude: 91}})
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When searching and filtering by keyword", func() {
			So(svc.SearchFlyers(ctx, "DIWALI"), ShouldHaveLength, 1)
			ranked, err := svc.RankFlyers(ctx, service.FlyerQuery{Keyword: "cricket"})
			So(err, ShouldBeNil)
			So(ranked, ShouldBeEmpty)
		})

		Convey("When reviews are added", func() {
			_, created, err := svc.AddReview(ctx, model.Review{FlyerID: "flyer-a", UserID: "u1", UserName: "Asha", Rating: 5})
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			r2, _, err := svc.AddReview(ctx, model.Review{FlyerID: "flyer-a", UserID: "u2", UserName: "Ravi", Rating: 4})
			So(err, ShouldBeNil)

			Convey("Then the flyer carries the refreshed rating", func() {
				f, err := svc.Flyer(ctx, "flyer-a")
				So(err, ShouldBeNil)
				So(f.AverageRating, ShouldEqual, 4.5)
				So(f.ReviewCount, ShouldEqual, 2)
				So(svc.Rating(ctx, "flyer-a"), ShouldResemble, model.RatingSummary{AverageRating: 4.5, ReviewCount: 2})
				So(svc.HasReviewed(ctx, "flyer-a", "u2"), ShouldBeTrue)
			})

			Convey("Then helpful votes reorder the list", func() {
				_, ok := svc.MarkHelpful(ctx, r2.ID)
				So(ok, ShouldBeTrue)
				list := svc.Reviews(ctx, "flyer-a")
				So(list[0].ID, ShouldEqual, r2.ID)
				_, ok = svc.MarkHelpful(ctx, "missing")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a review targets an unknown flyer", func() {
			_, _, err := svc.AddReview(ctx, model.Review{FlyerID: "nope", UserID: "u1", Rating: 3})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Redemptions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a code is generated twice for the same pair", func() {
			first, created, err := svc.GenerateCode(ctx, "flyer-a", "u1")
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			second, created, err := svc.GenerateCode(ctx, "flyer-a", "u1")
			So(err, ShouldBeNil)

			Convey("Then the same code comes back", func() {
				So(created, ShouldBeFalse)
				So(second, ShouldResemble, first)
			})

			Convey("Then redeeming changes it exactly once", func() {
				rc, changed := svc.Redeem(ctx, first.ID)
				So(changed, ShouldBeTrue)
				So(rc.IsRedeemed, ShouldBeTrue)
				_, changed = svc.Redeem(ctx, first.ID)
				So(changed, ShouldBeFalse)
				got, err := svc.RedemptionCode(ctx, "flyer-a", "u1")
				So(err, ShouldBeNil)
				So(got.IsRedeemed, ShouldBeTrue)
			})
		})

		Convey("When the flyer is unknown", func() {
			_, _, err := svc.GenerateCode(ctx, "nope", "u1")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When no code was issued", func() {
			_, err := svc.RedemptionCode(ctx, "flyer-a", "nobody")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Persistence(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		store := repository.NewMemoryStore()
		svc := newService(service.WithStore(store))
		ctx := context.Background()

		Convey("When it mutates a store", func() {
			_, _, err := svc.AddReview(ctx, model.Review{FlyerID: "flyer-a", UserID: "u1", Rating: 2})
			So(err, ShouldNotBeNil) // catalog is seeded on Start
			_, err = svc.SetPremium(ctx, "u1", true)
			So(err, ShouldBeNil)

			Convey("Then the snapshot is written inline", func() {
				var states map[string]model.QuotaState
				found, err := store.Load(ctx, repository.KeyQuota, &states)
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(states["u1"].IsPremium, ShouldBeTrue)
			})
		})
	})

	Convey("Given a service backed by sqlite", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "flyerhub.db")
		store, err := repository.NewSQLiteStore(ctx, path)
		So(err, ShouldBeNil)
		svc := newService(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)

		created, err := svc.CreateFlyer(ctx, service.CreateFlyerRequest{UserID: "u1", Draft: draft("Spice Corner")})
		So(err, ShouldBeNil)
		_, _, err = svc.AddReview(ctx, model.Review{FlyerID: created.Flyer.ID, UserID: "u2", Rating: 3})
		So(err, ShouldBeNil)
		code, _, err := svc.GenerateCode(ctx, created.Flyer.ID, "u2")
		So(err, ShouldBeNil)
		So(svc.FlushAll(ctx), ShouldBeNil)
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("When a new service starts on the same file", func() {
			reopened, err := repository.NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			next := service.New(service.WithClock(clock), service.WithStore(reopened))
			So(next.Start(ctx), ShouldBeNil)
			defer func() { _ = next.Stop(ctx) }()

			Convey("Then every store comes back", func() {
				f, err := next.Flyer(ctx, created.Flyer.ID)
				So(err, ShouldBeNil)
				So(f.ReviewCount, ShouldEqual, 1)
				So(next.GetStats()["flyers"], ShouldEqual, 2)

				got, err := next.RedemptionCode(ctx, created.Flyer.ID, "u2")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, code)

				status, err := next.Quota(ctx, "u1")
				So(err, ShouldBeNil)
				So(status.State.MonthlyPostingCount, ShouldEqual, 1)
				So(next.BusinessNameAvailable(ctx, "Spice Corner"), ShouldBeFalse)
			})
		})
	})
}

func TestService_Flush(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService()

		Convey("When an unknown key is flushed", func() {
			err := svc.Flush(context.Background(), "nope")
			So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}
