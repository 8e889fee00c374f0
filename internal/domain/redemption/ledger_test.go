package redemption_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/redemption"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCode(t *testing.T) {
	Convey("Given the default entropy source", t, func() {
		Convey("Then codes should be six symbols from the alphabet", func() {
			for i := 0; i < 200; i++ {
				code, err := redemption.NewCode(nil)
				So(err, ShouldBeNil)
				So(len(code), ShouldEqual, redemption.CodeLength)
				for _, r := range code {
					So(strings.ContainsRune(redemption.Alphabet, r), ShouldBeTrue)
				}
			}
		})
	})

	Convey("Given an exhausted entropy source", t, func() {
		_, err := redemption.NewCode(bytes.NewReader(nil))

		Convey("Then it should fail with ErrEntropy", func() {
			So(errors.Is(err, redemption.ErrEntropy), ShouldBeTrue)
		})
	})
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an empty ledger", t, func() {
		n := 0
		now := fixed
		ledger := redemption.NewLedger(
			redemption.WithClock(func() time.Time { return now }),
			redemption.WithIDGenerator(func() string { n++; return fmt.Sprintf("rc-%d", n) }),
		)

		Convey("When a code is generated twice for the same pair", func() {
			first, created, err := ledger.GenerateCode(ctx, "flyer-1", "user-1")
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			second, created2, err := ledger.GenerateCode(ctx, "flyer-1", "user-1")
			So(err, ShouldBeNil)

			Convey("Then the same id and code should be returned", func() {
				So(created2, ShouldBeFalse)
				So(second.ID, ShouldEqual, first.ID)
				So(second.Code, ShouldEqual, first.Code)
				So(second.IsRedeemed, ShouldBeFalse)
				So(ledger.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When codes are generated for different pairs", func() {
			a, _, _ := ledger.GenerateCode(ctx, "flyer-1", "user-1")
			b, _, _ := ledger.GenerateCode(ctx, "flyer-1", "user-2")
			c, _, _ := ledger.GenerateCode(ctx, "flyer-2", "user-1")

			Convey("Then each pair should get its own record", func() {
				So(a.ID, ShouldNotEqual, b.ID)
				So(b.ID, ShouldNotEqual, c.ID)
				So(ledger.Len(ctx), ShouldEqual, 3)
			})
		})

		Convey("When an id is missing", func() {
			_, _, err := ledger.GenerateCode(ctx, "", "user-1")

			Convey("Then it should fail with ErrInvalidArgument", func() {
				So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
				So(ledger.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a code is redeemed", func() {
			rc, _, _ := ledger.GenerateCode(ctx, "flyer-1", "user-1")
			So(ledger.Redeem(ctx, rc.ID), ShouldBeTrue)
			got, ok := ledger.Get(ctx, "flyer-1", "user-1")
			So(ok, ShouldBeTrue)

			Convey("Then it should carry the redemption time", func() {
				So(got.IsRedeemed, ShouldBeTrue)
				So(*got.RedeemedAt, ShouldEqual, fixed)
			})

			Convey("Then redeeming again should not move redeemedAt", func() {
				now = now.Add(time.Hour)
				So(ledger.Redeem(ctx, rc.ID), ShouldBeFalse)
				again, _ := ledger.ByID(ctx, rc.ID)
				So(*again.RedeemedAt, ShouldEqual, *got.RedeemedAt)
			})

			Convey("Then generating again should return the redeemed code", func() {
				again, created, err := ledger.GenerateCode(ctx, "flyer-1", "user-1")
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again.IsRedeemed, ShouldBeTrue)
			})
		})

		Convey("When an unknown id is redeemed", func() {
			Convey("Then nothing should happen", func() {
				So(ledger.Redeem(ctx, "missing"), ShouldBeFalse)
				So(ledger.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a missing pair is looked up", func() {
			_, ok := ledger.Get(ctx, "flyer-9", "user-9")

			Convey("Then it should not be found", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a returned code is modified by the caller", func() {
			rc, _, _ := ledger.GenerateCode(ctx, "flyer-1", "user-1")
			rc.Code = "XXXXXX"
			rc.IsRedeemed = true

			Convey("Then the ledger should be unaffected", func() {
				got, _ := ledger.Get(ctx, "flyer-1", "user-1")
				So(got.Code, ShouldNotEqual, "XXXXXX")
				So(got.IsRedeemed, ShouldBeFalse)
			})
		})
	})

	Convey("Given many goroutines racing for the same pair", t, func() {
		ledger := redemption.NewLedger()
		var wg sync.WaitGroup
		results := make([]model.RedemptionCode, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _, _ = ledger.GenerateCode(ctx, "flyer-1", "user-1")
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one code should exist", func() {
			So(ledger.Len(ctx), ShouldEqual, 1)
			for _, rc := range results {
				So(rc.ID, ShouldEqual, results[0].ID)
				So(rc.Code, ShouldEqual, results[0].Code)
			}
		})
	})
}

func TestLedgerSnapshot(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger with redeemed and open codes", t, func() {
		ledger := redemption.NewLedger()
		a, _, _ := ledger.GenerateCode(ctx, "flyer-1", "user-1")
		ledger.GenerateCode(ctx, "flyer-2", "user-1")
		ledger.Redeem(ctx, a.ID)

		Convey("When the snapshot is restored into a new ledger", func() {
			snap := ledger.Snapshot(ctx)
			restored := redemption.NewLedger()
			restored.Restore(ctx, snap)

			Convey("Then the state should be identical", func() {
				So(restored.Snapshot(ctx), ShouldResemble, snap)
			})
		})

		Convey("When a snapshot holds the same pair twice", func() {
			snap := ledger.Snapshot(ctx)
			dup := snap[1]
			dup.ID = "other"
			dup.Code = "ZZZZZZ"
			restored := redemption.NewLedger()
			restored.Restore(ctx, append(snap, dup))

			Convey("Then the first record should win", func() {
				So(restored.Len(ctx), ShouldEqual, 2)
				got, _ := restored.Get(ctx, "flyer-2", "user-1")
				So(got.ID, ShouldEqual, snap[1].ID)
			})
		})
	})
}
