package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/flyerhub/internal/adapters/repository"
	"github.com/okian/flyerhub/internal/domain/catalog"
	"github.com/okian/flyerhub/internal/domain/geo"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/quota"
	"github.com/okian/flyerhub/pkg/logger"
	"github.com/okian/flyerhub/pkg/metrics"
)

// FlyerQuery narrows and orders the catalog. Nil fields do not filter.
type FlyerQuery struct {
	Category *model.Category
	Origin   *model.Coordinate
	Keyword  string
}

// CreateFlyerRequest is a flyer submission.
type CreateFlyerRequest struct {
	// SubmissionID makes retries idempotent. Empty disables deduplication.
	SubmissionID string
	UserID       string
	Draft        catalog.Draft
	// AcceptCharge confirms the user agreed to pay when the free tier is used up.
	AcceptCharge bool
}

// CreateFlyerResult is the outcome of a submission.
type CreateFlyerResult struct {
	Flyer model.Flyer `json:"flyer"`
	// Receipt is zero for a duplicate submission.
	Receipt   quota.Receipt `json:"receipt"`
	Duplicate bool          `json:"duplicate"`
}

// RankFlyers filters the catalog by keyword and category and orders it by
// distance from the origin, or by recency when no origin is given.
func (s *Service) RankFlyers(ctx context.Context, q FlyerQuery) ([]model.RankedFlyer, error) {
	start := time.Now()
	flyers := s.catalog.List(ctx)
	if q.Keyword != "" {
		flyers = geo.MatchKeyword(flyers, q.Keyword)
	}
	ranked, err := geo.Rank(flyers, q.Category, q.Origin)
	if err != nil {
		return nil, err
	}
	metrics.RecordFlyersRanked(len(ranked), time.Since(start))
	return ranked, nil
}

// TrendingFlyers returns trending flyers, most reacted first.
func (s *Service) TrendingFlyers(ctx context.Context) []model.Flyer {
	return geo.Trending(s.catalog.List(ctx))
}

// SearchFlyers matches query against titles and descriptions.
func (s *Service) SearchFlyers(ctx context.Context, query string) []model.Flyer {
	return geo.Search(s.catalog.List(ctx), query)
}

// Flyer returns flyer id with its rating recomputed from the current reviews.
func (s *Service) Flyer(ctx context.Context, id string) (model.Flyer, error) {
	if _, err := s.catalog.Get(ctx, id); err != nil {
		return model.Flyer{}, err
	}
	return s.refreshRating(ctx, id)
}

// refreshRating writes the review summary of flyer id into the catalog.
func (s *Service) refreshRating(ctx context.Context, id string) (model.Flyer, error) {
	summary := s.reviews.Summary(ctx, id)
	current, err := s.catalog.Get(ctx, id)
	if err != nil {
		return model.Flyer{}, err
	}
	if current.AverageRating == summary.AverageRating && current.ReviewCount == summary.ReviewCount {
		return current, nil
	}
	f, err := s.catalog.SetRating(ctx, id, summary)
	if err != nil {
		return model.Flyer{}, err
	}
	s.save(ctx, repository.KeyCatalog)
	return f, nil
}

// CreateFlyer validates a submission, claims its business name, charges the
// posting quota and adds the flyer. A failure at any step undoes the earlier
// ones. A repeated submission id returns the flyer the first attempt created.
func (s *Service) CreateFlyer(ctx context.Context, req CreateFlyerRequest) (CreateFlyerResult, error) {
	log := s.logger.Named("create-flyer")

	if strings.TrimSpace(req.UserID) == "" {
		return CreateFlyerResult{}, fmt.Errorf("%w: userId is required", model.ErrInvalidArgument)
	}
	if _, err := req.Draft.Validate(s.now().UTC()); err != nil {
		return CreateFlyerResult{}, err
	}

	if req.SubmissionID != "" {
		if s.deduper.SeenAndRecord(ctx, req.SubmissionID) {
			metrics.RecordDuplicateSubmission()
			return s.duplicateSubmission(ctx, req.SubmissionID)
		}
	}
	undo := func() {
		if req.SubmissionID != "" {
			s.deduper.Unrecord(ctx, req.SubmissionID)
		}
	}

	claim, err := s.businesses.Claim(ctx, req.UserID, req.Draft.BusinessName)
	if err != nil {
		undo()
		return CreateFlyerResult{}, err
	}
	prev := undo
	undo = func() {
		claim.Abort()
		prev()
	}

	tracker := s.quotas.Tracker(ctx, req.UserID)
	if tracker.ResetIfNeeded(ctx) {
		metrics.RecordQuotaReset()
	}
	receipt, err := tracker.Charge(ctx, req.AcceptCharge)
	if err != nil {
		undo()
		metrics.RecordPaymentRequired()
		return CreateFlyerResult{Receipt: receipt}, err
	}

	f, err := s.catalog.Create(ctx, req.Draft, req.UserID)
	if err != nil {
		tracker.Refund(ctx)
		undo()
		return CreateFlyerResult{}, err
	}
	claim.Commit()
	if req.SubmissionID != "" {
		s.deduper.Bind(ctx, req.SubmissionID, f.ID)
	}

	metrics.RecordFlyerCreated()
	metrics.RecordPosting(receipt.Tier)
	metrics.UpdateCatalogSize(s.catalog.Len(ctx))
	log.Info(ctx, "flyer created",
		logger.String("flyerID", f.ID),
		logger.String("userID", req.UserID),
		logger.String("tier", receipt.Tier),
		logger.String("price", receipt.Price.StringFixed(2)),
	)
	s.save(ctx, repository.KeyCatalog, repository.KeyQuota, repository.KeyBusiness)

	return CreateFlyerResult{Flyer: f, Receipt: receipt}, nil
}

func (s *Service) duplicateSubmission(ctx context.Context, submissionID string) (CreateFlyerResult, error) {
	flyerID, ok := s.deduper.Result(ctx, submissionID)
	if !ok {
		return CreateFlyerResult{}, ErrSubmissionPending
	}
	f, err := s.catalog.Get(ctx, flyerID)
	if err != nil {
		return CreateFlyerResult{}, err
	}
	return CreateFlyerResult{Flyer: f, Duplicate: true}, nil
}

// BusinessNameAvailable reports whether name can still be registered.
func (s *Service) BusinessNameAvailable(ctx context.Context, name string) bool {
	return s.businesses.IsUnique(ctx, name)
}

// BusinessNames lists the business names userID holds.
func (s *Service) BusinessNames(ctx context.Context, userID string) []string {
	return s.businesses.Names(ctx, userID)
}
