package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/okian/flyerhub/internal/adapters/repository"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/quota"
	"github.com/okian/flyerhub/pkg/logger"
	"github.com/okian/flyerhub/pkg/metrics"
)

// QuotaStatus is what a user's next posting will cost.
type QuotaStatus struct {
	UserID    string           `json:"userId"`
	Remaining quota.Allowance  `json:"remaining"`
	Price     decimal.Decimal  `json:"price"`
	State     model.QuotaState `json:"state"`
}

// GenerateCode returns the redemption code of (flyerID, userID), issuing one
// on first request.
func (s *Service) GenerateCode(ctx context.Context, flyerID, userID string) (model.RedemptionCode, bool, error) {
	if _, err := s.catalog.Get(ctx, flyerID); err != nil {
		return model.RedemptionCode{}, false, err
	}
	rc, created, err := s.redemptions.GenerateCode(ctx, flyerID, userID)
	if err != nil {
		return model.RedemptionCode{}, false, err
	}
	metrics.RecordRedemptionCode(created)
	if created {
		s.save(ctx, repository.KeyRedemptions)
	}
	return rc, created, nil
}

// RedemptionCode looks up the code issued for (flyerID, userID).
func (s *Service) RedemptionCode(ctx context.Context, flyerID, userID string) (model.RedemptionCode, error) {
	rc, ok := s.redemptions.Get(ctx, flyerID, userID)
	if !ok {
		return model.RedemptionCode{}, fmt.Errorf("%w: no redemption code for flyer %q and user %q", model.ErrNotFound, flyerID, userID)
	}
	return rc, nil
}

// Redeem marks code id as used. It reports false, without error, when the
// code is unknown or already redeemed.
func (s *Service) Redeem(ctx context.Context, id string) (model.RedemptionCode, bool) {
	changed := s.redemptions.Redeem(ctx, id)
	rc, _ := s.redemptions.ByID(ctx, id)
	if changed {
		metrics.RecordRedemption()
		s.save(ctx, repository.KeyRedemptions)
	}
	return rc, changed
}

// AddReview stores r, replacing the user's earlier review of the same flyer,
// and refreshes the flyer's denormalized rating.
func (s *Service) AddReview(ctx context.Context, r model.Review) (model.Review, bool, error) {
	if _, err := s.catalog.Get(ctx, r.FlyerID); err != nil {
		return model.Review{}, false, err
	}
	stored, created, err := s.reviews.AddReview(ctx, r)
	if err != nil {
		return model.Review{}, false, err
	}
	metrics.RecordReview(created)
	s.save(ctx, repository.KeyReviews)
	if _, err := s.refreshRating(ctx, r.FlyerID); err != nil {
		s.logger.Warn(ctx, "rating refresh failed", logger.String("flyerID", r.FlyerID), logger.Error(err))
	}
	return stored, created, nil
}

// Reviews lists the reviews of flyerID, most helpful first.
func (s *Service) Reviews(ctx context.Context, flyerID string) []model.Review {
	return s.reviews.ByFlyer(ctx, flyerID)
}

// Rating returns the average rating and review count of flyerID.
func (s *Service) Rating(ctx context.Context, flyerID string) model.RatingSummary {
	return s.reviews.Summary(ctx, flyerID)
}

// HasReviewed reports whether userID reviewed flyerID.
func (s *Service) HasReviewed(ctx context.Context, flyerID, userID string) bool {
	return s.reviews.HasReviewed(ctx, flyerID, userID)
}

// MarkHelpful adds one helpful vote to review id. It reports false, without
// error, when the review is unknown.
func (s *Service) MarkHelpful(ctx context.Context, id string) (model.Review, bool) {
	r, ok := s.reviews.MarkHelpful(ctx, id)
	if ok {
		metrics.RecordHelpfulVote()
		s.save(ctx, repository.KeyReviews)
	}
	return r, ok
}

// Quota reports userID's remaining free postings and the current posting price.
func (s *Service) Quota(ctx context.Context, userID string) (QuotaStatus, error) {
	if userID == "" {
		return QuotaStatus{}, fmt.Errorf("%w: userId is required", model.ErrInvalidArgument)
	}
	return s.quotaStatus(ctx, userID, s.quotas.Tracker(ctx, userID)), nil
}

// SetPremium switches userID's premium status.
func (s *Service) SetPremium(ctx context.Context, userID string, premium bool) (QuotaStatus, error) {
	if userID == "" {
		return QuotaStatus{}, fmt.Errorf("%w: userId is required", model.ErrInvalidArgument)
	}
	t := s.quotas.Tracker(ctx, userID)
	t.SetPremium(ctx, premium)
	s.save(ctx, repository.KeyQuota)
	return s.quotaStatus(ctx, userID, t), nil
}

func (s *Service) quotaStatus(ctx context.Context, userID string, t *quota.Tracker) QuotaStatus {
	if t.ResetIfNeeded(ctx) {
		metrics.RecordQuotaReset()
	}
	return QuotaStatus{
		UserID:    userID,
		Remaining: t.Remaining(ctx),
		Price:     t.Price(ctx),
		State:     t.State(ctx),
	}
}
