package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/flyerhub/internal/domain/model"
)

// ReviewDependencies defines the interface for review operations.
type ReviewDependencies interface {
	AddReview(ctx context.Context, r model.Review) (model.Review, bool, error)
	Reviews(ctx context.Context, flyerID string) []model.Review
	Rating(ctx context.Context, flyerID string) model.RatingSummary
	HasReviewed(ctx context.Context, flyerID, userID string) bool
	MarkHelpful(ctx context.Context, id string) (model.Review, bool)
}

// ReviewHandler handles review requests.
type ReviewHandler struct {
	deps ReviewDependencies
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(deps ReviewDependencies) *ReviewHandler {
	return &ReviewHandler{deps: deps}
}

// addReviewRequest mirrors the OpenAPI schema for POST /reviews. The server
// assigns id, createdAt and the helpful count.
type addReviewRequest struct {
	FlyerID  string `json:"flyerId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type hasReviewedResponse struct {
	FlyerID     string `json:"flyerId"`
	UserID      string `json:"userId"`
	HasReviewed bool   `json:"hasReviewed"`
}

type helpfulResponse struct {
	Marked bool          `json:"marked"`
	Review *model.Review `json:"review,omitempty"`
}

// HandleAdd handles POST /reviews requests. A first review answers 201; an
// update of the user's earlier review answers 200.
func (h *ReviewHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_review"
	var req addReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", Wrap(op, err))
		return
	}
	stored, created, err := h.deps.AddReview(r.Context(), model.Review{
		FlyerID:  strings.TrimSpace(req.FlyerID),
		UserID:   strings.TrimSpace(req.UserID),
		UserName: strings.TrimSpace(req.UserName),
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, stored)
}

// HandleList handles GET /flyers/{id}/reviews requests.
func (h *ReviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Reviews(r.Context(), r.PathValue("id")))
}

// HandleRating handles GET /flyers/{id}/rating requests.
func (h *ReviewHandler) HandleRating(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Rating(r.Context(), r.PathValue("id")))
}

// HandleHasReviewed handles GET /flyers/{id}/reviews/{userId} requests.
func (h *ReviewHandler) HandleHasReviewed(w http.ResponseWriter, r *http.Request) {
	flyerID, userID := r.PathValue("id"), r.PathValue("userId")
	writeJSON(w, http.StatusOK, hasReviewedResponse{
		FlyerID:     flyerID,
		UserID:      userID,
		HasReviewed: h.deps.HasReviewed(r.Context(), flyerID, userID),
	})
}

// HandleHelpful handles POST /reviews/{id}/helpful requests. Unknown ids still
// answer 200 with marked set to false.
func (h *ReviewHandler) HandleHelpful(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.deps.MarkHelpful(r.Context(), r.PathValue("id"))
	resp := helpfulResponse{Marked: ok}
	if ok {
		resp.Review = &rv
	}
	writeJSON(w, http.StatusOK, resp)
}
