// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/flyerhub/internal/domain/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	FlyerDependencies
	RedemptionDependencies
	ReviewDependencies
	UserDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	flyerHandler      *FlyerHandler
	redemptionHandler *RedemptionHandler
	reviewHandler     *ReviewHandler
	userHandler       *UserHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		flyerHandler:      NewFlyerHandler(deps),
		redemptionHandler: NewRedemptionHandler(deps),
		reviewHandler:     NewReviewHandler(deps),
		userHandler:       NewUserHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /flyers", MetricsMiddleware(s.flyerHandler.HandleList, "flyers"))
	mux.HandleFunc("POST /flyers", MetricsMiddleware(s.flyerHandler.HandleCreate, "flyers_create"))
	mux.HandleFunc("GET /flyers/trending", MetricsMiddleware(s.flyerHandler.HandleTrending, "flyers_trending"))
	mux.HandleFunc("GET /flyers/search", MetricsMiddleware(s.flyerHandler.HandleSearch, "flyers_search"))
	mux.HandleFunc("GET /flyers/{id}", MetricsMiddleware(s.flyerHandler.HandleGet, "flyer"))
	mux.HandleFunc("GET /business-names/check", MetricsMiddleware(s.flyerHandler.HandleCheckBusinessName, "business_names_check"))

	mux.HandleFunc("POST /redemptions", MetricsMiddleware(s.redemptionHandler.HandleGenerate, "redemptions_generate"))
	mux.HandleFunc("GET /redemptions", MetricsMiddleware(s.redemptionHandler.HandleGet, "redemptions"))
	mux.HandleFunc("POST /redemptions/{id}/redeem", MetricsMiddleware(s.redemptionHandler.HandleRedeem, "redemptions_redeem"))

	mux.HandleFunc("POST /reviews", MetricsMiddleware(s.reviewHandler.HandleAdd, "reviews_add"))
	mux.HandleFunc("POST /reviews/{id}/helpful", MetricsMiddleware(s.reviewHandler.HandleHelpful, "reviews_helpful"))
	mux.HandleFunc("GET /flyers/{id}/reviews", MetricsMiddleware(s.reviewHandler.HandleList, "flyer_reviews"))
	mux.HandleFunc("GET /flyers/{id}/rating", MetricsMiddleware(s.reviewHandler.HandleRating, "flyer_rating"))
	mux.HandleFunc("GET /flyers/{id}/reviews/{userId}", MetricsMiddleware(s.reviewHandler.HandleHasReviewed, "flyer_has_reviewed"))

	mux.HandleFunc("GET /users/{userId}/quota", MetricsMiddleware(s.userHandler.HandleQuota, "user_quota"))
	mux.HandleFunc("PUT /users/{userId}/premium", MetricsMiddleware(s.userHandler.HandlePremium, "user_premium"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps a domain error kind to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidArgument), errors.Is(err, ErrBadRequest), errors.Is(err, ErrBadJSON):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrPaymentRequired):
		return http.StatusPaymentRequired, "payment_required"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError writes err with the status its kind maps to.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, Wrap(op, err))
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadJSON, err)
	}
	return nil
}
