package api

import (
	"context"
	"net/http"

	service "github.com/okian/flyerhub/internal/app"
)

// UserDependencies defines the interface for per-user quota operations.
type UserDependencies interface {
	Quota(ctx context.Context, userID string) (service.QuotaStatus, error)
	SetPremium(ctx context.Context, userID string, premium bool) (service.QuotaStatus, error)
}

// UserHandler handles per-user quota requests.
type UserHandler struct {
	deps UserDependencies
}

// NewUserHandler creates a new user handler.
func NewUserHandler(deps UserDependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

type premiumRequest struct {
	IsPremium *bool `json:"isPremium"`
}

// HandleQuota handles GET /users/{userId}/quota requests.
func (h *UserHandler) HandleQuota(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_quota"
	status, err := h.deps.Quota(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandlePremium handles PUT /users/{userId}/premium requests.
func (h *UserHandler) HandlePremium(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_premium"
	var req premiumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", Wrap(op, err))
		return
	}
	if req.IsPremium == nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", NewKind(op, ErrBadRequest))
		return
	}
	status, err := h.deps.SetPremium(r.Context(), r.PathValue("userId"), *req.IsPremium)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
