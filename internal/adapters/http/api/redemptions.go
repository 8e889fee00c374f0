package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/flyerhub/internal/domain/model"
)

// RedemptionDependencies defines the interface for redemption code operations.
type RedemptionDependencies interface {
	GenerateCode(ctx context.Context, flyerID, userID string) (model.RedemptionCode, bool, error)
	RedemptionCode(ctx context.Context, flyerID, userID string) (model.RedemptionCode, error)
	Redeem(ctx context.Context, id string) (model.RedemptionCode, bool)
}

// RedemptionHandler handles redemption code requests.
type RedemptionHandler struct {
	deps RedemptionDependencies
}

// NewRedemptionHandler creates a new redemption handler.
func NewRedemptionHandler(deps RedemptionDependencies) *RedemptionHandler {
	return &RedemptionHandler{deps: deps}
}

type generateCodeRequest struct {
	FlyerID string `json:"flyerId"`
	UserID  string `json:"userId"`
}

type redeemResponse struct {
	Redeemed bool                  `json:"redeemed"`
	Code     *model.RedemptionCode `json:"code,omitempty"`
}

// HandleGenerate handles POST /redemptions requests. The first request for a
// pair answers 201; later ones return the same code with 200.
func (h *RedemptionHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_code"
	var req generateCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", Wrap(op, err))
		return
	}
	rc, created, err := h.deps.GenerateCode(r.Context(), strings.TrimSpace(req.FlyerID), strings.TrimSpace(req.UserID))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, rc)
}

// HandleGet handles GET /redemptions?flyerId=&userId= requests.
func (h *RedemptionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_code"
	flyerID, userID := r.URL.Query().Get("flyerId"), r.URL.Query().Get("userId")
	if flyerID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", NewKind(op, ErrBadRequest))
		return
	}
	rc, err := h.deps.RedemptionCode(r.Context(), flyerID, userID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// HandleRedeem handles POST /redemptions/{id}/redeem requests. It always
// answers 200; the body says whether the code changed.
func (h *RedemptionHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	rc, changed := h.deps.Redeem(r.Context(), r.PathValue("id"))
	resp := redeemResponse{Redeemed: changed}
	if rc.ID != "" {
		resp.Code = &rc
	}
	writeJSON(w, http.StatusOK, resp)
}
