package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/flyerhub/internal/app"
	"github.com/okian/flyerhub/internal/domain/catalog"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/quota"
	"github.com/shopspring/decimal"
)

// FlyerDependencies defines the interface for flyer operations.
type FlyerDependencies interface {
	RankFlyers(ctx context.Context, q service.FlyerQuery) ([]model.RankedFlyer, error)
	TrendingFlyers(ctx context.Context) []model.Flyer
	SearchFlyers(ctx context.Context, query string) []model.Flyer
	Flyer(ctx context.Context, id string) (model.Flyer, error)
	CreateFlyer(ctx context.Context, req service.CreateFlyerRequest) (service.CreateFlyerResult, error)
	BusinessNameAvailable(ctx context.Context, name string) bool
}

// FlyerHandler handles flyer listing, lookup and submission.
type FlyerHandler struct {
	deps FlyerDependencies
}

// NewFlyerHandler creates a new flyer handler.
func NewFlyerHandler(deps FlyerDependencies) *FlyerHandler {
	return &FlyerHandler{deps: deps}
}

// createFlyerRequest mirrors the OpenAPI schema for POST /flyers.
type createFlyerRequest struct {
	catalog.Draft
	SubmissionID string `json:"submissionId"`
	UserID       string `json:"userId"`
	AcceptCharge bool   `json:"acceptCharge"`
}

// paymentRequiredResponse is the 402 body. It tells the client what to accept.
type paymentRequiredResponse struct {
	errorResponse
	Price     decimal.Decimal `json:"price"`
	Remaining quota.Allowance `json:"remaining"`
}

type businessNameResponse struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// HandleList handles GET /flyers?category=&lat=&lon=&keyword= requests.
func (h *FlyerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_flyers"
	q, err := parseFlyerQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", WrapKind(op, ErrBadRequest, err))
		return
	}
	ranked, err := h.deps.RankFlyers(r.Context(), q)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func parseFlyerQuery(r *http.Request) (service.FlyerQuery, error) {
	values := r.URL.Query()
	q := service.FlyerQuery{Keyword: strings.TrimSpace(values.Get("keyword"))}

	if raw := values.Get("category"); raw != "" {
		c, err := model.ParseCategory(raw)
		if err != nil {
			return q, err
		}
		q.Category = &c
	}

	lat, lon := values.Get("lat"), values.Get("lon")
	switch {
	case lat == "" && lon == "":
	case lat == "" || lon == "":
		return q, fmt.Errorf("%w: lat and lon must be given together", model.ErrInvalidArgument)
	default:
		la, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return q, fmt.Errorf("%w: lat %q is not a number", model.ErrInvalidArgument, lat)
		}
		lo, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return q, fmt.Errorf("%w: lon %q is not a number", model.ErrInvalidArgument, lon)
		}
		q.Origin = &model.Coordinate{Latitude: la, Longitude: lo}
	}
	return q, nil
}

// HandleTrending handles GET /flyers/trending requests.
func (h *FlyerHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.TrendingFlyers(r.Context()))
}

// HandleSearch handles GET /flyers/search?q= requests.
func (h *FlyerHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.SearchFlyers(r.Context(), r.URL.Query().Get("q")))
}

// HandleGet handles GET /flyers/{id} requests.
func (h *FlyerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_flyer"
	f, err := h.deps.Flyer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleCreate handles POST /flyers requests. A new flyer answers 201; a
// repeated submissionId answers 200 with the flyer the first attempt created.
func (h *FlyerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_flyer"
	var req createFlyerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", Wrap(op, err))
		return
	}

	res, err := h.deps.CreateFlyer(r.Context(), service.CreateFlyerRequest{
		SubmissionID: strings.TrimSpace(req.SubmissionID),
		UserID:       strings.TrimSpace(req.UserID),
		Draft:        req.Draft,
		AcceptCharge: req.AcceptCharge,
	})
	if err != nil {
		status, code := statusFor(err)
		if status == http.StatusPaymentRequired {
			writeJSON(w, status, paymentRequiredResponse{
				errorResponse: errorResponse{Code: code, Message: Wrap(op, err).Error()},
				Price:         res.Receipt.Price,
				Remaining:     res.Receipt.Remaining,
			})
			return
		}
		writeError(w, status, code, Wrap(op, err))
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// HandleCheckBusinessName handles GET /business-names/check?name= requests.
func (h *FlyerHandler) HandleCheckBusinessName(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_business_name"
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, businessNameResponse{
		Name:      name,
		Available: h.deps.BusinessNameAvailable(r.Context(), name),
	})
}
