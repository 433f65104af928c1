package ledger

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spiralshops/spiral-api/internal/middleware"
	"github.com/spiralshops/spiral-api/internal/pkg/response"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ReferralCodeProvider resolves a shopper's referral code for the dashboard.
type ReferralCodeProvider interface {
	ReferralCode(ctx context.Context, shopperID uuid.UUID) (string, error)
}

type Handler struct {
	svc       *Service
	referrals ReferralCodeProvider
}

func NewHandler(svc *Service, referrals ReferralCodeProvider) *Handler {
	return &Handler{svc: svc, referrals: referrals}
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	shopperID := middleware.GetShopperID(r.Context())
	if shopperID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.Balance(r.Context(), shopperID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	shopperID := middleware.GetShopperID(r.Context())
	if shopperID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.svc.History(r.Context(), shopperID, limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"entries": entries})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	shopperID := middleware.GetShopperID(r.Context())
	if shopperID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	dashboard, err := h.svc.Dashboard(r.Context(), shopperID)
	if err != nil {
		response.InternalError(w)
		return
	}

	if h.referrals != nil {
		code, err := h.referrals.ReferralCode(r.Context(), shopperID)
		if err == nil {
			dashboard.ReferralCode = code
		}
	}

	response.OK(w, dashboard)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/history", h.History)
	r.Get("/dashboard", h.Dashboard)
	return r
}
