package billing

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spiralshops/spiral-api/internal/pkg/response"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) DiscountTier(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("annual_volume_usd")
	if raw == "" {
		response.BadRequest(w, "annual_volume_usd query parameter is required")
		return
	}

	volume, err := strconv.ParseFloat(raw, 64)
	if err != nil || volume < 0 {
		response.BadRequest(w, "annual_volume_usd must be a non-negative number")
		return
	}

	response.OK(w, ResolveTier(volume))
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/discount-tier", h.DiscountTier)
	return r
}
