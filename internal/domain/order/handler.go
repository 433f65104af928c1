package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spiralshops/spiral-api/internal/middleware"
	"github.com/spiralshops/spiral-api/internal/pkg/response"
	"github.com/spiralshops/spiral-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type checkoutRequest struct {
	SubtotalCents         int64  `json:"subtotal_cents" validate:"gte=0"`
	RequestedRedeemPoints int64  `json:"requested_redeem_points" validate:"gte=0"`
	Pickup                bool   `json:"pickup"`
	Invite                bool   `json:"invite"`
	MallID                string `json:"mall_id"`
	RetailerID            string `json:"retailer_id"`
	OrderReference        string `json:"order_reference" validate:"required,max=128"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	shopperID := middleware.GetShopperID(r.Context())
	if shopperID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req checkoutRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	receipt, err := h.svc.Checkout(r.Context(), Order{
		ShopperID:             shopperID,
		SubtotalCents:         req.SubtotalCents,
		RequestedRedeemPoints: req.RequestedRedeemPoints,
		Pickup:                req.Pickup,
		Invite:                req.Invite,
		MallID:                req.MallID,
		RetailerID:            req.RetailerID,
		OrderReference:        req.OrderReference,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			response.BadRequest(w, "invalid order input")
		case errors.Is(err, ErrInsufficientBalance):
			response.PaymentRequired(w, "INSUFFICIENT_BALANCE", "requested redemption exceeds available SPIRALS balance")
		default:
			response.ServiceUnavailable(w, "order could not be committed, please retry")
		}
		return
	}

	response.Created(w, receipt)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Checkout)
	return r
}
