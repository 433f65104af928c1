package promotion

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	multiplier, err := decimal.NewFromString(req.Multiplier)
	if err != nil {
		response.BadRequest(w, "multiplier must be a decimal number")
		return
	}

	adminID := middleware.GetShopperID(r.Context())
	var createdBy *uuid.UUID
	if adminID != uuid.Nil {
		createdBy = &adminID
	}

	p, err := h.svc.Create(r.Context(), CreateInput{
		Kind:       Kind(req.Kind),
		Name:       req.Name,
		Multiplier: multiplier,
		Scope:      Scope(req.Scope),
		ScopeID:    req.ScopeID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		CreatedBy:  createdBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMultiplier),
			errors.Is(err, ErrInvalidWindow),
			errors.Is(err, ErrScopeIDRequired):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, p)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) error {
		return h.svc.Approve(r.Context(), id)
	})
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) error {
		return h.svc.SetActive(r.Context(), id, true)
	})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) error {
		return h.svc.SetActive(r.Context(), id, false)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(id uuid.UUID) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid promotion id")
		return
	}

	if err := fn(id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "promotion not found")
		case errors.Is(err, ErrNotPending), errors.Is(err, ErrNotApproved):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	promos, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"promotions": promos})
}

// Routes mounts the admin promotion surface. Callers must supply auth plus
// an admin role check.
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/activate", h.Activate)
	r.Post("/{id}/deactivate", h.Deactivate)
	return r
}
