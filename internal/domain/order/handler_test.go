package order_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spiralshops/spiral-api/internal/domain/ledger"
	"github.com/spiralshops/spiral-api/internal/domain/order"
	"github.com/spiralshops/spiral-api/internal/middleware"
	"github.com/spiralshops/spiral-api/internal/pkg/jwt"
)

type checkoutAPIResponse struct {
	Success bool `json:"success"`
	Data    struct {
		OrderID       string `json:"order_id"`
		SubtotalCents int64  `json:"subtotal_cents"`
		TotalCents    int64  `json:"total_cents"`
		EarnedPoints  int64  `json:"earned_points"`
		AppliedRedeem int64  `json:"applied_redeem"`
		Replayed      bool   `json:"replayed"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestCheckoutEndpoint(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	store.seed(shopperID, 1000, ledger.ReasonSignupBonus, nil)

	h := order.NewHandler(newService(store, stubPromos{}))

	jwtSvc := jwt.NewService("order-integration-secret", time.Hour, 24*time.Hour)
	token, err := jwtSvc.GenerateAccessToken(shopperID, "shopper")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/api/v1/orders", h.Routes(middleware.Auth(jwtSvc)))

	t.Run("POST / commits and returns receipt", func(t *testing.T) {
		resp := performCheckout(t, r, token, map[string]interface{}{
			"subtotal_cents":          int64(2500),
			"requested_redeem_points": int64(500),
			"order_reference":         "http-order-1",
		})
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
		body := decodeCheckoutResponse(t, resp)
		if !body.Success {
			t.Fatalf("expected success, got %+v", body)
		}
		if body.Data.AppliedRedeem != 500 || body.Data.TotalCents != 2000 || body.Data.EarnedPoints != 25 {
			t.Fatalf("unexpected receipt: %+v", body.Data)
		}
	})

	t.Run("POST / replay returns same receipt", func(t *testing.T) {
		resp := performCheckout(t, r, token, map[string]interface{}{
			"subtotal_cents":          int64(2500),
			"requested_redeem_points": int64(500),
			"order_reference":         "http-order-1",
		})
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.Code)
		}
		body := decodeCheckoutResponse(t, resp)
		if !body.Data.Replayed {
			t.Fatalf("expected replayed receipt")
		}
		if body.Data.AppliedRedeem != 500 || body.Data.TotalCents != 2000 {
			t.Fatalf("replay receipt diverged: %+v", body.Data)
		}
	})

	t.Run("POST / insufficient balance is 402", func(t *testing.T) {
		resp := performCheckout(t, r, token, map[string]interface{}{
			"subtotal_cents":          int64(100_00),
			"requested_redeem_points": int64(9999),
			"order_reference":         "http-order-2",
		})
		if resp.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", resp.Code)
		}
		body := decodeCheckoutResponse(t, resp)
		if body.Error == nil || body.Error.Code != "INSUFFICIENT_BALANCE" {
			t.Fatalf("expected INSUFFICIENT_BALANCE error, got %+v", body.Error)
		}
	})

	t.Run("POST / missing reference fails validation", func(t *testing.T) {
		resp := performCheckout(t, r, token, map[string]interface{}{
			"subtotal_cents": int64(100),
		})
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", resp.Code)
		}
	})

	t.Run("JWT required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", bytes.NewBufferString("{}"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without jwt, got %d", rec.Code)
		}
	})
}

func performCheckout(t *testing.T, handler http.Handler, token string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		t.Fatalf("encode payload failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeCheckoutResponse(t *testing.T, rec *httptest.ResponseRecorder) checkoutAPIResponse {
	t.Helper()
	var out checkoutAPIResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response failed: %v; body=%s", err, rec.Body.String())
	}
	return out
}
