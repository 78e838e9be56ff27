package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"limito/pkg/config"
	apperrors "limito/pkg/errors"
	"limito/pkg/logger"
	"limito/pkg/middleware"
	"limito/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const testSessionID = "3f2b8c4e-9d1a-4f6b-8f2e-1a2b3c4d5e6f"

type mockReservationService struct {
	reserveFunc      func(ctx context.Context, req *model.ReserveRequest) (int, error)
	releaseFunc      func(ctx context.Context, req *model.ReleaseRequest) error
	validateCartFunc func(ctx context.Context, sessionID string, items []model.CartItem) []model.CartItem
	clearAllFunc     func(ctx context.Context) error
}

func (m *mockReservationService) Reserve(ctx context.Context, req *model.ReserveRequest) (int, error) {
	return m.reserveFunc(ctx, req)
}

func (m *mockReservationService) Release(ctx context.Context, req *model.ReleaseRequest) error {
	return m.releaseFunc(ctx, req)
}

func (m *mockReservationService) ValidateCart(ctx context.Context, sessionID string, items []model.CartItem) []model.CartItem {
	return m.validateCartFunc(ctx, sessionID, items)
}

func (m *mockReservationService) ClearAll(ctx context.Context) error {
	return m.clearAllFunc(ctx)
}

func newTestRouter(t *testing.T, svc *mockReservationService, writeLimit int) *httprouter.Router {
	t.Helper()

	cfg := &config.Config{
		Log:       logger.New(logger.Config{Output: io.Discard}),
		WriteRate: config.RateLimit{Limit: writeLimit, Window: time.Minute},
		ReadRate:  config.RateLimit{Limit: 100, Window: time.Minute},
	}

	store := middleware.NewMemoryBucketStore()
	t.Cleanup(store.Stop)
	limiter := middleware.NewRateLimiter(store, cfg.Log)

	router := httprouter.New()
	NewReservationHandler(svc, limiter, cfg).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *httprouter.Router, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type cartBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Available *int   `json:"available"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartBody {
	t.Helper()

	var body cartBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestReserveSuccess(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(_ context.Context, req *model.ReserveRequest) (int, error) {
			if req.ProductID != "limito-snap" || req.Color != "Black" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return 1, nil
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/reserve",
		`{"productId":"limito-snap","color":"Black","quantity":3,"sessionId":"`+testSessionID+`"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeCart(t, rec)
	if !body.Success {
		t.Fatalf("success = false: %s", rec.Body.String())
	}
	if body.Available == nil || *body.Available != 1 {
		t.Fatalf("available = %v, want 1", body.Available)
	}
}

func TestReserveOutOfStock(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(context.Context, *model.ReserveRequest) (int, error) {
			return 1, apperrors.OutOfStock(1)
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/reserve",
		`{"productId":"limito-snap","color":"Black","quantity":2,"sessionId":"`+testSessionID+`"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeCart(t, rec)
	if body.Success {
		t.Fatal("success = true on out-of-stock")
	}
	if body.Available == nil || *body.Available != 1 {
		t.Fatalf("available = %v, want 1 so the client can offer a smaller quantity", body.Available)
	}
}

func TestReserveValidationFailure(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(context.Context, *model.ReserveRequest) (int, error) {
			return 0, apperrors.Validation("Invalid reservation request", nil)
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/reserve",
		`{"productId":"limito-snap","color":"Black","quantity":"abc","sessionId":"`+testSessionID+`"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeCart(t, rec); body.Success || body.Error == "" {
		t.Fatalf("expected failure envelope, got %s", rec.Body.String())
	}
}

func TestReserveMalformedBody(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(context.Context, *model.ReserveRequest) (int, error) {
			t.Fatal("service called for malformed body")
			return 0, nil
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/reserve", `{"productId":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReserveInternalErrorIsMasked(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(context.Context, *model.ReserveRequest) (int, error) {
			return 0, apperrors.Internal("Failed to reserve stock", io.ErrUnexpectedEOF)
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/reserve",
		`{"productId":"limito-snap","color":"Black","quantity":1,"sessionId":"`+testSessionID+`"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeCart(t, rec)
	if body.Error != "Internal server error" {
		t.Fatalf("error = %q, internal detail must not leak", body.Error)
	}
	if strings.Contains(rec.Body.String(), "EOF") {
		t.Fatalf("wrapped cause leaked: %s", rec.Body.String())
	}
}

func TestReleaseSuccess(t *testing.T) {
	released := false
	svc := &mockReservationService{
		releaseFunc: func(_ context.Context, req *model.ReleaseRequest) error {
			released = true
			return nil
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/release",
		`{"productId":"limito-snap","color":"Black","sessionId":"`+testSessionID+`"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !released {
		t.Fatal("service was not called")
	}
	body := decodeCart(t, rec)
	if !body.Success {
		t.Fatalf("success = false: %s", rec.Body.String())
	}
	if body.Available != nil {
		t.Fatalf("release reported availability %d, want omitted", *body.Available)
	}
}

func TestValidateCartEchoesServiceResult(t *testing.T) {
	svc := &mockReservationService{
		validateCartFunc: func(_ context.Context, sessionID string, items []model.CartItem) []model.CartItem {
			if sessionID != testSessionID {
				t.Fatalf("sessionID = %q", sessionID)
			}
			return []model.CartItem{{ProductID: "limito-snap", Color: "Black"}}
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/validate",
		`{"sessionId":"`+testSessionID+`","items":[{"productId":"limito-snap","color":"Black"},{"productId":"limito-drift","color":"Sand"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		ValidItems []model.CartItem `json:"validItems"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.ValidItems) != 1 || body.ValidItems[0].ProductID != "limito-snap" {
		t.Fatalf("validItems = %v", body.ValidItems)
	}
}

// A cart that cannot even be decoded still gets a 200 with an empty list;
// the client treats that as "start over".
func TestValidateCartMalformedBody(t *testing.T) {
	svc := &mockReservationService{
		validateCartFunc: func(context.Context, string, []model.CartItem) []model.CartItem {
			t.Fatal("service called for malformed body")
			return nil
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/validate", `not json`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"validItems":[]`) {
		t.Fatalf("body = %s, want empty validItems", rec.Body.String())
	}
}

func TestClearAll(t *testing.T) {
	cleared := false
	svc := &mockReservationService{
		clearAllFunc: func(context.Context) error {
			cleared = true
			return nil
		},
	}
	router := newTestRouter(t, svc, 100)

	rec := doJSON(t, router, "/cart/clear-reservations", ``)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !cleared {
		t.Fatal("service was not called")
	}
}

func TestWriteEndpointsAreRateLimited(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(context.Context, *model.ReserveRequest) (int, error) {
			return 3, nil
		},
	}
	router := newTestRouter(t, svc, 2)

	body := `{"productId":"limito-snap","color":"Black","quantity":1,"sessionId":"` + testSessionID + `"}`
	for i := 0; i < 2; i++ {
		if rec := doJSON(t, router, "/cart/reserve", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := doJSON(t, router, "/cart/reserve", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 once the window budget is spent", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Rate limit exceeded") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
