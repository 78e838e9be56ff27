package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestTaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", Validation("bad request", nil), http.StatusBadRequest},
		{"out of stock", OutOfStock(1), http.StatusBadRequest},
		{"rate limited", RateLimited(), http.StatusTooManyRequests},
		{"not found", NotFound("Product"), http.StatusNotFound},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.StatusCode(); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAvailableFromDetails(t *testing.T) {
	if n, ok := AvailableFromDetails(OutOfStock(2)); !ok || n != 2 {
		t.Fatalf("got (%d, %v), want (2, true)", n, ok)
	}
	if _, ok := AvailableFromDetails(RateLimited()); ok {
		t.Fatal("rate-limited error has no available detail")
	}
	if _, ok := AvailableFromDetails(errors.New("plain")); ok {
		t.Fatal("plain error has no available detail")
	}
}

// Unknown errors cross the boundary as a generic internal error so the
// original message never reaches the client.
func TestAsAppErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("pq: connection refused")
	appErr := AsAppError(cause)

	if appErr.Code != CodeInternal {
		t.Fatalf("code = %s, want %s", appErr.Code, CodeInternal)
	}
	if appErr.Message == cause.Error() {
		t.Fatal("cause message leaked into the client-facing message")
	}
	if !errors.Is(appErr, cause) {
		t.Fatal("cause lost from the error chain")
	}
}

func TestAsAppErrorPassthrough(t *testing.T) {
	orig := OutOfStock(3)
	if got := AsAppError(orig); got != orig {
		t.Fatalf("existing AppError was rewrapped: %v", got)
	}
}
