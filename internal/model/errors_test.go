package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIErrorString(t *testing.T) {
	bare := &APIError{Code: "NOT_FOUND", Message: "product not found"}
	if got := bare.Error(); got != "NOT_FOUND: product not found" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := &APIError{Code: "UPSTREAM_ERROR", Message: "storefront request failed", Err: errors.New("dial tcp: refused")}
	if got := wrapped.Error(); got != "UPSTREAM_ERROR: storefront request failed (dial tcp: refused)" {
		t.Errorf("Error() = %q", got)
	}
	if wrapped.Unwrap() == nil || bare.Unwrap() != nil {
		t.Error("Unwrap() should return Err as-is")
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      *APIError
		code     string
		message  string
		status   int
		sentinel error
	}{
		{"not found", NewNotFoundError("product"), "NOT_FOUND", "product not found", http.StatusNotFound, ErrNotFound},
		{"validation", NewValidationError("handle", "required"), "VALIDATION_ERROR", "invalid handle: required", http.StatusBadRequest, ErrInvalidRequest},
		{"upstream", NewUpstreamError("storefront", cause), "UPSTREAM_ERROR", "storefront request failed", http.StatusBadGateway, ErrUpstreamError},
		{"cart default", NewCartRejectedError(""), "CART_REJECTED", "item could not be added to cart", http.StatusUnprocessableEntity, ErrCartRejected},
		{"cart reason", NewCartRejectedError("All 1 Blue / M are in your cart."), "CART_REJECTED", "All 1 Blue / M are in your cart.", http.StatusUnprocessableEntity, ErrCartRejected},
		{"shipping", NewShippingUnavailableError("Unable to fetch rates.", cause), "SHIPPING_UNAVAILABLE", "Unable to fetch rates.", http.StatusBadGateway, ErrShippingUnavailable},
		{"rate limit", NewRateLimitError("storefront"), "RATE_LIMITED", "storefront rate limit exceeded, please retry later", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
			if tt.err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.status)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v) = false", tt.sentinel)
			}
		})
	}
}

func TestCausePreserved(t *testing.T) {
	cause := errors.New("connection reset")

	if err := NewShippingUnavailableError("x", cause); !errors.Is(err, cause) {
		t.Error("shipping error should keep the cause in the chain")
	}
	if err := NewInternalError(cause); err.Err != cause || err.StatusCode != http.StatusInternalServerError {
		t.Errorf("internal error = %+v", err)
	}
}

func TestAsAPIError(t *testing.T) {
	nf := NewNotFoundError("product")

	got, ok := AsAPIError(fmt.Errorf("fetching tee: %w", nf))
	if !ok || got != nf {
		t.Errorf("AsAPIError(wrapped) = %v, %v; want the wrapped APIError", got, ok)
	}

	plain := errors.New("disk full")
	got, ok = AsAPIError(plain)
	if ok {
		t.Error("plain error should not report ok")
	}
	if got.Code != "INTERNAL_ERROR" || !errors.Is(got, plain) {
		t.Errorf("AsAPIError(plain) = %+v", got)
	}
}
