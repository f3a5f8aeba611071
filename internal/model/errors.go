package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUpstreamError       = errors.New("upstream error")
	ErrRateLimited         = errors.New("rate limited")
	ErrCartRejected        = errors.New("cart rejected")
	ErrShippingUnavailable = errors.New("shipping unavailable")
)

// APIError is an error with a stable code and the HTTP status it maps to.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing product or entry.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewValidationError reports bad caller input for field.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewUpstreamError reports a failed storefront call. The cause stays in the
// chain for logging but is not part of Message.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewCartRejectedError reports a cart that refused an item, typically
// because the variant is sold out or the quantity is unavailable.
func NewCartRejectedError(reason string) *APIError {
	if reason == "" {
		reason = "item could not be added to cart"
	}
	return &APIError{
		Code:       "CART_REJECTED",
		Message:    reason,
		StatusCode: http.StatusUnprocessableEntity,
		Err:        ErrCartRejected,
	}
}

// NewShippingUnavailableError reports a failed rate estimate with the
// shopper-facing message. err is kept for logs only.
func NewShippingUnavailableError(message string, err error) *APIError {
	return &APIError{
		Code:       "SHIPPING_UNAVAILABLE",
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        errors.Join(ErrShippingUnavailable, err),
	}
}

// NewInternalError hides an unexpected failure behind a generic message.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewRateLimitError reports a 429 from the storefront.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: http.StatusTooManyRequests,
		Err:        ErrRateLimited,
	}
}

// AsAPIError returns the APIError in err's chain. ok is false when there is
// none, in which case the result is an internal error wrapping err.
func AsAPIError(err error) (apiErr *APIError, ok bool) {
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return NewInternalError(err), false
}
