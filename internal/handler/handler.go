// Package handler provides the HTTP surface of the storefront engine: REST
// routes for option resolution, wishlist and recently viewed state, plus the
// same operations as MCP tools.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront-engine/internal/model"
	"storefront-engine/internal/recent"
	"storefront-engine/internal/session"
	"storefront-engine/internal/storage"
	"storefront-engine/internal/wishlist"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *wishlist.Engine
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a new Handler over the wishlist engine.
func New(engine *wishlist.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		engine:   engine,
		logger:   logger,
		validate: v,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Option picker
	mux.HandleFunc("POST /products/{handle}/selection", h.handleSelection)

	// Wishlist
	mux.HandleFunc("GET /wishlist", h.handleGetWishlist)
	mux.HandleFunc("GET /wishlist/render", h.handleRenderWishlist)
	mux.HandleFunc("POST /wishlist/items", h.handleUpsertItem)
	mux.HandleFunc("PUT /wishlist/items", h.handleReplaceItems)
	mux.HandleFunc("DELETE /wishlist/items/{handle}", h.handleRemoveItem)
	mux.HandleFunc("POST /wishlist/items/{handle}/toggle", h.handleToggleItem)
	mux.HandleFunc("POST /wishlist/actions", h.handleAction)

	// Recently viewed
	mux.HandleFunc("GET /recently-viewed", h.handleGetRecent)
	mux.HandleFunc("POST /recently-viewed/{handle}", h.handleTrackRecent)

	// Shipping estimator
	mux.HandleFunc("GET /shipping-rates", h.handleShippingRates)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Client scoping ===

// clientID returns the id resolved by session.Middleware. Without the
// middleware the Storefront-Client header is parsed directly and required.
func (h *Handler) clientID(r *http.Request) (string, error) {
	if id := session.ClientID(r.Context()); id != "" {
		return id, nil
	}
	header := r.Header.Get(session.ClientHeader)
	if header == "" {
		return "", model.NewValidationError(session.ClientHeader, "header required")
	}
	id, err := session.ParseClientHeader(header)
	if err != nil {
		return "", model.NewValidationError(session.ClientHeader, err.Error())
	}
	return id, nil
}

// wishlistFor returns the client's wishlist. Renders go to the response, not
// to a long-lived surface, so the surface discards.
func (h *Handler) wishlistFor(clientID string) *wishlist.Wishlist {
	return h.engine.ForClient(clientID, nil)
}

func (h *Handler) recentFor(clientID string) *recent.List {
	repo := storage.WithPrefix(h.engine.Repository(), storage.ClientPrefix(clientID))
	return recent.New(repo, h.logger)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeHTML sends an HTML fragment.
func (h *Handler) writeHTML(w http.ResponseWriter, status int, fragment string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(fragment)); err != nil {
		h.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Non-APIError values are logged and reported as internal errors.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	apiErr, ok := model.AsAPIError(err)
	if !ok {
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for bodies that may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// check validates v's struct tags and reports the first failing field.
func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return model.NewValidationError(fe.Field(), "required")
		}
		return model.NewValidationError(fe.Field(), strings.TrimSpace("failed "+fe.Tag()+" "+fe.Param()))
	}
	return model.NewValidationError("body", err.Error())
}
