package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// ClientContextKey is the context key for the resolved client id.
const ClientContextKey contextKey = "storefront.client"

// Middleware resolves the client id for every request and stores it in the
// request context. Requests without a valid Storefront-Client header get a
// freshly issued id. The resolved id is always echoed in the response header
// so the caller can persist it.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id, issued := resolve(r.Header.Get(ClientHeader), logger)

			if header, err := FormatClientHeader(id); err == nil {
				w.Header().Set(ClientHeader, header)
			}
			if issued {
				logger.Debug("issued client id", slog.String("client_id", id))
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

func resolve(header string, logger *slog.Logger) (id string, issued bool) {
	if header != "" {
		parsed, err := ParseClientHeader(header)
		if err == nil {
			return parsed, false
		}
		logger.Warn("invalid Storefront-Client header",
			slog.String("header", header),
			slog.String("error", err.Error()))
	}
	return NewClientID(), true
}

// NewClientID issues a random client id.
func NewClientID() string {
	return uuid.NewString()
}

// isExemptPath returns true for infrastructure endpoints that never touch
// client state.
func isExemptPath(path string) bool {
	return path == "/health" || path == "/healthz"
}

// WithClientID returns a context carrying id.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ClientContextKey, id)
}

// ClientID returns the client id stored in ctx, or "".
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(ClientContextKey).(string)
	return id
}
