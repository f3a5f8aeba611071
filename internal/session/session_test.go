package session

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseClientHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "simple id", header: `id="abc-123"`, want: "abc-123"},
		{name: "whitespace", header: `  id="abc"  `, want: "abc"},
		{name: "other members", header: `v=1, id="abc_9"`, want: "abc_9"},
		{name: "params ignored", header: `id="abc";ver=2`, want: "abc"},
		{name: "empty", header: "", wantErr: true},
		{name: "missing id", header: `other="x"`, wantErr: true},
		{name: "id not a string", header: `id=42`, wantErr: true},
		{name: "inner list", header: `id=("a" "b")`, wantErr: true},
		{name: "malformed", header: `id="unterminated`, wantErr: true},
		{name: "colon not allowed", header: `id="a:b"`, wantErr: true},
		{name: "too long", header: `id="` + strings.Repeat("a", MaxClientIDLength+1) + `"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClientHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClientHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseClientHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatClientHeaderRoundTrip(t *testing.T) {
	header, err := FormatClientHeader("abc-123")
	if err != nil {
		t.Fatalf("FormatClientHeader() error = %v", err)
	}
	if header != `id="abc-123"` {
		t.Errorf("header = %s, want id=\"abc-123\"", header)
	}
	got, err := ParseClientHeader(header)
	if err != nil || got != "abc-123" {
		t.Errorf("ParseClientHeader(%s) = %q, %v", header, got, err)
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seen string
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientID(r.Context())
	}))

	t.Run("existing id kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wishlist", nil)
		req.Header.Set(ClientHeader, `id="alice"`)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "alice" {
			t.Errorf("ClientID = %q, want alice", seen)
		}
		if got := w.Header().Get(ClientHeader); got != `id="alice"` {
			t.Errorf("response header = %q", got)
		}
	})

	t.Run("missing id issued", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wishlist", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("issued id %q is not a UUID: %v", seen, err)
		}
		echoed, err := ParseClientHeader(w.Header().Get(ClientHeader))
		if err != nil || echoed != seen {
			t.Errorf("echoed id = %q (%v), want %q", echoed, err, seen)
		}
	})

	t.Run("invalid id replaced and logged", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/wishlist", nil)
		req.Header.Set(ClientHeader, `id="bad:id"`)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen == "bad:id" || seen == "" {
			t.Errorf("ClientID = %q, want a new id", seen)
		}
		if !strings.Contains(buf.String(), "invalid Storefront-Client header") {
			t.Errorf("expected warning in log: %s", buf.String())
		}
	})

	t.Run("health exempt", func(t *testing.T) {
		seen = "unchanged"
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "" {
			t.Errorf("ClientID = %q, want empty on exempt path", seen)
		}
		if w.Header().Get(ClientHeader) != "" {
			t.Error("exempt path should not set the client header")
		}
	})
}

func TestClientIDContext(t *testing.T) {
	if got := ClientID(context.Background()); got != "" {
		t.Errorf("ClientID(empty) = %q", got)
	}
	ctx := WithClientID(context.Background(), "bob")
	if got := ClientID(ctx); got != "bob" {
		t.Errorf("ClientID = %q, want bob", got)
	}
}
