// Package recent tracks the products a client viewed most recently.
package recent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"storefront-engine/internal/storage"
)

const (
	// Key holds the JSON array of handles, newest first.
	Key = "recently-viewed"
	// MaxItems caps the list length.
	MaxItems = 10
	// EmptyMessage is rendered when nothing was viewed yet.
	EmptyMessage = "No recently viewed products yet."
)

var listTemplate = template.Must(template.New("recent").Parse(`<ul class="stack" data-recently-viewed-list>
{{- range .}}
<li data-recently-viewed-item="{{.Handle}}"><a href="{{.URL}}">{{.Title}}</a></li>
{{- end}}
</ul>`))

// Item is one rendered entry.
type Item struct {
	Handle string `json:"handle"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// View is the outcome of Render.
type View struct {
	Items []Item `json:"items"`
	Empty bool   `json:"empty"`
	HTML  string `json:"html"`
}

// List is the recently viewed list for one client.
type List struct {
	repo   storage.Store
	logger *slog.Logger
}

// New creates a list over repo. A nil logger discards output.
func New(repo storage.Store, logger *slog.Logger) *List {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &List{repo: repo, logger: logger}
}

// Handles returns the stored handles, newest first. Malformed data reads as
// an empty list.
func (l *List) Handles(ctx context.Context) []string {
	raw, ok, err := l.repo.Get(ctx, Key)
	if err != nil {
		l.logger.Warn("recently viewed read failed", "error", err)
		return []string{}
	}
	if !ok {
		return []string{}
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	handles := make([]string, 0, len(items))
	for _, it := range items {
		if h, ok := it.(string); ok && h != "" {
			handles = append(handles, h)
		}
	}
	return handles
}

// Track records a view of handle. A new handle goes to the front; a handle
// already present keeps its position. The list is cut to MaxItems.
func (l *List) Track(ctx context.Context, handle string) ([]string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("recently viewed: empty handle")
	}

	handles := l.Handles(ctx)
	if !contains(handles, handle) {
		handles = append([]string{handle}, handles...)
	}
	if len(handles) > MaxItems {
		handles = handles[:MaxItems]
	}

	data, err := json.Marshal(handles)
	if err != nil {
		return nil, fmt.Errorf("encoding recently viewed: %w", err)
	}
	if err := l.repo.Set(ctx, Key, string(data)); err != nil {
		return nil, fmt.Errorf("writing recently viewed: %w", err)
	}
	return handles, nil
}

// Render builds the list markup. Titles come from the handle with dashes
// turned into spaces, so no catalog fetch is needed.
func (l *List) Render(ctx context.Context) (View, error) {
	handles := l.Handles(ctx)
	if len(handles) == 0 {
		return View{Items: []Item{}, Empty: true, HTML: "<p>" + EmptyMessage + "</p>"}, nil
	}

	items := make([]Item, len(handles))
	for i, h := range handles {
		items[i] = Item{
			Handle: h,
			Title:  strings.ReplaceAll(h, "-", " "),
			URL:    "/products/" + url.PathEscape(h),
		}
	}

	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, items); err != nil {
		return View{}, fmt.Errorf("rendering recently viewed: %w", err)
	}
	return View{Items: items, HTML: buf.String()}, nil
}

func contains(handles []string, h string) bool {
	for _, x := range handles {
		if x == h {
			return true
		}
	}
	return false
}
