package handler

import (
	"context"
	"log/slog"
	"net/http"

	"storefront-engine/internal/model"
	"storefront-engine/internal/variant"
)

// selectionRequest seeds the option picker and optionally applies one
// change. Widgets take precedence over a raw selection when both are sent.
type selectionRequest struct {
	Selection []string         `json:"selection,omitempty"`
	Widgets   []variant.Widget `json:"widgets,omitempty"`
	Change    *optionChange    `json:"change,omitempty"`
}

type optionChange struct {
	Position int    `json:"position" validate:"gte=1"`
	Value    string `json:"value"`
}

type selectionResponse struct {
	Handle string         `json:"handle"`
	Title  string         `json:"title"`
	Result variant.Result `json:"result"`
}

// handleSelection resolves a selection (and optional option change) to a
// variant, its availability and the gallery state.
// POST /products/{handle}/selection
func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handle := r.PathValue("handle")

	var req selectionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.check(&req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "resolving selection",
		slog.String("handle", handle),
		slog.Int("widgets", len(req.Widgets)),
		slog.Bool("has_change", req.Change != nil),
	)

	resp, err := h.resolveSelection(ctx, handle, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// resolveSelection fetches the product and runs the option picker once.
// Each call builds a fresh page: the caller owns selection state.
func (h *Handler) resolveSelection(ctx context.Context, handle string, req selectionRequest) (*selectionResponse, error) {
	if handle == "" {
		return nil, model.NewValidationError("handle", "required")
	}

	p, err := h.engine.Storefront().Product(ctx, handle)
	if err != nil {
		return nil, err
	}

	axes := p.AxisCount()
	if req.Change != nil && req.Change.Position > axes {
		return nil, model.NewValidationError("change.position", "out of range")
	}

	page := variant.NewPage(p)
	switch {
	case len(req.Widgets) > 0:
		page.WithSelection(variant.SelectionFromWidgets(axes, req.Widgets))
	case len(req.Selection) > 0:
		page.WithSelection(variant.Selection(req.Selection))
	}

	var res variant.Result
	if req.Change != nil {
		res = page.OnOptionChange(req.Change.Position, req.Change.Value)
	} else {
		res = page.Refresh()
	}
	if res.Selection == nil {
		res.Selection = variant.Selection{}
	}

	return &selectionResponse{
		Handle: p.Handle,
		Title:  p.Title,
		Result: res,
	}, nil
}
