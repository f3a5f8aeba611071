package handler

import (
	"context"
	"log/slog"
	"net/http"

	"storefront-engine/internal/reconcile"
	"storefront-engine/internal/wishlist"
)

// === Request Types ===

type upsertRequest struct {
	Handle    string `json:"handle" validate:"required"`
	VariantID *int64 `json:"variantId,omitempty" validate:"omitempty,gt=0"`
}

type toggleRequest struct {
	VariantID *int64 `json:"variantId,omitempty" validate:"omitempty,gt=0"`
}

// replaceRequest carries the complete desired wishlist (PUT semantics).
type replaceRequest struct {
	Items []wishlist.Entry `json:"items" validate:"dive"`
}

// === Response Types ===

type wishlistResponse struct {
	Entries []wishlist.Entry `json:"entries"`
	View    wishlist.View    `json:"view"`
}

type mutationResponse struct {
	Handle   string           `json:"handle"`
	Saved    bool             `json:"saved"`
	Wishlist wishlistResponse `json:"wishlist"`
}

type replaceResponse struct {
	Added    []string         `json:"added"`
	Updated  []string         `json:"updated"`
	Removed  []string         `json:"removed"`
	Wishlist wishlistResponse `json:"wishlist"`
}

type actionResponse struct {
	Changed  bool             `json:"changed"`
	Wishlist wishlistResponse `json:"wishlist"`
}

// === Handlers ===

// handleGetWishlist returns the stored entries and the hydrated view.
// GET /wishlist
func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := h.wishlistState(r.Context(), h.wishlistFor(clientID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// handleRenderWishlist returns the rendered wishlist fragment.
// GET /wishlist/render
func (h *Handler) handleRenderWishlist(w http.ResponseWriter, r *http.Request) {
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.wishlistFor(clientID).Renderer.Render(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeHTML(w, http.StatusOK, view.HTML)
}

// handleUpsertItem saves a product, or updates its variant when already saved.
// POST /wishlist/items
func (h *Handler) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req upsertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.check(&req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "saving wishlist item",
		slog.String("handle", req.Handle),
		slog.Bool("has_variant", req.VariantID != nil),
	)

	resp, err := h.upsert(ctx, clientID, req.Handle, req.VariantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleReplaceItems makes the wishlist equal to the submitted list.
// PUT /wishlist/items
func (h *Handler) handleReplaceItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req replaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.check(&req); err != nil {
		h.writeError(w, err)
		return
	}

	wl := h.wishlistFor(clientID)
	diff, err := wl.Store.Replace(ctx, req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "replaced wishlist",
		slog.Int("added", len(diff.ToAdd)),
		slog.Int("updated", len(diff.ToUpdate)),
		slog.Int("removed", len(diff.ToRemove)),
	)

	state, err := h.wishlistState(ctx, wl)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := diffResponse(diff)
	resp.Wishlist = state
	h.writeJSON(w, http.StatusOK, resp)
}

// handleRemoveItem removes a saved product.
// DELETE /wishlist/items/{handle}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	handle := r.PathValue("handle")

	h.logger.InfoContext(ctx, "removing wishlist item", slog.String("handle", handle))

	resp, err := h.remove(ctx, clientID, handle)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleToggleItem flips a product's saved state.
// POST /wishlist/items/{handle}/toggle
func (h *Handler) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	handle := r.PathValue("handle")

	var req toggleRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.check(&req); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.toggle(ctx, clientID, handle, req.VariantID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "toggled wishlist item",
		slog.String("handle", handle),
		slog.Bool("saved", resp.Saved),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// handleAction dispatches a click on a rendered wishlist control.
// POST /wishlist/actions
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var action wishlist.Action
	if err := decodeJSON(w, r, &action); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.check(&action); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.dispatch(ctx, clientID, action)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "wishlist action",
		slog.String("role", string(action.Role)),
		slog.String("handle", action.Handle),
		slog.Bool("changed", resp.Changed),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// === Shared operations (REST and MCP) ===

func (h *Handler) wishlistState(ctx context.Context, wl *wishlist.Wishlist) (wishlistResponse, error) {
	entries := wl.Store.Items(ctx)
	if entries == nil {
		entries = []wishlist.Entry{}
	}
	view, err := wl.Renderer.Render(ctx)
	if err != nil {
		return wishlistResponse{}, err
	}
	return wishlistResponse{Entries: entries, View: view}, nil
}

func (h *Handler) upsert(ctx context.Context, clientID, handle string, variantID *int64) (*mutationResponse, error) {
	wl := h.wishlistFor(clientID)
	if err := wl.Store.Upsert(ctx, handle, variantID); err != nil {
		return nil, err
	}
	return h.mutation(ctx, wl, handle, true)
}

func (h *Handler) remove(ctx context.Context, clientID, handle string) (*mutationResponse, error) {
	wl := h.wishlistFor(clientID)
	if err := wl.Store.Remove(ctx, handle); err != nil {
		return nil, err
	}
	return h.mutation(ctx, wl, handle, false)
}

func (h *Handler) toggle(ctx context.Context, clientID, handle string, variantID *int64) (*mutationResponse, error) {
	wl := h.wishlistFor(clientID)
	saved, err := wl.Store.Toggle(ctx, handle, variantID)
	if err != nil {
		return nil, err
	}
	return h.mutation(ctx, wl, handle, saved)
}

func (h *Handler) dispatch(ctx context.Context, clientID string, action wishlist.Action) (*actionResponse, error) {
	wl := h.wishlistFor(clientID)
	changed, err := wl.Renderer.Dispatch(ctx, action)
	if err != nil {
		return nil, err
	}
	state, err := h.wishlistState(ctx, wl)
	if err != nil {
		return nil, err
	}
	return &actionResponse{Changed: changed, Wishlist: state}, nil
}

func (h *Handler) mutation(ctx context.Context, wl *wishlist.Wishlist, handle string, saved bool) (*mutationResponse, error) {
	state, err := h.wishlistState(ctx, wl)
	if err != nil {
		return nil, err
	}
	return &mutationResponse{Handle: handle, Saved: saved, Wishlist: state}, nil
}

// diffResponse flattens an applied diff to handle lists; arrays are never
// nil in responses.
func diffResponse(diff *reconcile.EntryDiff) *replaceResponse {
	resp := &replaceResponse{
		Added:   make([]string, 0, len(diff.ToAdd)),
		Updated: make([]string, 0, len(diff.ToUpdate)),
		Removed: make([]string, 0, len(diff.ToRemove)),
	}
	for _, a := range diff.ToAdd {
		resp.Added = append(resp.Added, a.Handle)
	}
	for _, u := range diff.ToUpdate {
		resp.Updated = append(resp.Updated, u.Handle)
	}
	resp.Removed = append(resp.Removed, diff.ToRemove...)
	return resp
}
