package handler

import (
	"log/slog"
	"net/http"
)

type trackResponse struct {
	Handles []string `json:"handles"`
}

// handleGetRecent renders the recently viewed list.
// GET /recently-viewed
func (h *Handler) handleGetRecent(w http.ResponseWriter, r *http.Request) {
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.recentFor(clientID).Render(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleTrackRecent records a product view.
// POST /recently-viewed/{handle}
func (h *Handler) handleTrackRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	handle := r.PathValue("handle")

	handles, err := h.recentFor(clientID).Track(ctx, handle)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.DebugContext(ctx, "tracked product view",
		slog.String("handle", handle),
		slog.Int("count", len(handles)),
	)
	h.writeJSON(w, http.StatusOK, trackResponse{Handles: handles})
}
