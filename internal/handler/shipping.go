package handler

import (
	"context"
	"log/slog"
	"net/http"

	"storefront-engine/internal/model"
)

// Messages shown by the shipping estimator.
const (
	NoRatesMessage          = "No rates available."
	RatesUnavailableMessage = "Unable to fetch rates."
)

type shippingQuery struct {
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
}

type shippingResponse struct {
	Rates   []model.ShippingRate `json:"rates"`
	Message string               `json:"message,omitempty"`
}

// handleShippingRates estimates shipping for the current cart.
// GET /shipping-rates?zip=...&country=...
func (h *Handler) handleShippingRates(w http.ResponseWriter, r *http.Request) {
	q := shippingQuery{
		Zip:     r.URL.Query().Get("zip"),
		Country: r.URL.Query().Get("country"),
	}
	if err := h.check(&q); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.shippingRates(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// shippingRates fetches rates. Any storefront failure is reported with the
// estimator's fixed message; the cause is only logged.
func (h *Handler) shippingRates(ctx context.Context, q shippingQuery) (*shippingResponse, error) {
	rates, err := h.engine.Storefront().ShippingRates(ctx, q.Zip, q.Country)
	if err != nil {
		h.logger.WarnContext(ctx, "shipping rates failed",
			slog.String("country", q.Country),
			slog.String("error", err.Error()),
		)
		return nil, model.NewShippingUnavailableError(RatesUnavailableMessage, err)
	}

	if len(rates) == 0 {
		return &shippingResponse{Rates: []model.ShippingRate{}, Message: NoRatesMessage}, nil
	}
	return &shippingResponse{Rates: rates}, nil
}
