// MCP transport handler using the official MCP Go SDK.
// Exposes the wishlist, option picker and shipping estimator as MCP tools.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront-engine/internal/model"
	"storefront-engine/internal/recent"
	"storefront-engine/internal/session"
	"storefront-engine/internal/variant"
	"storefront-engine/internal/wishlist"
)

// === MCP Tool Input Types ===
// MCP sessions carry no Storefront-Client header, so every stateful tool
// names its client explicitly.

// ClientInput identifies the client whose state a tool reads.
type ClientInput struct {
	ClientID string `json:"client_id" jsonschema:"client id from the Storefront-Client header"`
}

// ItemInput addresses one wishlist entry.
type ItemInput struct {
	ClientID  string `json:"client_id" jsonschema:"client id from the Storefront-Client header"`
	Handle    string `json:"handle" jsonschema:"product handle"`
	VariantID int64  `json:"variant_id,omitempty" jsonschema:"variant id; 0 or absent keeps the stored one"`
}

// ResolveVariantInput is the input schema for resolve_variant.
type ResolveVariantInput struct {
	Handle    string           `json:"handle" jsonschema:"product handle"`
	Selection []string         `json:"selection,omitempty" jsonschema:"chosen value per option axis; empty string leaves the axis unset"`
	Widgets   []variant.Widget `json:"widgets,omitempty" jsonschema:"option controls as rendered on the page"`
	Position  int              `json:"position,omitempty" jsonschema:"1-based option axis to change"`
	Value     string           `json:"value,omitempty" jsonschema:"value to apply at position"`
}

// RecentlyViewedInput is the input schema for recently_viewed.
type RecentlyViewedInput struct {
	ClientID string `json:"client_id" jsonschema:"client id from the Storefront-Client header"`
	Track    string `json:"track,omitempty" jsonschema:"product handle to record before listing"`
}

// ShippingRatesInput is the input schema for shipping_rates.
type ShippingRatesInput struct {
	Zip     string `json:"zip" jsonschema:"destination postal code"`
	Country string `json:"country" jsonschema:"destination country"`
}

// NewMCPServer creates an MCP server with the engine tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront-engine",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront engine - product option resolution, wishlist and recently viewed state. " +
				"Stateful tools take the client_id issued in the Storefront-Client response header.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "wishlist_list",
		Description: "List the saved wishlist entries and the hydrated view.",
	}, h.mcpWishlistList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "wishlist_toggle",
		Description: "Save a product to the wishlist, or remove it if already saved.",
	}, h.mcpWishlistToggle)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "wishlist_remove",
		Description: "Remove a product from the wishlist.",
	}, h.mcpWishlistRemove)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "wishlist_move_to_cart",
		Description: "Add a saved product to the cart and remove it from the wishlist on success.",
	}, h.mcpWishlistMoveToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_variant",
		Description: "Resolve chosen options to a variant, with per-axis availability and gallery state.",
	}, h.mcpResolveVariant)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recently_viewed",
		Description: "List recently viewed products, optionally recording a view first.",
	}, h.mcpRecentlyViewed)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "shipping_rates",
		Description: "Estimate shipping rates for the current cart.",
	}, h.mcpShippingRates)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpWishlistList(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ClientInput,
) (*mcp.CallToolResult, *wishlistResponse, error) {
	if err := mcpClient(input.ClientID); err != nil {
		return nil, nil, err
	}

	state, err := h.wishlistState(ctx, h.wishlistFor(input.ClientID))
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &state, nil
}

func (h *Handler) mcpWishlistToggle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ItemInput,
) (*mcp.CallToolResult, *mutationResponse, error) {
	if err := mcpItem(input); err != nil {
		return nil, nil, err
	}

	resp, err := h.toggle(ctx, input.ClientID, input.Handle, wishlist.VariantPtr(input.VariantID))
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

func (h *Handler) mcpWishlistRemove(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ItemInput,
) (*mcp.CallToolResult, *mutationResponse, error) {
	if err := mcpItem(input); err != nil {
		return nil, nil, err
	}

	resp, err := h.remove(ctx, input.ClientID, input.Handle)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

func (h *Handler) mcpWishlistMoveToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ItemInput,
) (*mcp.CallToolResult, *actionResponse, error) {
	if err := mcpItem(input); err != nil {
		return nil, nil, err
	}

	resp, err := h.dispatch(ctx, input.ClientID, wishlist.Action{
		Role:      wishlist.RoleMoveToCart,
		Handle:    input.Handle,
		VariantID: input.VariantID,
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

func (h *Handler) mcpResolveVariant(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ResolveVariantInput,
) (*mcp.CallToolResult, *selectionResponse, error) {
	if input.Handle == "" {
		return nil, nil, fmt.Errorf("handle is required")
	}

	sreq := selectionRequest{Selection: input.Selection, Widgets: input.Widgets}
	if input.Position > 0 {
		sreq.Change = &optionChange{Position: input.Position, Value: input.Value}
	}

	resp, err := h.resolveSelection(ctx, input.Handle, sreq)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

func (h *Handler) mcpRecentlyViewed(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecentlyViewedInput,
) (*mcp.CallToolResult, *recent.View, error) {
	if err := mcpClient(input.ClientID); err != nil {
		return nil, nil, err
	}

	list := h.recentFor(input.ClientID)
	if input.Track != "" {
		if _, err := list.Track(ctx, input.Track); err != nil {
			return nil, nil, h.mcpError(err)
		}
	}

	view, err := list.Render(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &view, nil
}

func (h *Handler) mcpShippingRates(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ShippingRatesInput,
) (*mcp.CallToolResult, *shippingResponse, error) {
	q := shippingQuery{Zip: input.Zip, Country: input.Country}
	if err := h.check(&q); err != nil {
		return nil, nil, h.mcpError(err)
	}

	resp, err := h.shippingRates(ctx, q)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

// mcpError converts engine errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := model.AsAPIError(err); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

func mcpClient(clientID string) error {
	if err := session.ValidateClientID(clientID); err != nil {
		return fmt.Errorf("invalid client_id: %v", err)
	}
	return nil
}

func mcpItem(input ItemInput) error {
	if err := mcpClient(input.ClientID); err != nil {
		return err
	}
	if input.Handle == "" {
		return fmt.Errorf("handle is required")
	}
	if input.VariantID < 0 {
		return fmt.Errorf("variant_id must not be negative")
	}
	return nil
}
