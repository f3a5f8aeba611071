// Package storeapi implements adapter.Storefront against the storefront's
// AJAX endpoints (/products/<handle>.js, /cart/add.js,
// /cart/shipping_rates.json).
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-engine/internal/adapter"
	"storefront-engine/internal/model"
	"storefront-engine/internal/transport"
)

// userAgent identifies this client to the storefront.
// Some storefront WAFs reject requests without one.
const userAgent = "Storefront-Engine/1.0"

// maxBodySize caps storefront response bodies.
const maxBodySize = 2 << 20

// Config holds storefront client configuration.
type Config struct {
	StoreURL    string
	Timeout     time.Duration
	Fingerprint bool        // Chrome TLS fingerprint transport
	Cache       CacheConfig // Product snapshot cache
	HTTPClient  *http.Client
}

// Client talks to one storefront. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	storeURL   string
	cache      *productCache
}

// New creates a storefront client. StoreURL is required.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.StoreURL); err != nil {
		return nil, fmt.Errorf("invalid store URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewHTTPClient(cfg.Timeout, cfg.Fingerprint)
	}

	return &Client{
		httpClient: httpClient,
		storeURL:   strings.TrimSuffix(cfg.StoreURL, "/"),
		cache:      newProductCache(cfg.Cache),
	}, nil
}

// Product fetches the catalog snapshot for handle, serving fresh cache hits
// and revalidating stale entries with If-None-Match.
func (c *Client) Product(ctx context.Context, handle string) (*model.Product, error) {
	if handle == "" {
		return nil, model.NewValidationError("handle", "must not be empty")
	}

	entry, fresh := c.cache.get(handle)
	if fresh {
		return entry.product, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.storeURL+"/products/"+url.PathEscape(handle)+".js", nil)
	if err != nil {
		return nil, fmt.Errorf("creating product request: %w", err)
	}
	c.setHeaders(req)
	if entry != nil && entry.etag != "" {
		req.Header.Set("If-None-Match", entry.etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("storefront", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && entry != nil {
		io.Copy(io.Discard, resp.Body)
		c.cache.put(handle, entry.product, resp)
		return entry.product, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, model.NewUpstreamError("storefront", fmt.Errorf("reading product: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.cache.remove(handle)
		return nil, parseErrorResponse(resp.StatusCode, body, "product")
	}

	var p model.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, model.NewUpstreamError("storefront", fmt.Errorf("parsing product %s: %w", handle, err))
	}
	if p.Handle == "" {
		p.Handle = handle
	}

	c.cache.put(handle, &p, resp)
	return &p, nil
}

// AddToCart posts {"id":variantID,"quantity":quantity} to /cart/add.js.
func (c *Client) AddToCart(ctx context.Context, variantID int64, quantity int) error {
	if variantID <= 0 {
		return model.NewValidationError("variant id", "must be positive")
	}
	if quantity <= 0 {
		quantity = 1
	}

	body, err := json.Marshal(model.CartAddRequest{ID: variantID, Quantity: quantity})
	if err != nil {
		return fmt.Errorf("marshaling cart add: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.storeURL+"/cart/add.js", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating cart add request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("storefront", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, respBody, "variant")
	}
	return nil
}

// shippingRatesResponse is the body of /cart/shipping_rates.json.
type shippingRatesResponse struct {
	ShippingRates []struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	} `json:"shipping_rates"`
}

// ShippingRates estimates shipping rates for the current cart.
func (c *Client) ShippingRates(ctx context.Context, zip, country string) ([]model.ShippingRate, error) {
	q := url.Values{}
	q.Set("shipping_address[zip]", zip)
	q.Set("shipping_address[country]", country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.storeURL+"/cart/shipping_rates.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating shipping rates request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("storefront", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, model.NewUpstreamError("storefront", fmt.Errorf("reading shipping rates: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, body, "shipping rates")
	}

	var parsed shippingRatesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, model.NewUpstreamError("storefront", fmt.Errorf("parsing shipping rates: %w", err))
	}

	rates := make([]model.ShippingRate, 0, len(parsed.ShippingRates))
	for _, r := range parsed.ShippingRates {
		rates = append(rates, model.ShippingRate{
			Name:  r.Name,
			Price: r.Price,
			Cents: model.ParseCents(r.Price),
		})
	}
	return rates, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
}

// storefrontError is the error body shape returned by the AJAX endpoints.
type storefrontError struct {
	Status      any    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// parseErrorResponse converts a storefront error response to an APIError.
func parseErrorResponse(statusCode int, body []byte, resource string) error {
	var sfErr storefrontError
	json.Unmarshal(body, &sfErr) // Best effort parse

	switch {
	case statusCode == http.StatusNotFound:
		return model.NewNotFoundError(resource)
	case statusCode == http.StatusUnprocessableEntity:
		return model.NewCartRejectedError(sfErr.Description)
	case statusCode == http.StatusTooManyRequests:
		return model.NewRateLimitError("storefront")
	case statusCode == http.StatusBadRequest:
		msg := sfErr.Description
		if msg == "" {
			msg = sfErr.Message
		}
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError(resource, msg)
	default:
		return model.NewUpstreamError("storefront",
			fmt.Errorf("status %d: %s", statusCode, sfErr.Message))
	}
}

// Verify Client implements Storefront interface at compile time.
var _ adapter.Storefront = (*Client)(nil)
