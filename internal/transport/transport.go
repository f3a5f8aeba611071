// Package transport builds the HTTP clients used to reach the storefront.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// DefaultTimeout bounds every storefront request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// NewHTTPClient returns a client with the given timeout. When fingerprint is
// set the client presents Chrome's TLS fingerprint (see NewChromeTransport);
// otherwise it uses a clone of http.DefaultTransport.
func NewHTTPClient(timeout time.Duration, fingerprint bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var rt http.RoundTripper
	if fingerprint {
		rt = NewChromeTransport(timeout)
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

// =============================================================================
// TLS FINGERPRINT TRANSPORT
// =============================================================================
//
// Storefront CDNs fingerprint the TLS client hello (JA3) and throttle clients
// that do not look like a browser. Catalog hydration fans out one request per
// wishlist item, so a throttled fingerprint empties the rendered wishlist.
//
//   1. uTLS with HelloChrome_Auto supplies the client hello
//   2. ALPN negotiates h2 or http/1.1
//   3. http2.Transport frames h2; http.Transport handles the fallback
//
// Plain http:// URLs go straight to the HTTP/1.1 transport.
// =============================================================================

// NewChromeTransport creates an http.RoundTripper that presents Chrome's TLS
// fingerprint to the storefront.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
	}

	h1Transport := &http.Transport{
		DialContext: dialer.DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &chromeTransport{
		h2: h2Transport,
		h1: h1Transport,
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip tries HTTP/2 for https URLs and falls back to HTTP/1.1.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
