// Package httpclient builds the shared client for calls to the generation
// provider and Stripe.
package httpclient

import (
	"net"
	"net/http"

	"github.com/pixelgate/server/internal/infra/config"
	"github.com/pixelgate/server/internal/utils/requestctx"
)

// UserAgent identifies outbound requests.
const UserAgent = "pixelgate-server"

// RequestIDHeader carries the inbound request ID to upstream services.
const RequestIDHeader = "X-Request-ID"

// New creates a pooled HTTP client for outbound provider calls.
// No client-wide timeout is set; callers bound each call with a context.
func New(cfg config.HTTPClientConfig) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: &tracingTransport{base: transport},
	}
}

// tracingTransport stamps outbound requests with the user agent and the
// request ID found in their context.
type tracingTransport struct {
	base http.RoundTripper
}

func (t *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := requestctx.RequestID(req.Context())
	setUA := req.Header.Get("User-Agent") == ""
	if id == "" && !setUA {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	if setUA {
		req.Header.Set("User-Agent", UserAgent)
	}
	if id != "" && req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, id)
	}
	return t.base.RoundTrip(req)
}
