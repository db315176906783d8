package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pixelgate/server/internal/infra/config"
	"github.com/pixelgate/server/internal/utils/requestctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.HTTPClientConfig {
	return config.HTTPClientConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     time.Second,
		DialTimeout:         time.Second,
		TLSHandshakeTimeout: time.Second,
		KeepAlive:           time.Second,
	}
}

func TestClient_StampsOutboundRequests(t *testing.T) {
	var gotUA, gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(testConfig())

	t.Run("with request id", func(t *testing.T) {
		ctx := requestctx.WithRequestID(context.Background(), "req-1")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, UserAgent, gotUA)
		assert.Equal(t, "req-1", gotID)
		assert.Empty(t, req.Header.Get(RequestIDHeader))
	})

	t.Run("keeps caller headers", func(t *testing.T) {
		ctx := requestctx.WithRequestID(context.Background(), "req-2")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "custom")
		req.Header.Set(RequestIDHeader, "upstream")

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "custom", gotUA)
		assert.Equal(t, "upstream", gotID)
	})

	t.Run("without request id", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, UserAgent, gotUA)
		assert.Empty(t, gotID)
	})
}
