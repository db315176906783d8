package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sony/gobreaker/v2"
)

func newTestClient(t *testing.T, srv *httptest.Server, model string, breaker *BreakerConfig) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:      srv.URL,
		APIToken:     "r8_test",
		Model:        model,
		PollInterval: 5 * time.Millisecond,
		Breaker:      breaker,
	}, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidModel(t *testing.T) {
	_, err := NewClient(Config{Model: "sdxl"}, nil, nil)
	assert.Error(t, err)
}

func TestClient_Run(t *testing.T) {
	t.Run("returns output of a prediction that completes while waiting", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/predictions", r.URL.Path)
			assert.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
			assert.Equal(t, "wait", r.Header.Get("Prefer"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "abc123", body["version"])
			assert.Equal(t, map[string]any{"prompt": "a red fox"}, body["input"])

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":["https://replicate.delivery/img1.png"]}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv, "stability-ai/sdxl:abc123", nil)
		out, err := c.Run(context.Background(), json.RawMessage(`"a red fox"`))

		require.NoError(t, err)
		assert.JSONEq(t, `["https://replicate.delivery/img1.png"]`, string(out))
	})

	t.Run("polls until terminal", func(t *testing.T) {
		var polls int32
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				_, _ = w.Write([]byte(`{"id":"p1","status":"starting","urls":{"get":"` + srv.URL + `/v1/predictions/p1"}}`))
			case http.MethodGet:
				assert.Equal(t, "/v1/predictions/p1", r.URL.Path)
				if atomic.AddInt32(&polls, 1) < 3 {
					_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
					return
				}
				_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":{"url":"img1"}}`))
			}
		}))
		defer srv.Close()

		c := newTestClient(t, srv, "stability-ai/sdxl:abc123", nil)
		out, err := c.Run(context.Background(), json.RawMessage(`"a red fox"`))

		require.NoError(t, err)
		assert.JSONEq(t, `{"url":"img1"}`, string(out))
		assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
	})

	t.Run("uses model endpoint without version", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models/black-forest-labs/flux-schnell/predictions", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, hasVersion := body["version"]
			assert.False(t, hasVersion)
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":"img"}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv, "black-forest-labs/flux-schnell", nil)
		out, err := c.Run(context.Background(), json.RawMessage(`"x"`))
		require.NoError(t, err)
		assert.Equal(t, `"img"`, string(out))
	})

	t.Run("failed prediction", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"p1","status":"failed","error":"NSFW content detected"}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv, "stability-ai/sdxl:abc123", nil)
		_, err := c.Run(context.Background(), json.RawMessage(`"x"`))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPredictionFailed)
		assert.Contains(t, err.Error(), "NSFW content detected")
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv, "stability-ai/sdxl:abc123", nil)
		_, err := c.Run(context.Background(), json.RawMessage(`"x"`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("context cancellation stops polling", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv, "stability-ai/sdxl:abc123", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := c.Run(ctx, json.RawMessage(`"x"`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "stability-ai/sdxl:abc123", &BreakerConfig{FailureThreshold: 2, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := c.Run(context.Background(), json.RawMessage(`"x"`))
		require.Error(t, err)
	}

	_, err := c.Run(context.Background(), json.RawMessage(`"x"`))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
