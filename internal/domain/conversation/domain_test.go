package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/pixelgate/server/internal/adapter/outbound/memory"
	"github.com/pixelgate/server/internal/domain/apilimit"
	apperrors "github.com/pixelgate/server/internal/shared/errors"
	"github.com/pixelgate/server/internal/utils/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Run(ctx context.Context, prompt json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockProvider) Name() string {
	return "mock"
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordGeneration(provider, outcome string, duration time.Duration) {
	m.Called(provider, outcome, duration)
}

type failingGate struct{ err error }

func (g failingGate) Reserve(context.Context, string) (*apilimit.Reservation, error) {
	return nil, g.err
}

func newTestDomain(t *testing.T, count int) (*Domain, *memory.APILimitStore, *MockProvider) {
	t.Helper()
	store := memory.NewAPILimitStore()
	if count > 0 {
		store.Set("u1", count)
	}
	gate := apilimit.NewAPILimitDomain(store, memory.NewSubscriptionStore(), 5, nil, zap.NewNop())
	provider := new(MockProvider)
	return NewConversationDomain(gate, provider, nil, zap.NewNop()), store, provider
}

func assertAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.StatusCode)
	assert.Equal(t, message, appErr.Message)
}

// --- Tests ---

func TestDomain_Generate_Success(t *testing.T) {
	ctx := context.Background()
	d, store, provider := newTestDomain(t, 2)

	prompt := json.RawMessage(`"a red fox"`)
	provider.On("Run", mock.Anything, prompt).Return(json.RawMessage(`{"url":"img1"}`), nil).Once()

	out, err := d.Generate(ctx, "u1", prompt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"img1"}`, string(out))

	count, _ := store.Get(ctx, "u1")
	assert.Equal(t, 3, count)
	provider.AssertNumberOfCalls(t, "Run", 1)
}

func TestDomain_Generate_FreeTrialExpired(t *testing.T) {
	ctx := context.Background()
	d, store, provider := newTestDomain(t, 5)

	_, err := d.Generate(ctx, "u1", json.RawMessage(`"a red fox"`))
	assertAppError(t, err, http.StatusForbidden, MsgFreeTrialExpired)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	count, _ := store.Get(ctx, "u1")
	assert.Equal(t, 5, count)
	provider.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestDomain_Generate_Unauthenticated(t *testing.T) {
	d, _, provider := newTestDomain(t, 0)

	_, err := d.Generate(context.Background(), "", json.RawMessage(`"a red fox"`))
	assertAppError(t, err, http.StatusUnauthorized, MsgUnauthorized)
	provider.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestDomain_Generate_MessagesRequired(t *testing.T) {
	for _, raw := range []string{"", "null", `""`, "false", "0"} {
		t.Run(raw, func(t *testing.T) {
			ctx := context.Background()
			d, store, provider := newTestDomain(t, 1)

			_, err := d.Generate(ctx, "u1", json.RawMessage(raw))
			assertAppError(t, err, http.StatusBadRequest, MsgMessagesRequired)

			count, _ := store.Get(ctx, "u1")
			assert.Equal(t, 1, count)
			provider.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestDomain_Generate_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	d, store, provider := newTestDomain(t, 2)

	provider.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("replicate: status 502")).Once()

	_, err := d.Generate(ctx, "u1", json.RawMessage(`"a red fox"`))
	assertAppError(t, err, http.StatusInternalServerError, MsgInternal)
	assert.ErrorIs(t, err, apperrors.ErrProviderFailure)

	count, _ := store.Get(ctx, "u1")
	assert.Equal(t, 2, count)
}

func TestDomain_Generate_ProviderFailureWithCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d, store, provider := newTestDomain(t, 0)

	provider.On("Run", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()

	_, err := d.Generate(ctx, "u1", json.RawMessage(`"a red fox"`))
	assertAppError(t, err, http.StatusInternalServerError, MsgInternal)

	count, _ := store.Get(context.Background(), "u1")
	assert.Equal(t, 0, count)
}

func TestDomain_Generate_GateFailure(t *testing.T) {
	provider := new(MockProvider)
	d := NewConversationDomain(failingGate{err: errors.New("redis down")}, provider, nil, zap.NewNop())

	_, err := d.Generate(context.Background(), "u1", json.RawMessage(`"a red fox"`))
	assertAppError(t, err, http.StatusInternalServerError, MsgInternal)
	provider.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestDomain_Generate_RecordsOutcome(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAPILimitStore()
	gate := apilimit.NewAPILimitDomain(store, nil, 5, nil, zap.NewNop())
	provider := new(MockProvider)
	rec := new(MockRecorder)
	d := NewConversationDomain(gate, provider, rec, zap.NewNop())

	provider.On("Run", mock.Anything, mock.Anything).Return(json.RawMessage(`["a.png"]`), nil).Once()
	provider.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	rec.On("RecordGeneration", "mock", metrics.OutcomeSuccess, mock.Anything).Return().Once()
	rec.On("RecordGeneration", "mock", metrics.OutcomeFailure, mock.Anything).Return().Once()

	_, err := d.Generate(ctx, "u1", json.RawMessage(`"x"`))
	require.NoError(t, err)
	_, err = d.Generate(ctx, "u1", json.RawMessage(`"x"`))
	require.Error(t, err)

	rec.AssertExpectations(t)
}

func TestDomain_Generate_ExhaustsTrial(t *testing.T) {
	ctx := context.Background()
	d, store, provider := newTestDomain(t, 0)
	provider.On("Run", mock.Anything, mock.Anything).Return(json.RawMessage(`"ok"`), nil)

	for i := 0; i < 5; i++ {
		_, err := d.Generate(ctx, "u1", json.RawMessage(`"x"`))
		require.NoError(t, err)
	}
	_, err := d.Generate(ctx, "u1", json.RawMessage(`"x"`))
	assertAppError(t, err, http.StatusForbidden, MsgFreeTrialExpired)

	count, _ := store.Get(ctx, "u1")
	assert.Equal(t, 5, count)
	provider.AssertNumberOfCalls(t, "Run", 5)
}
