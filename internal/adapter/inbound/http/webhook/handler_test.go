package webhookhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pixelgate/server/internal/domain/subscription"
	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockBilling struct {
	mock.Mock
}

func (m *MockBilling) ConstructEvent(payload []byte, signature string) (*outbound.BillingEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.BillingEvent), args.Error(1)
}

func (m *MockBilling) GetSubscription(ctx context.Context, subscriptionID string) (*outbound.BillingSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.BillingSubscription), args.Error(1)
}

type MockSubscriptionDomain struct {
	mock.Mock
}

func (m *MockSubscriptionDomain) HandleEvent(ctx context.Context, event *outbound.BillingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSubscriptionDomain) IsPro(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func setupRouter(billing *MockBilling, domain *MockSubscriptionDomain) *gin.Engine {
	router := gin.New()
	NewHandler(billing, domain, zap.NewNop()).RegisterRoutes(router.Group("/api"))
	return router
}

func post(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set(StripeSignatureHeader, signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Webhook(t *testing.T) {
	event := &outbound.BillingEvent{ID: "evt_1", Type: outbound.BillingEventCheckoutCompleted, UserID: "u1", SubscriptionID: "sub_1"}

	t.Run("processed", func(t *testing.T) {
		billing := new(MockBilling)
		domain := new(MockSubscriptionDomain)
		billing.On("ConstructEvent", []byte(`{"id":"evt_1"}`), "t=1,v1=abc").Return(event, nil)
		domain.On("HandleEvent", mock.Anything, event).Return(nil)

		w := post(setupRouter(billing, domain), `{"id":"evt_1"}`, "t=1,v1=abc")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		domain.AssertExpectations(t)
	})

	t.Run("bad signature", func(t *testing.T) {
		billing := new(MockBilling)
		domain := new(MockSubscriptionDomain)
		billing.On("ConstructEvent", mock.Anything, mock.Anything).
			Return(nil, errors.New("invalid webhook: signature mismatch"))

		w := post(setupRouter(billing, domain), `{}`, "bogus")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Webhook Error: invalid webhook: signature mismatch", w.Body.String())
		domain.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
	})

	t.Run("missing user id", func(t *testing.T) {
		billing := new(MockBilling)
		domain := new(MockSubscriptionDomain)
		billing.On("ConstructEvent", mock.Anything, mock.Anything).Return(event, nil)
		domain.On("HandleEvent", mock.Anything, event).Return(subscription.ErrUserIDRequired)

		w := post(setupRouter(billing, domain), `{}`, "sig")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User id is required", w.Body.String())
	})

	t.Run("processing failure", func(t *testing.T) {
		billing := new(MockBilling)
		domain := new(MockSubscriptionDomain)
		billing.On("ConstructEvent", mock.Anything, mock.Anything).Return(event, nil)
		domain.On("HandleEvent", mock.Anything, event).Return(errors.New("db down"))

		w := post(setupRouter(billing, domain), `{}`, "sig")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal Error", w.Body.String())
	})
}
