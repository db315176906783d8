//go:build wireinject
// +build wireinject

package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/pixelgate/server/internal/domain/apilimit"

	// Inbound adapters
	apilimithttp "github.com/pixelgate/server/internal/adapter/inbound/http/apilimit"
	conversationhttp "github.com/pixelgate/server/internal/adapter/inbound/http/conversation"
	webhookhttp "github.com/pixelgate/server/internal/adapter/inbound/http/webhook"

	// Ports
	"github.com/pixelgate/server/internal/port/outbound"

	// Infrastructure
	"github.com/pixelgate/server/internal/infra/config"

	// Utils
	"github.com/pixelgate/server/internal/shared/logger"
	"github.com/pixelgate/server/internal/utils/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      goredis.UniversalClient
	HTTPClient *http.Client
	Logger     *logger.Logger
	ZapLogger  *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics

	SessionVerifier outbound.SessionVerifierPort
	APILimitDomain  *apilimit.Domain

	// HTTP Handlers
	ConversationHandler *conversationhttp.Handler
	APILimitHandler     *apilimithttp.Handler
	WebhookHandler      *webhookhttp.Handler
}

// InitializeDependencies creates all dependencies using Wire.
func InitializeDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	wire.Build(
		AppSet,
		wire.Struct(new(Dependencies), "*"),
	)
	return nil, nil, nil
}
