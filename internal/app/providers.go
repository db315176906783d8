package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/pixelgate/server/internal/domain/apilimit"
	"github.com/pixelgate/server/internal/domain/conversation"
	"github.com/pixelgate/server/internal/domain/subscription"

	// Inbound adapters
	apilimithttp "github.com/pixelgate/server/internal/adapter/inbound/http/apilimit"
	conversationhttp "github.com/pixelgate/server/internal/adapter/inbound/http/conversation"
	webhookhttp "github.com/pixelgate/server/internal/adapter/inbound/http/webhook"

	// Ports
	"github.com/pixelgate/server/internal/port/inbound"
	"github.com/pixelgate/server/internal/port/outbound"

	// Outbound adapters
	"github.com/pixelgate/server/internal/adapter/outbound/memory"
	"github.com/pixelgate/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/pixelgate/server/internal/adapter/outbound/redis"
	"github.com/pixelgate/server/internal/adapter/outbound/replicate"
	"github.com/pixelgate/server/internal/adapter/outbound/session"
	stripeadapter "github.com/pixelgate/server/internal/adapter/outbound/stripe"

	// Infrastructure
	"github.com/pixelgate/server/internal/infra/config"
	"github.com/pixelgate/server/internal/infra/httpclient"
	"github.com/pixelgate/server/internal/shared/cache"
	"github.com/pixelgate/server/internal/shared/database"

	// Utils
	"github.com/pixelgate/server/internal/shared/logger"
	"github.com/pixelgate/server/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideLogger,
	ProvideZapLogger,
	ProvideRegisterer,
	ProvideMetrics,
)

// ProvideDatabase creates a database connection when one is configured.
// It returns nil when database.host is empty.
func ProvideDatabase(cfg *config.Config, zapLog *zap.Logger) (*gorm.DB, func(), error) {
	if cfg.Database.Host == "" {
		return nil, func() {}, nil
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			zapLog.Warn("close database", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// ProvideRedisClient creates a Redis client for the redis quota backend.
// It returns nil for other backends.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func(), error) {
	if cfg.Quota.Backend != config.QuotaBackendRedis {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			zapLog.Warn("close redis", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideLogger creates a logger instance.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates a zap logger instance.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideHTTPClient creates a shared HTTP client with connection pooling.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideRegisterer returns the metrics registry served on /metrics.
func ProvideRegisterer() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New("pixelgate", reg)
}

// ===== Store Providers =====

// StoreSet provides usage counter and subscription persistence.
var StoreSet = wire.NewSet(
	ProvideAPILimitStore,
	ProvideSubscriptionStore,
)

// ProvideAPILimitStore selects the usage counter backend.
func ProvideAPILimitStore(cfg *config.Config, db *gorm.DB, redis goredis.UniversalClient) outbound.APILimitStorePort {
	switch cfg.Quota.Backend {
	case config.QuotaBackendRedis:
		return redisadapter.NewAPILimitStore(redis)
	case config.QuotaBackendPostgres:
		return postgres.NewAPILimitAdapter(db)
	default:
		return memory.NewAPILimitStore()
	}
}

// ProvideSubscriptionStore keeps subscriptions in Postgres when a database is configured.
func ProvideSubscriptionStore(db *gorm.DB) outbound.SubscriptionStorePort {
	if db == nil {
		return memory.NewSubscriptionStore()
	}
	return postgres.NewSubscriptionAdapter(db)
}

// ===== Outbound Adapter Providers =====

// AdapterSet provides third party integrations.
var AdapterSet = wire.NewSet(
	ProvideGenerationProvider,
	ProvideSessionVerifier,
	ProvideBillingProvider,
)

// ProvideGenerationProvider creates the Replicate client.
func ProvideGenerationProvider(cfg *config.Config, httpClient *http.Client, zapLog *zap.Logger) (outbound.GenerationProviderPort, error) {
	gen := cfg.Generation
	rcfg := replicate.Config{
		BaseURL:      gen.BaseURL,
		APIToken:     gen.APIToken,
		Model:        gen.Model,
		Timeout:      gen.Timeout,
		PollInterval: gen.PollInterval,
	}
	if gen.CircuitBreaker.Enabled {
		rcfg.Breaker = &replicate.BreakerConfig{
			FailureThreshold: gen.CircuitBreaker.FailureThreshold,
			Timeout:          gen.CircuitBreaker.Timeout,
		}
	}
	client, err := replicate.NewClient(rcfg, httpClient, zapLog)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideSessionVerifier creates the session token verifier.
func ProvideSessionVerifier(cfg *config.Config) (outbound.SessionVerifierPort, error) {
	verifier, err := session.NewJWTVerifier(session.Config{
		Secret:       cfg.Auth.SessionSecret,
		PublicKeyPEM: cfg.Auth.SessionPublicKey,
		Issuer:       cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, err
	}
	return verifier, nil
}

// ProvideBillingProvider creates the Stripe billing provider.
func ProvideBillingProvider(cfg *config.Config, httpClient *http.Client) outbound.BillingProviderPort {
	return stripeadapter.NewProvider(stripeadapter.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, httpClient)
}

// ===== Domain Providers =====

// DomainSet provides the domain services.
var DomainSet = wire.NewSet(
	ProvideAPILimitDomain,
	wire.Bind(new(inbound.APILimitDomain), new(*apilimit.Domain)),
	ProvideConversationDomain,
	wire.Bind(new(inbound.ConversationDomain), new(*conversation.Domain)),
	ProvideSubscriptionDomain,
	wire.Bind(new(inbound.SubscriptionDomain), new(*subscription.Domain)),
)

// ProvideAPILimitDomain creates the access gate.
func ProvideAPILimitDomain(
	cfg *config.Config,
	store outbound.APILimitStorePort,
	subscriptions outbound.SubscriptionStorePort,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) *apilimit.Domain {
	return apilimit.NewAPILimitDomain(store, subscriptions, cfg.Quota.FreeLimit, m, zapLog,
		apilimit.WithProBypass(cfg.Quota.ProBypass),
	)
}

// ProvideConversationDomain creates the generation flow.
func ProvideConversationDomain(
	gate *apilimit.Domain,
	provider outbound.GenerationProviderPort,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) *conversation.Domain {
	return conversation.NewConversationDomain(gate, provider, m, zapLog)
}

// ProvideSubscriptionDomain creates the subscription domain.
func ProvideSubscriptionDomain(
	store outbound.SubscriptionStorePort,
	billing outbound.BillingProviderPort,
	gate *apilimit.Domain,
	zapLog *zap.Logger,
) *subscription.Domain {
	return subscription.NewSubscriptionDomain(store, billing, gate, zapLog)
}

// ===== HTTP Handler Providers =====

// HandlerSet provides all HTTP handlers.
var HandlerSet = wire.NewSet(
	conversationhttp.NewHandler,
	apilimithttp.NewHandler,
	webhookhttp.NewHandler,
)

// ===== Master Set =====

// AppSet is the master provider set that includes all dependencies.
var AppSet = wire.NewSet(
	InfraSet,
	StoreSet,
	AdapterSet,
	DomainSet,
	HandlerSet,
)

// Compile-time interface checks
var (
	_ inbound.APILimitDomain     = (*apilimit.Domain)(nil)
	_ inbound.ConversationDomain = (*conversation.Domain)(nil)
	_ inbound.SubscriptionDomain = (*subscription.Domain)(nil)
)
