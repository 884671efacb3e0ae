package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"cleanbuddy-fulfillment/res/auth"
	"cleanbuddy-fulfillment/res/cache"
	"cleanbuddy-fulfillment/res/cache/redis"
	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/events/rabbitmq"
	"cleanbuddy-fulfillment/res/notification"
	"cleanbuddy-fulfillment/res/notification/slack"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/store/memory"
	"cleanbuddy-fulfillment/res/store/postgresql"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/assignment"
	"cleanbuddy-fulfillment/sys/availability"
	"cleanbuddy-fulfillment/sys/directory"
	"cleanbuddy-fulfillment/sys/http/handler"
	"cleanbuddy-fulfillment/sys/http/ws"
	"cleanbuddy-fulfillment/sys/lifecycle"
	"cleanbuddy-fulfillment/sys/payment"
	"cleanbuddy-fulfillment/sys/rating"
	"cleanbuddy-fulfillment/sys/review"

	"github.com/kelseyhightower/envconfig"
)

var logger = log.New(os.Stdout, "", log.LstdFlags|log.LUTC|log.Llongfile)

// CONFIGURATION CONVENTION:
// All environment variable configuration is centralized in this file (api/index.go).
// Optional integrations degrade to no-op implementations when their variables are unset.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Empty runs on the seeded in-memory store, which production refuses
	DatabaseURL         string `envconfig:"DATABASE_POSTGRES_URL"`
	DatabaseAutoMigrate bool   `envconfig:"DATABASE_AUTO_MIGRATE" default:"false"`

	JWTSecret   string `envconfig:"AUTH_JWT_SECRET" required:"true"`
	FrontendURL string `envconfig:"FRONTEND_URL"`

	SlackWebhookURL     string `envconfig:"SLACK_WEBHOOK_URL"`
	SlackTimeoutSeconds int    `envconfig:"SLACK_TIMEOUT_SECONDS" default:"5"`

	RabbitURL      string `envconfig:"RABBITMQ_URL"`
	RabbitExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"fulfillment.events"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	RatingCacheTTL time.Duration `envconfig:"RATING_CACHE_TTL" default:"1m"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"cleanbuddy-fulfillment"`

	GlobalAdminEmail string `envconfig:"GLOBAL_ADMIN_EMAIL"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" && cfg.Environment == "production" {
		return nil, errors.New("DATABASE_POSTGRES_URL is required in production")
	}
	return &cfg, nil
}

// API is the fully wired service
type API struct {
	Handler http.Handler
	Store   store.Store
	Auth    auth.Auth

	// Fixture is the seeded data of the in-memory store, nil on Postgres
	Fixture *memory.Fixture

	hub       *ws.Hub
	shutdowns []func(context.Context) error
}

func New(ctx context.Context, cfg *Config) (*API, error) {
	a := &API{Auth: auth.New(cfg.JWTSecret)}

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		return nil, err
	}
	a.shutdowns = append(a.shutdowns, shutdownTracer)

	if err := a.configStore(ctx, cfg); err != nil {
		_ = a.Shutdown(ctx)
		return nil, err
	}

	dir := directory.FromStore(a.Store)
	a.hub = ws.NewHub(ws.Config{
		Logger:      logger,
		Directory:   dir,
		Environment: cfg.Environment,
		FrontendURL: cfg.FrontendURL,
	})
	emitter := events.NewEmitter(logger, append(a.configBroker(cfg), a.hub)...)
	notifier := configNotification(cfg)

	engine := lifecycle.New(lifecycle.Config{
		Logger:    logger,
		Store:     a.Store,
		Directory: dir,
		Events:    emitter,
		Notifier:  notifier,
	})
	aggregator := rating.New(rating.Config{
		Logger:   logger,
		Store:    a.Store,
		Cache:    configCache(ctx, cfg),
		CacheTTL: cfg.RatingCacheTTL,
		Events:   emitter,
	})

	a.Handler = handler.New(&handler.Config{
		Logger:    logger,
		Store:     a.Store,
		Auth:      a.Auth,
		Lifecycle: engine,
		Assignment: assignment.New(assignment.Config{
			Logger:    logger,
			Store:     a.Store,
			Directory: dir,
			Lifecycle: engine,
			Events:    emitter,
			Notifier:  notifier,
		}),
		Availability: availability.New(availability.Config{
			Logger:    logger,
			Store:     a.Store,
			Directory: dir,
			Events:    emitter,
		}),
		Payments: payment.New(payment.Config{
			Logger: logger,
			Store:  a.Store,
			Events: emitter,
		}),
		Rating: aggregator,
		Reviews: review.New(review.Config{
			Logger: logger,
			Store:  a.Store,
			Rating: aggregator,
		}),
		Events:      a.hub,
		Environment: cfg.Environment,
		FrontendURL: cfg.FrontendURL,
	})

	return a, nil
}

// Shutdown releases every connection New opened, newest first
func (a *API) Shutdown(ctx context.Context) error {
	if a.hub != nil {
		a.hub.Close()
	}

	var errs []error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *API) configStore(ctx context.Context, cfg *Config) error {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_POSTGRES_URL not set, using seeded in-memory store")
		mem := memory.New()
		fixture, err := memory.Seed(ctx, mem)
		if err != nil {
			return fmt.Errorf("failed to seed in-memory store: %w", err)
		}
		a.Store, a.Fixture = mem, fixture
		return nil
	}

	pg, err := postgresql.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.shutdowns = append(a.shutdowns, func(context.Context) error { return pg.Close() })

	if cfg.DatabaseAutoMigrate {
		if err := pg.Migrate(); err != nil {
			return err
		}
		logger.Printf("Database schema migrated")
	}

	a.Store = pg
	return nil
}

func (a *API) configBroker(cfg *Config) []events.Publisher {
	if cfg.RabbitURL == "" {
		logger.Printf("RABBITMQ_URL not set, event publishing to broker disabled")
		return nil
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		logger.Printf("Error connecting to RabbitMQ, event publishing to broker disabled: %s", err)
		return nil
	}
	a.shutdowns = append(a.shutdowns, func(context.Context) error { return publisher.Close() })
	return []events.Publisher{publisher}
}

func configCache(ctx context.Context, cfg *Config) cache.Cache {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not set, rating cache disabled")
		return cache.Nop()
	}

	c, err := redis.New(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.ServiceName)
	if err != nil {
		logger.Printf("Error connecting to Redis, rating cache disabled: %s", err)
		return cache.Nop()
	}
	return c
}

func configNotification(cfg *Config) notification.NotificationService {
	if cfg.SlackWebhookURL == "" {
		logger.Printf("SLACK_WEBHOOK_URL not set, notifications disabled")
		return notification.Nop()
	}

	timeout := time.Duration(cfg.SlackTimeoutSeconds) * time.Second
	return slack.New(cfg.SlackWebhookURL, timeout, logger)
}
