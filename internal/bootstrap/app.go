package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cerebro/internal/ai"
	"cerebro/internal/app"
	"cerebro/internal/cache"
	"cerebro/internal/config"
	"cerebro/internal/model"
	"cerebro/internal/platform/database"
	rabbitmqClient "cerebro/internal/platform/rabbitmq"
	redisClient "cerebro/internal/platform/redis"
	"cerebro/internal/repository"
	"cerebro/internal/storage"
	"cerebro/internal/worker"
)

type App struct {
	Config         *config.Config
	Log            *zap.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ExchangeWorker *worker.ExchangeLogWorker

	Agent     *app.AgentService
	Ingest    *app.IngestService
	Materials *app.MaterialService

	StartedAt time.Time
}

// New wires every dependency of the HTTP server. Redis and RabbitMQ are
// optional; without them sessions stay in process memory and exchange
// records are written synchronously.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	gateway, err := NewGateway(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	return NewWithGateway(ctx, cfg, log, gateway)
}

// NewWithGateway is New with the model gateway supplied by the caller.
func NewWithGateway(ctx context.Context, cfg *config.Config, log *zap.Logger, gateway ai.Gateway) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log, StartedAt: time.Now()}
	if err := a.wire(ctx, gateway); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, gateway ai.Gateway) error {
	cfg := a.Config

	var err error
	a.DB, err = database.New(ctx, cfg.Database, cfg.MySQLDSN())
	if err != nil {
		return err
	}
	if err := database.Migrate(a.DB); err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}

	files, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		return err
	}
	materialRepo := repository.NewMaterialRepository(a.DB)
	exchangeRepo := repository.NewExchangeLogRepository(a.DB)

	sessionTTL := time.Duration(cfg.Redis.SessionTTLSeconds) * time.Second
	var sessions app.SessionStore = cache.NewMemorySessionStore(sessionTTL)
	if a.Redis != nil {
		sessions = cache.NewRedisSessionStore(a.Redis, sessionTTL)
	}

	var recorder app.ExchangeRecorder = app.RecorderFunc(func(ctx context.Context, entry model.ExchangeLog) error {
		return exchangeRepo.Create(ctx, &entry)
	})
	if a.MQConn != nil {
		a.ExchangeWorker = worker.NewExchangeLogWorker(a.MQConn, exchangeRepo, cfg.RabbitMQ.ExchangeLogQueue, a.Log.Named("worker"))
		if err := a.ExchangeWorker.Start(ctx); err != nil {
			return fmt.Errorf("start exchange log worker failed: %w", err)
		}
		recorder = rabbitmqClient.NewExchangePublisher(a.MQConn, cfg.RabbitMQ.ExchangeLogQueue)
	}

	a.Agent = app.NewAgentService(
		materialRepo,
		sessions,
		gateway,
		app.NewLocalSearchTool(materialRepo, 0),
		recorder,
		exchangeRepo,
		a.Log.Named("agent"),
	)
	a.Ingest = app.NewIngestService(materialRepo, files, gateway, a.Log.Named("ingest"))
	a.Materials = app.NewMaterialService(materialRepo, gateway, a.Log.Named("materials"))

	a.Log.Info("application wired",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("redis", a.Redis != nil),
		zap.Bool("rabbitmq", a.MQConn != nil),
	)
	return nil
}

// NewGateway builds the configured model gateway with the request deadline
// applied.
func NewGateway(ctx context.Context, cfg config.LLMConfig) (ai.Gateway, error) {
	var gateway ai.Gateway
	switch cfg.Provider {
	case "openai":
		gateway = ai.NewOpenAICompatibleGateway(ai.ChatConfig{
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			ReasoningEffort: cfg.ReasoningEffort,
		})
	default:
		gemini, err := ai.NewGeminiGateway(ctx, ai.GeminiConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			ReasoningEffort: cfg.ReasoningEffort,
		})
		if err != nil {
			return nil, err
		}
		gateway = gemini
	}
	return ai.WithTimeout(gateway, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
}

func (a *App) Close() error {
	var closeErr error
	if a.ExchangeWorker != nil {
		a.ExchangeWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
