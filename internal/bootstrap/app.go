package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"notetutor/internal/ai"
	"notetutor/internal/app"
	"notetutor/internal/cache"
	"notetutor/internal/config"
	mysqlClient "notetutor/internal/platform/mysql"
	"notetutor/internal/platform/objectstore"
	rabbitmqClient "notetutor/internal/platform/rabbitmq"
	redisClient "notetutor/internal/platform/redis"
	"notetutor/internal/rag"
	"notetutor/internal/repository"
	"notetutor/internal/study"
	"notetutor/internal/vectorindex"
	"notetutor/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	MySQL  *gorm.DB
	Redis  *redis.Client
	// MQConn is nil when ingestion runs in-process.
	MQConn *amqp.Connection

	IngestWorker *worker.IngestWorker
	Local        *worker.LocalDispatcher

	AuthService  *app.AuthService
	NoteService  *app.NoteService
	ChatService  *app.ChatService
	StudyService *app.StudyService

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.Env == "dev")
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlClient.Migrate(mysqlDB); err != nil {
		return err
	}

	redisCli, err := redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.Redis = redisCli

	index, err := newIndex(cfg, mysqlDB)
	if err != nil {
		return err
	}

	embeddingClient := ai.NewOpenAIClient(ai.OpenAIConfig{
		BaseURL:        cfg.LLM.EmbeddingBaseURL,
		APIKey:         cfg.LLM.EmbeddingAPIKey,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		QueryPrefix:    cfg.LLM.EmbeddingQueryPrefix,
		DocumentPrefix: cfg.LLM.EmbeddingDocumentPrefix,
	})
	embedder := rag.NewEmbedder(embeddingClient, rag.EmbedderConfig{
		Dimensions:        cfg.RAG.EmbeddingDimensions,
		BatchSize:         cfg.RAG.EmbedBatchSize,
		Concurrency:       cfg.RAG.EmbedConcurrency,
		RequestsPerSecond: cfg.RAG.EmbedRPS,
	})
	pipeline := rag.NewPipeline(embedder, index, cfg.RAG.ChunkSize, a.named("rag"))

	docRepo := repository.NewDocumentRepository(mysqlDB)
	artifactRepo := repository.NewArtifactRepository(mysqlDB)
	userRepo := repository.NewUserRepository(mysqlDB)
	status := cache.NewIngestStatusCache(redisCli, time.Duration(cfg.Redis.IngestStatusTTLS)*time.Second)

	processor := worker.NewProcessor(docRepo, pipeline, index, status, cfg.IngestTimeout(), a.named("ingest"))
	dispatcher, err := a.newDispatcher(ctx, processor)
	if err != nil {
		return err
	}

	var archive app.UploadArchive
	if cfg.Storage.Enabled() {
		s3Archive, err := objectstore.NewS3Archive(objectstore.Options{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PathStyle:       cfg.Storage.PathStyle,
		})
		if err != nil {
			return err
		}
		archive = s3Archive
	}

	runner := study.NewRunner(newGenerator(cfg, cfg.LLM.GenerationModel), study.RunnerConfig{
		MaxAttempts: cfg.Generation.MaxAttempts,
		RetryDelay:  cfg.RetryDelay(),
	}, a.named("study"))

	a.AuthService = app.NewAuthService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute)
	a.NoteService = app.NewNoteService(docRepo, index, status, dispatcher, archive, runner, a.named("notes"))
	a.ChatService = app.NewChatService(docRepo, embedder, index, newGenerator(cfg, cfg.LLM.ChatModel), app.ChatConfig{
		TopK:            cfg.RAG.TopK,
		MaxContextChars: cfg.RAG.MaxContextChars,
		MaxHistory:      cfg.LLM.MaxContextMessages,
	}, a.named("chat"))
	a.StudyService = app.NewStudyService(docRepo, artifactRepo, runner, a.named("study"))

	if cfg.RAG.IndexBackend == "memory" {
		n, err := a.NoteService.ReindexAll(ctx)
		if err != nil {
			return fmt.Errorf("rebuild memory index failed: %w", err)
		}
		a.Logger.Info("rebuilding memory index", zap.Int("documents", n))
	}

	a.Logger.Info("application ready",
		zap.String("index_backend", cfg.RAG.IndexBackend),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Int("embedding_dimensions", cfg.RAG.EmbeddingDimensions),
		zap.Bool("queue", a.MQConn != nil),
		zap.Bool("archive", archive != nil),
	)
	return nil
}

// newDispatcher uses RabbitMQ when a URL is configured and local goroutines otherwise.
func (a *App) newDispatcher(ctx context.Context, processor *worker.Processor) (worker.Dispatcher, error) {
	cfg := a.Config.RabbitMQ
	if cfg.URL == "" {
		a.Local = worker.NewLocalDispatcher(processor)
		return a.Local, nil
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.URL, cfg.IngestQueue)
	if err != nil {
		return nil, err
	}
	a.MQConn = mqConn

	a.IngestWorker = worker.NewIngestWorker(mqConn, processor, cfg.IngestQueue, a.named("ingest-worker"))
	if err := a.IngestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}
	return rabbitmqClient.NewIngestPublisher(mqConn, cfg.IngestQueue), nil
}

func newIndex(cfg *config.Config, db *gorm.DB) (vectorindex.Index, error) {
	switch cfg.RAG.IndexBackend {
	case "memory":
		return vectorindex.NewMemoryIndex(cfg.RAG.EmbeddingDimensions), nil
	case "mysql":
		return vectorindex.NewGormIndex(db, cfg.RAG.EmbeddingDimensions), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.RAG.IndexBackend)
	}
}

func newGenerator(cfg *config.Config, model string) ai.Generator {
	if cfg.LLM.Provider == "anthropic" {
		return ai.NewAnthropicClient(ai.AnthropicConfig{
			BaseURL:         cfg.LLM.BaseURL,
			APIKey:          cfg.LLM.APIKey,
			Model:           model,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		})
	}
	return ai.NewOpenAIClient(ai.OpenAIConfig{
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Model:           model,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
}

func (a *App) named(component string) *zap.Logger {
	return a.Logger.Named(component)
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.Local != nil {
		a.Local.Wait()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		if err := mysqlClient.Close(a.MySQL); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
