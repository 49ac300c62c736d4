package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
	"github.com/kirillkom/ad-autonamer/internal/core/usecase"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/repository/memory"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/resilience"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/storage/s3"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/tabular"
)

type App struct {
	Config config.Config
	Engine *Engine

	Queue    ports.MessageQueue
	Repo     ports.SessionRepository
	Storage  ports.ObjectStorage
	Executor *resilience.Executor

	AnalyzeUC *usecase.AnalyzeSessionUseCase
	ReviewUC  *usecase.ReviewSessionUseCase
	ExportUC  *usecase.ExportSessionUseCase

	closeFn func()
}

// New wires the service. observer may be nil; when set it receives retry and
// breaker transitions from every outbound call.
func New(ctx context.Context, cfg config.Config, observer resilience.Observer) (*App, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg))
	if observer != nil {
		executor.WithObserver(observer)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}

	storage, err := openStorage(cfg, executor)
	if err != nil {
		closeAll()
		return nil, err
	}

	var queue ports.MessageQueue
	if cfg.NATSEnabled {
		q, err := nats.NewWithOptions(cfg.NATSURL, nats.Subjects{
			Analysis: cfg.NATSAnalysisSubject,
			Updates:  cfg.NATSUpdatesSubject,
		}, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = q
		closers = append(closers, q.Close)
	}

	analyzeUC := usecase.NewAnalyzeSessionUseCase(repo, engine.Grouper, queue)
	reviewUC := usecase.NewReviewSessionUseCase(repo, engine.Mutator, engine.Reader, queue)
	exportUC := usecase.NewExportSessionUseCase(
		repo,
		engine.Model,
		storage,
		tabular.NewCSVEncoder(),
		tabular.NewXLSXEncoder(),
		tabular.NewJSONEncoder(),
	)

	slog.Info("bootstrap_ready",
		"session_store", cfg.SessionStore,
		"export_store", cfg.ExportStore,
		"nats_enabled", cfg.NATSEnabled,
		"rules_file", cfg.RulesFile,
	)

	return &App{
		Config:   cfg,
		Engine:   engine,
		Queue:    queue,
		Repo:     repo,
		Storage:  storage,
		Executor: executor,

		AnalyzeUC: analyzeUC,
		ReviewUC:  reviewUC,
		ExportUC:  exportUC,

		closeFn: closeAll,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func openRepository(ctx context.Context, cfg config.Config) (ports.SessionRepository, *sql.DB, error) {
	switch strings.ToLower(cfg.SessionStore) {
	case "memory":
		return memory.NewSessionStore(), nil, nil
	case "postgres", "":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewSessionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func openStorage(cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch strings.ToLower(cfg.ExportStore) {
	case "none":
		return nil, nil
	case "s3":
		storage, err := s3.New(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			Prefix:    cfg.S3Prefix,
		}, executor)
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage, nil
	case "localfs", "":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown export store %q", cfg.ExportStore)
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.RetryMaxAttempts
	out.RetryInitialBackoff = cfg.RetryBackoff
	out.RetryMaxBackoff = cfg.RetryMaxBackoff
	out.BreakerEnabled = cfg.BreakerEnabled
	out.BreakerOpenTimeout = cfg.BreakerOpenFor
	return out
}
