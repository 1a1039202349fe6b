package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/proofpack-health/internal/config"
	"github.com/kirillkom/proofpack-health/internal/core/packhealth"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
	"github.com/kirillkom/proofpack-health/internal/core/usecase"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/extractor"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/queue/nats"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/resilience"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/storage/s3"
)

type App struct {
	Config  config.Config
	Scoring config.Scoring
	Engine  *packhealth.Engine

	Queue       ports.MessageQueue
	Docs        ports.DocumentRepository
	IngestUC    ports.EvidenceIngestor
	EvaluateUC  ports.PackHealthEvaluator
	GapStatusUC ports.GapStatusUpdater
	RescoreUC   ports.RescoreProcessor

	closeFn func()
}

type options struct {
	observer       ports.PackHealthObserver
	breakerChanges resilience.StateListener
}

type Option func(*options)

// WithObserver receives every persisted evaluation, e.g. a metrics recorder.
func WithObserver(observer ports.PackHealthObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func WithBreakerListener(listener resilience.StateListener) Option {
	return func(o *options) {
		o.breakerChanges = listener
	}
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	scoring, err := config.LoadScoring(cfg.ScoringConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	engine, err := packhealth.NewEngine(scoring.Engine)
	if err != nil {
		return nil, fmt.Errorf("init scoring engine: %w", err)
	}

	executor := resilience.NewExecutor(cfg.Resilience(), resilience.WithStateListener(o.breakerChanges))

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	docs := postgres.NewDocumentRepository(db)
	gaps := postgres.NewGapStatusRepository(db)
	scores := postgres.NewScoreRepository(db)

	storage, err := newObjectStorage(ctx, cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		EventSubject:       cfg.NATSEventSubject,
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	classifier := keyword.New(scoring.Engine.RequiredCategories, scoring.ClassifierKeywords)
	textExtractor := extractor.New(storage)

	evaluateOpts := []usecase.EvaluateOption{usecase.WithEventPublisher(queue)}
	if o.observer != nil {
		evaluateOpts = append(evaluateOpts, usecase.WithObserver(o.observer))
	}
	evaluateUC := usecase.NewEvaluatePackUseCase(engine, docs, gaps, scores, evaluateOpts...)

	return &App{
		Config:  cfg,
		Scoring: scoring,
		Engine:  engine,

		Queue:       queue,
		Docs:        docs,
		IngestUC:    usecase.NewIngestEvidenceUseCase(docs, storage, queue, textExtractor, classifier),
		EvaluateUC:  evaluateUC,
		GapStatusUC: usecase.NewGapStatusUseCase(gaps, queue),
		RescoreUC:   usecase.NewProcessRescoreUseCase(evaluateUC),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "localfs":
		return localfs.New(cfg.StoragePath)
	case "s3":
		store, err := s3.New(s3.Options{
			Endpoint:           cfg.S3Endpoint,
			AccessKey:          cfg.S3AccessKey,
			SecretKey:          cfg.S3SecretKey,
			Bucket:             cfg.S3Bucket,
			UseSSL:             cfg.S3UseSSL,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
