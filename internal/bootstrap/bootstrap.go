package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/config"
	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/core/ports"
	"github.com/dkraev/doc-anonymizer/internal/core/usecase"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/analyzer"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/docedit"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/extractor"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/extractor/local"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/ocr"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/pdfstamp"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/queue/nats"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/repository/postgres"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/resilience"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/storage/localfs"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/tika"
)

type App struct {
	Config config.Config

	Queue     *nats.Queue
	Jobs      ports.JobRepository
	Processor ports.JobProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewJobRepository(db)
	datasets := postgres.NewDatasetRepository(db)

	store, err := localfs.New(cfg.ProjectRoot, cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		CallTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init job queue: %w", err)
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	healthTimeout := time.Duration(cfg.HealthTimeoutSeconds) * time.Second

	conversion := tika.New(cfg.TikaURL, tika.Options{
		RequestTimeout:     requestTimeout,
		HealthTimeout:      healthTimeout,
		ResilienceExecutor: executor,
	})
	ocrClient := ocr.New(cfg.OCRURL, ocr.Options{
		Language:           cfg.OCRLanguage,
		PageSegMode:        cfg.OCRPageSegMode,
		EngineMode:         cfg.OCREngineMode,
		RequestTimeout:     requestTimeout,
		HealthTimeout:      healthTimeout,
		RequestsPerSecond:  cfg.OCRRequestsPerSecond,
		ResilienceExecutor: executor,
	})
	analyzerClient := analyzer.New(cfg.AnalyzerURL, analyzer.Options{
		RequestTimeout:     requestTimeout,
		ResilienceExecutor: executor,
	})

	hybridTypes := make([]domain.FileType, 0, len(cfg.HybridFileTypes))
	for _, ft := range cfg.HybridFileTypes {
		hybridTypes = append(hybridTypes, domain.FileType(ft))
	}
	textExtractor := extractor.New(conversion, ocrClient, local.NewReader(), extractor.Config{
		MaxFileSize:   cfg.MaxFileSizeBytes,
		MaxTextLength: cfg.MaxTextLength,
		HybridTypes:   hybridTypes,
	})

	defaultPolicy, err := config.LoadDefaultPolicy(cfg.DefaultPolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load default policy: %w", err)
	}

	generic := usecase.NewGenericAnonymizer(analyzerClient, store, usecase.OutputFormat(cfg.OutputFormat))
	pdf := usecase.NewPDFAnonymizer(pdfstamp.NewStamper(), store)
	docx := usecase.NewDOCXAnonymizer(docedit.NewBackend(), store)

	processor := usecase.NewProcessJobUseCase(jobs, datasets, store, textExtractor, generic, pdf, docx, defaultPolicy)

	return &App{
		Config:    cfg,
		Queue:     queue,
		Jobs:      jobs,
		Processor: processor,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
