package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/healthbot/knowledge-core/internal/config"
	"github.com/healthbot/knowledge-core/internal/core/ports"
	"github.com/healthbot/knowledge-core/internal/core/usecase"
	"github.com/healthbot/knowledge-core/internal/infrastructure/chunking"
	"github.com/healthbot/knowledge-core/internal/infrastructure/collection/fsstore"
	embedollama "github.com/healthbot/knowledge-core/internal/infrastructure/embedding/ollama"
	"github.com/healthbot/knowledge-core/internal/infrastructure/extractor"
	"github.com/healthbot/knowledge-core/internal/infrastructure/extractor/medparse"
	"github.com/healthbot/knowledge-core/internal/infrastructure/extractor/ocr"
	"github.com/healthbot/knowledge-core/internal/infrastructure/extractor/pdf"
	"github.com/healthbot/knowledge-core/internal/infrastructure/extractor/plaintext"
	"github.com/healthbot/knowledge-core/internal/infrastructure/extractor/spreadsheet"
	"github.com/healthbot/knowledge-core/internal/infrastructure/llm/ollama"
	"github.com/healthbot/knowledge-core/internal/infrastructure/queue/nats"
	"github.com/healthbot/knowledge-core/internal/infrastructure/repository/postgres"
	"github.com/healthbot/knowledge-core/internal/infrastructure/resilience"
	taskmemory "github.com/healthbot/knowledge-core/internal/infrastructure/taskstore/memory"
)

type App struct {
	Config config.Config

	Queue       ports.BatchQueue
	Collections ports.CollectionStore
	IngestUC    *usecase.IngestBatchUseCase
	RetrieveUC  *usecase.RetrieveUseCase
	CleanupUC   *usecase.CleanupUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sessions := postgres.NewSessionRepository(db)
	if err := sessions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	collections, err := fsstore.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init collection store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init batch queue: %w", err)
	}

	embedder := embedollama.NewEmbedder(cfg.OllamaURL, cfg.OllamaEmbedModel, embedollama.Options{
		FallbackURL:        cfg.OllamaFallbackURL,
		RequestsPerSecond:  float64(cfg.EmbedRPS),
		ResilienceExecutor: executor,
	})
	generator := ollama.NewGenerator(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, executor))

	docExtractor := extractor.NewRouter(
		pdf.NewExtractor(),
		plaintext.NewExtractor(),
		spreadsheet.NewExtractor(),
		ocr.NewClient(cfg.OCRServiceURL, executor),
	)

	tasks := taskmemory.New()
	chunker := chunking.NewSentenceChunker()

	ingestUC := usecase.NewIngestBatchUseCase(
		tasks,
		sessions,
		queue,
		docExtractor,
		chunker,
		embedder,
		collections,
		medparse.NewParser(),
		cfg.ChunkMaxTokens,
	)
	retrieveUC := usecase.NewRetrieveUseCase(embedder, collections, generator)
	cleanupUC := usecase.NewCleanupUseCase(
		sessions,
		tasks,
		collections,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
	)

	return &App{
		Config: cfg,

		Queue:       queue,
		Collections: collections,
		IngestUC:    ingestUC,
		RetrieveUC:  retrieveUC,
		CleanupUC:   cleanupUC,

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
