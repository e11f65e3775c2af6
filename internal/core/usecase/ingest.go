package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/core/ports"
)

// IngestBatchUseCase coordinates one session's ingestion batch: submit
// queues the work, the background worker drives RunBatch, and the task
// store exposes progress to pollers.
type IngestBatchUseCase struct {
	tasks       ports.TaskStore
	sessions    ports.SessionStore
	queue       ports.BatchQueue
	extractor   ports.TextExtractor
	chunker     ports.Chunker
	embedder    ports.Embedder
	collections ports.CollectionStore
	parser      ports.MedicalParser
	maxTokens   int
}

func NewIngestBatchUseCase(
	tasks ports.TaskStore,
	sessions ports.SessionStore,
	queue ports.BatchQueue,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	collections ports.CollectionStore,
	parser ports.MedicalParser,
	maxTokens int,
) *IngestBatchUseCase {
	return &IngestBatchUseCase{
		tasks:       tasks,
		sessions:    sessions,
		queue:       queue,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		collections: collections,
		parser:      parser,
		maxTokens:   maxTokens,
	}
}

// SubmitBatch registers a queued task for the session and hands the
// batch to the worker queue. A session with a non-terminal task cannot
// accept another batch; a terminal task is superseded by the new one.
func (uc *IngestBatchUseCase) SubmitBatch(ctx context.Context, sessionID string, filePaths []string) (*domain.IngestTask, error) {
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit batch", errors.New("empty session id"))
	}
	if len(filePaths) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit batch", errors.New("no files in batch"))
	}

	task := domain.IngestTask{
		SessionID: sessionID,
		Status:    domain.StatusQueued,
		Detail:    "Files queued for processing",
		Percent:   0,
		UpdatedAt: time.Now().UTC(),
	}
	if err := uc.tasks.PutIfTerminalOrAbsent(ctx, task); err != nil {
		if domain.IsKind(err, domain.ErrBatchInProgress) {
			return nil, err
		}
		return nil, fmt.Errorf("store queued task: %w", err)
	}

	batch := domain.IngestBatch{SessionID: sessionID, FilePaths: filePaths}
	if err := uc.queue.PublishBatchSubmitted(ctx, batch); err != nil {
		uc.markFailed(ctx, sessionID, err)
		return nil, fmt.Errorf("publish batch: %w", err)
	}
	return &task, nil
}

// RunBatch processes every file in submission order, updating progress
// before each file. A failed image is downgraded to a parsed-fallback
// record; any other failure stops the batch and marks the task failed.
func (uc *IngestBatchUseCase) RunBatch(ctx context.Context, batch domain.IngestBatch) error {
	total := len(batch.FilePaths)
	if total == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "run batch", errors.New("no files in batch"))
	}
	uc.setProgress(ctx, batch.SessionID, "Starting ingestion", 0)

	for i, path := range batch.FilePaths {
		detail := fmt.Sprintf("Processing file %d/%d", i+1, total)
		uc.setProgress(ctx, batch.SessionID, detail, i*100/total)

		if err := uc.ingestFile(ctx, batch.SessionID, path); err != nil {
			if domain.IsImagePath(path) {
				slog.Warn("image ingestion failed, storing parsed fallback",
					"session_id", batch.SessionID,
					"source_id", domain.SourceIDFor(path),
					"error", err)
				if fbErr := uc.storeImageFallback(ctx, batch.SessionID, path); fbErr != nil {
					uc.markFailed(ctx, batch.SessionID, fbErr)
					return fbErr
				}
				continue
			}
			uc.markFailed(ctx, batch.SessionID, err)
			return err
		}
	}

	meta := domain.SessionMeta{
		SessionID: batch.SessionID,
		Files:     batch.FilePaths,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.sessions.Save(ctx, meta); err != nil {
		err = fmt.Errorf("persist session metadata: %w", err)
		uc.markFailed(ctx, batch.SessionID, err)
		return err
	}

	completed := domain.IngestTask{
		SessionID: batch.SessionID,
		Status:    domain.StatusCompleted,
		Detail:    fmt.Sprintf("Successfully processed %d files", total),
		Percent:   100,
		UpdatedAt: time.Now().UTC(),
	}
	if err := uc.tasks.Put(ctx, completed); err != nil {
		return fmt.Errorf("store completed task: %w", err)
	}
	return nil
}

// ingestFile is the extract, chunk, embed, index pipeline for one file.
func (uc *IngestBatchUseCase) ingestFile(ctx context.Context, sessionID, path string) error {
	sourceID := domain.SourceIDFor(path)

	text, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", sourceID, err)
	}

	passages := uc.chunker.Chunk(text, uc.maxTokens)
	if len(passages) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk "+sourceID, errors.New("no passages produced"))
	}

	vectors, err := uc.embedder.Embed(ctx, passages)
	if err != nil {
		return fmt.Errorf("embed %s: %w", sourceID, err)
	}
	if len(vectors) == 0 {
		return domain.WrapError(domain.ErrEmbedding, "embed "+sourceID, errors.New("no vectors returned"))
	}

	index := uc.collections.NewIndex(len(vectors[0]))
	if err := index.Add(vectors); err != nil {
		return fmt.Errorf("index %s: %w", sourceID, err)
	}
	if err := uc.collections.WriteSource(ctx, sessionID, sourceID, index, passages); err != nil {
		return fmt.Errorf("write source %s: %w", sourceID, err)
	}
	return nil
}

// storeImageFallback re-extracts the image text and keeps whatever
// structured values the parser can pull out, so a failed embedding does
// not lose the report entirely.
func (uc *IngestBatchUseCase) storeImageFallback(ctx context.Context, sessionID, path string) error {
	sourceID := domain.SourceIDFor(path)

	text, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("fallback extract %s: %w", sourceID, err)
	}
	parsed := uc.parser.Parse(text)
	parsed["source_file"] = sourceID
	parsed["raw_text"] = text

	if err := uc.collections.WriteFallback(ctx, sessionID, sourceID, parsed); err != nil {
		return fmt.Errorf("write fallback %s: %w", sourceID, err)
	}
	return nil
}

// IngestStatus returns the current task for the session.
func (uc *IngestBatchUseCase) IngestStatus(ctx context.Context, sessionID string) (*domain.IngestTask, error) {
	return uc.tasks.Get(ctx, sessionID)
}

// ReadyForQuery reports whether the session's batch completed; queries
// against an incomplete collection see partial or empty results, so
// callers gate on this before retrieving.
func (uc *IngestBatchUseCase) ReadyForQuery(ctx context.Context, sessionID string) (bool, error) {
	task, err := uc.tasks.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return task.Status == domain.StatusCompleted, nil
}

func (uc *IngestBatchUseCase) setProgress(ctx context.Context, sessionID, detail string, percent int) {
	task := domain.IngestTask{
		SessionID: sessionID,
		Status:    domain.StatusInProgress,
		Detail:    detail,
		Percent:   percent,
		UpdatedAt: time.Now().UTC(),
	}
	// Progress is advisory; a store error must not abort the batch.
	_ = uc.tasks.Put(ctx, task)
}

func (uc *IngestBatchUseCase) markFailed(ctx context.Context, sessionID string, cause error) {
	percent := 0
	if current, err := uc.tasks.Get(ctx, sessionID); err == nil {
		percent = current.Percent
	}
	task := domain.IngestTask{
		SessionID: sessionID,
		Status:    domain.StatusFailed,
		Detail:    cause.Error(),
		Percent:   percent,
		UpdatedAt: time.Now().UTC(),
	}
	_ = uc.tasks.Put(ctx, task)
}
