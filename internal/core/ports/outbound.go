package ports

import (
	"context"
	"time"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits extracted text into retrievable passages.
type Chunker interface {
	Chunk(text string, maxTokens int) []string
}

// Embedder builds fixed-dimension vectors for chunks and query text.
// The client is shared read-only across sessions.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TextGenerator creates the final user-facing answer from retrieved
// passages. Treated as an opaque generation service.
type TextGenerator interface {
	GenerateAnswer(ctx context.Context, question string, results []domain.RetrievalResult) (string, error)
}

// MedicalParser extracts structured measurement fields from raw report
// text. Used as the degraded path when an image cannot be embedded.
type MedicalParser interface {
	Parse(text string) map[string]any
}

// CollectionStore persists and loads per-session source collections.
type CollectionStore interface {
	NewIndex(dim int) domain.VectorIndex
	WriteSource(ctx context.Context, sessionID, sourceID string, index domain.VectorIndex, passages []string) error
	WriteFallback(ctx context.Context, sessionID, sourceID string, parsed map[string]any) error
	LoadCollection(ctx context.Context, collectionPath string) (domain.SourceCollection, error)
	CollectionPath(sessionID string) string
	RemoveSession(ctx context.Context, sessionID string) error
}

// TaskStore holds per-session ingestion task state. Replaces the
// original's global in-memory task map with an injectable abstraction.
type TaskStore interface {
	Get(ctx context.Context, sessionID string) (*domain.IngestTask, error)
	Put(ctx context.Context, task domain.IngestTask) error
	// PutIfTerminalOrAbsent atomically stores the task unless the session
	// already holds a non-terminal one, in which case ErrBatchInProgress
	// is returned. This is the submission guard; a separate check-then-put
	// would let two concurrent submissions both pass.
	PutIfTerminalOrAbsent(ctx context.Context, task domain.IngestTask) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionStore durably persists session metadata.
type SessionStore interface {
	Save(ctx context.Context, meta domain.SessionMeta) error
	Get(ctx context.Context, sessionID string) (*domain.SessionMeta, error)
	Delete(ctx context.Context, sessionID string) error
	ListExpired(ctx context.Context, before time.Time) ([]domain.SessionMeta, error)
}

// BatchQueue hands submitted batches to the background worker.
type BatchQueue interface {
	PublishBatchSubmitted(ctx context.Context, batch domain.IngestBatch) error
	SubscribeBatchSubmitted(ctx context.Context, handler func(context.Context, domain.IngestBatch) error) error
}
