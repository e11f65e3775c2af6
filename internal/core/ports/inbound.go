package ports

import (
	"context"
	"time"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

// BatchIngestor is the inbound contract for submitting and running
// ingestion batches.
type BatchIngestor interface {
	SubmitBatch(ctx context.Context, sessionID string, filePaths []string) (*domain.IngestTask, error)
	RunBatch(ctx context.Context, batch domain.IngestBatch) error
}

// IngestStatusReader is the inbound read model for batch progress.
type IngestStatusReader interface {
	IngestStatus(ctx context.Context, sessionID string) (*domain.IngestTask, error)
	ReadyForQuery(ctx context.Context, sessionID string) (bool, error)
}

// Retriever is the inbound contract for nearest-neighbor retrieval and
// grounded answer generation over a session's collection.
type Retriever interface {
	Retrieve(ctx context.Context, collectionPath, query string, topK int) ([]domain.RetrievalResult, error)
	Answer(ctx context.Context, collectionPath, question string, topK int) (*domain.Answer, error)
}

// SessionJanitor tears down session state on logout or expiry.
type SessionJanitor interface {
	DestroySession(ctx context.Context, sessionID string) error
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
}
