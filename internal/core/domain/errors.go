package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction marks a document-to-text failure for a single file.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbedding marks an embedding model failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrIndexLoad marks a malformed or mismatched persisted index/passages pair.
	ErrIndexLoad = errors.New("index load failed")
	// ErrTaskNotFound is returned when polling a session that was never submitted.
	ErrTaskNotFound = errors.New("ingest task not found")
	// ErrBatchInProgress rejects a new submission while a batch is still running.
	ErrBatchInProgress = errors.New("ingestion batch already in progress")
	// ErrSessionNotFound is returned for unknown session metadata.
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
