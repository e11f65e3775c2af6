package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/infrastructure/vector/flat"
)

const (
	indexSuffix    = ".index"
	passagesSuffix = "_chunks.txt"
	fallbackSuffix = "_ocr.json"

	// passageSeparator joins passages on disk. Multi-character on purpose:
	// it is not expected to occur inside passage text.
	passageSeparator = "\n---\n"
)

// Store keeps one collection directory per session, each holding a
// serialized index and a passages file per ingested source.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/collections"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create collections dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) NewIndex(dim int) domain.VectorIndex {
	return flat.New(dim)
}

func (s *Store) CollectionPath(sessionID string) string {
	return filepath.Join(s.basePath, sessionID)
}

// WriteSource persists one source's index and passages. The index file is
// written before the passages file: a concurrent reader that observes the
// index without its companion skips the source, while the reverse order
// could pair passages with a stale index.
func (s *Store) WriteSource(_ context.Context, sessionID, sourceID string, index domain.VectorIndex, passages []string) error {
	ix, ok := index.(*flat.Index)
	if !ok {
		return fmt.Errorf("unsupported index type %T", index)
	}
	if ix.Count() != len(passages) {
		return fmt.Errorf("index holds %d vectors for %d passages", ix.Count(), len(passages))
	}

	dir := s.CollectionPath(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}

	if err := flat.WriteFile(filepath.Join(dir, sourceID+indexSuffix), ix); err != nil {
		return fmt.Errorf("write index for %s: %w", sourceID, err)
	}

	joined := strings.Join(passages, passageSeparator) + passageSeparator
	if err := os.WriteFile(filepath.Join(dir, sourceID+passagesSuffix), []byte(joined), 0o644); err != nil {
		return fmt.Errorf("write passages for %s: %w", sourceID, err)
	}
	return nil
}

// WriteFallback stores parsed key/value data for a source whose index
// could not be built. Fallback sources never join the collection.
func (s *Store) WriteFallback(_ context.Context, sessionID, sourceID string, parsed map[string]any) error {
	dir := s.CollectionPath(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}
	data, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("marshal fallback data for %s: %w", sourceID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, sourceID+fallbackSuffix), data, 0o644); err != nil {
		return fmt.Errorf("write fallback data for %s: %w", sourceID, err)
	}
	return nil
}

// LoadCollection reads every index/passages pair under collectionPath.
// A missing directory yields an empty collection. A source whose pair is
// missing, malformed, or mismatched is skipped with a warning and never
// surfaces as an error.
func (s *Store) LoadCollection(_ context.Context, collectionPath string) (domain.SourceCollection, error) {
	entries, err := os.ReadDir(collectionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SourceCollection{}, nil
		}
		return nil, fmt.Errorf("read collection dir: %w", err)
	}

	collection := make(domain.SourceCollection, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, indexSuffix) {
			continue
		}
		sourceID := strings.TrimSuffix(name, indexSuffix)

		source, err := s.loadSource(collectionPath, sourceID)
		if err != nil {
			slog.Warn("skipping unloadable source",
				"collection", collectionPath,
				"source", sourceID,
				"error", domain.WrapError(domain.ErrIndexLoad, "load source", err),
			)
			continue
		}
		collection[sourceID] = source
	}
	return collection, nil
}

func (s *Store) loadSource(dir, sourceID string) (*domain.SourceEntry, error) {
	passagesPath := filepath.Join(dir, sourceID+passagesSuffix)
	raw, err := os.ReadFile(passagesPath)
	if err != nil {
		return nil, fmt.Errorf("read passages: %w", err)
	}

	texts := make([]string, 0, 16)
	for _, part := range strings.Split(string(raw), passageSeparator) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			texts = append(texts, trimmed)
		}
	}

	ix, err := flat.ReadFile(filepath.Join(dir, sourceID+indexSuffix))
	if err != nil {
		return nil, err
	}
	if ix.Count() != len(texts) {
		return nil, fmt.Errorf("index holds %d vectors for %d passages", ix.Count(), len(texts))
	}

	passages := make([]domain.Passage, len(texts))
	for i, text := range texts {
		passages[i] = domain.Passage{Text: text, SourceID: sourceID, Ordinal: i}
	}
	return &domain.SourceEntry{SourceID: sourceID, Index: ix, Passages: passages}, nil
}

func (s *Store) RemoveSession(_ context.Context, sessionID string) error {
	if err := os.RemoveAll(s.CollectionPath(sessionID)); err != nil {
		return fmt.Errorf("remove collection dir: %w", err)
	}
	return nil
}
