package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/core/ports"
)

const defaultTopK = 5

// RetrieveUseCase answers nearest-neighbor queries over a session's
// collection. The collection is reloaded on every call so results always
// reflect the files on disk.
type RetrieveUseCase struct {
	embedder    ports.Embedder
	collections ports.CollectionStore
	generator   ports.TextGenerator
}

func NewRetrieveUseCase(
	embedder ports.Embedder,
	collections ports.CollectionStore,
	generator ports.TextGenerator,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder:    embedder,
		collections: collections,
		generator:   generator,
	}
}

// Retrieve embeds the query once, searches each source independently,
// then merges the per-source candidates into one list ordered by
// ascending distance and truncated to topK.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, collectionPath, query string, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	collection, err := uc.collections.LoadCollection(ctx, collectionPath)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	if len(collection) == 0 {
		return nil, nil
	}

	queryVec, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Sources are visited in sorted order so equal-distance ties break
	// the same way on every call.
	sourceIDs := make([]string, 0, len(collection))
	for id := range collection {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	results := make([]domain.RetrievalResult, 0, topK*len(sourceIDs))
	for _, id := range sourceIDs {
		source := collection[id]
		k := topK
		if n := len(source.Passages); k > n {
			k = n
		}
		for rank, hit := range source.Index.Search(queryVec, k) {
			if hit.ID < 0 || hit.ID >= len(source.Passages) {
				continue
			}
			results = append(results, domain.RetrievalResult{
				PassageText: source.Passages[hit.ID].Text,
				Distance:    hit.Distance,
				SourceID:    id,
				Rank:        rank + 1,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].GlobalRank = i + 1
	}
	return results, nil
}

// Answer retrieves grounding passages and asks the generator for a
// final response. An empty collection still produces an answer; the
// generator is told it has no excerpts to work from.
func (uc *RetrieveUseCase) Answer(ctx context.Context, collectionPath, question string, topK int) (*domain.Answer, error) {
	results, err := uc.Retrieve(ctx, collectionPath, question, topK)
	if err != nil {
		return nil, err
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, results)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &domain.Answer{Text: text, Sources: results}, nil
}
