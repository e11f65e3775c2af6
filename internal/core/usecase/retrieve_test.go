package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

type generatorFake struct {
	answer   string
	err      error
	question string
	results  []domain.RetrievalResult
}

func (f *generatorFake) GenerateAnswer(_ context.Context, question string, results []domain.RetrievalResult) (string, error) {
	f.question = question
	f.results = results
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func sourceWith(id string, hits []domain.Hit, passages ...string) *domain.SourceEntry {
	entry := &domain.SourceEntry{
		SourceID: id,
		Index:    &stubIndex{hits: hits, count: len(passages)},
	}
	for i, text := range passages {
		entry.Passages = append(entry.Passages, domain.Passage{Text: text, SourceID: id, Ordinal: i})
	}
	return entry
}

func newRetrieveFixture(collection domain.SourceCollection) (*RetrieveUseCase, *collectionStoreFake, *generatorFake) {
	store := newCollectionStoreFake()
	store.collection = collection
	gen := &generatorFake{answer: "drink water"}
	embedder := &batchEmbedderFake{dim: 4, queryVec: []float32{1, 0, 0, 0}}
	return NewRetrieveUseCase(embedder, store, gen), store, gen
}

func TestRetrieveOrdersAcrossSourcesByDistance(t *testing.T) {
	collection := domain.SourceCollection{
		"diet_plan": sourceWith("diet_plan",
			[]domain.Hit{{ID: 1, Distance: 0.1}},
			"fiber first", "whole grains"),
		"lab_results": sourceWith("lab_results",
			[]domain.Hit{{ID: 0, Distance: 0.05}},
			"glucose 110"),
	}
	uc, _, _ := newRetrieveFixture(collection)

	results, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "sugar intake", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.SourceID != "lab_results" || got.PassageText != "glucose 110" {
		t.Fatalf("top result = %+v", got)
	}
	if got.Distance != 0.05 || got.Rank != 1 || got.GlobalRank != 1 {
		t.Fatalf("top result ordering fields = %+v", got)
	}
}

func TestRetrieveKeepsPerSourceRankAfterMerge(t *testing.T) {
	collection := domain.SourceCollection{
		"a": sourceWith("a",
			[]domain.Hit{{ID: 0, Distance: 0.2}, {ID: 1, Distance: 0.4}},
			"a-first", "a-second"),
		"b": sourceWith("b",
			[]domain.Hit{{ID: 1, Distance: 0.1}, {ID: 0, Distance: 0.3}},
			"b-far", "b-near"),
	}
	uc, _, _ := newRetrieveFixture(collection)

	results, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantOrder := []struct {
		source     string
		text       string
		rank       int
		globalRank int
	}{
		{"b", "b-near", 1, 1},
		{"a", "a-first", 1, 2},
		{"b", "b-far", 2, 3},
	}
	for i, want := range wantOrder {
		got := results[i]
		if got.SourceID != want.source || got.PassageText != want.text {
			t.Fatalf("results[%d] = %+v, want %s/%q", i, got, want.source, want.text)
		}
		if got.Rank != want.rank || got.GlobalRank != want.globalRank {
			t.Fatalf("results[%d] ranks = (%d, %d), want (%d, %d)", i, got.Rank, got.GlobalRank, want.rank, want.globalRank)
		}
	}
}

func TestRetrieveClampsKToSourceSize(t *testing.T) {
	index := &stubIndex{hits: []domain.Hit{{ID: 0, Distance: 0.1}}, count: 1}
	collection := domain.SourceCollection{
		"tiny": {
			SourceID: "tiny",
			Index:    index,
			Passages: []domain.Passage{{Text: "only one", SourceID: "tiny", Ordinal: 0}},
		},
	}
	uc, _, _ := newRetrieveFixture(collection)

	if _, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 5); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if index.lastK != 1 {
		t.Fatalf("searched with k=%d, want 1", index.lastK)
	}
}

func TestRetrieveDefaultsTopK(t *testing.T) {
	hits := make([]domain.Hit, 8)
	passages := make([]string, 8)
	for i := range hits {
		hits[i] = domain.Hit{ID: i, Distance: float32(i)}
		passages[i] = "p"
	}
	collection := domain.SourceCollection{"only": sourceWith("only", hits, passages...)}
	uc, _, _ := newRetrieveFixture(collection)

	results, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != defaultTopK {
		t.Fatalf("got %d results, want %d", len(results), defaultTopK)
	}
}

func TestRetrieveEmptyCollection(t *testing.T) {
	uc, _, _ := newRetrieveFixture(domain.SourceCollection{})

	results, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want nil", results)
	}
}

func TestRetrieveLoadFailure(t *testing.T) {
	store := newCollectionStoreFake()
	store.loadErr = domain.WrapError(domain.ErrIndexLoad, "load", errors.New("truncated index"))
	uc := NewRetrieveUseCase(&batchEmbedderFake{dim: 4}, store, &generatorFake{})

	if _, err := uc.Retrieve(context.Background(), "/bad", "q", 5); !domain.IsKind(err, domain.ErrIndexLoad) {
		t.Fatalf("err = %v, want ErrIndexLoad", err)
	}
}

func TestRetrieveEmbedFailure(t *testing.T) {
	collection := domain.SourceCollection{
		"a": sourceWith("a", []domain.Hit{{ID: 0, Distance: 0.1}}, "text"),
	}
	store := newCollectionStoreFake()
	store.collection = collection
	embedder := &batchEmbedderFake{dim: 4, queryErr: domain.WrapError(domain.ErrEmbedding, "embed query", errors.New("model down"))}
	uc := NewRetrieveUseCase(embedder, store, &generatorFake{})

	if _, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 5); !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("err = %v, want ErrEmbedding", err)
	}
}

func TestAnswerGroundsGeneratorOnResults(t *testing.T) {
	collection := domain.SourceCollection{
		"lab_results": sourceWith("lab_results",
			[]domain.Hit{{ID: 0, Distance: 0.05}},
			"glucose 110"),
	}
	uc, _, gen := newRetrieveFixture(collection)

	answer, err := uc.Answer(context.Background(), "/data/collections/sess-1", "is my sugar high?", 3)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text != "drink water" {
		t.Fatalf("answer text = %q", answer.Text)
	}
	if gen.question != "is my sugar high?" {
		t.Fatalf("generator question = %q", gen.question)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].PassageText != "glucose 110" {
		t.Fatalf("answer sources = %+v", answer.Sources)
	}
	if len(gen.results) != len(answer.Sources) {
		t.Fatalf("generator saw %d results, answer has %d", len(gen.results), len(answer.Sources))
	}
}

func TestAnswerGenerationFailure(t *testing.T) {
	uc, _, gen := newRetrieveFixture(domain.SourceCollection{})
	gen.err = errors.New("model timeout")

	if _, err := uc.Answer(context.Background(), "/data/collections/sess-1", "q", 3); err == nil {
		t.Fatal("expected generation error")
	}
}

func TestRetrieveReturnsIdenticalResultsAcrossCalls(t *testing.T) {
	// Equal distances across sources make the ordering depend entirely on
	// the deterministic source visit order and the stable merge.
	collection := domain.SourceCollection{
		"zeta": sourceWith("zeta",
			[]domain.Hit{{ID: 0, Distance: 0.1}, {ID: 1, Distance: 0.3}},
			"zeta-near", "zeta-far"),
		"alpha": sourceWith("alpha",
			[]domain.Hit{{ID: 1, Distance: 0.1}, {ID: 0, Distance: 0.2}},
			"alpha-far", "alpha-near"),
		"mid": sourceWith("mid",
			[]domain.Hit{{ID: 0, Distance: 0.2}},
			"mid-only"),
	}
	uc, _, _ := newRetrieveFixture(collection)

	first, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 4)
	if err != nil {
		t.Fatalf("first Retrieve: %v", err)
	}
	second, err := uc.Retrieve(context.Background(), "/data/collections/sess-1", "q", 4)
	if err != nil {
		t.Fatalf("second Retrieve: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated retrieval diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first[0].SourceID != "alpha" || first[1].SourceID != "zeta" {
		t.Fatalf("equal-distance tie order = %s, %s; want alpha, zeta", first[0].SourceID, first[1].SourceID)
	}
}
