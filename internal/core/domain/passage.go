package domain

// Passage is the unit of retrieval: a bounded span of source text.
// Immutable once created; Ordinal is its position within the source,
// which is also its vector id in that source's index.
type Passage struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
	Ordinal  int    `json:"ordinal"`
}

// SourceEntry pairs one ingested file's vector index with its passages.
// Invariant: the index holds exactly len(Passages) vectors and vector i
// corresponds to Passages[i].
type SourceEntry struct {
	SourceID string
	Index    VectorIndex
	Passages []Passage
}

// VectorIndex is an append-only nearest-neighbor structure over the
// passages of a single source.
type VectorIndex interface {
	Add(vectors [][]float32) error
	Search(query []float32, k int) []Hit
	Count() int
}

// Hit is one nearest-neighbor match. Distance is squared L2; lower is
// more relevant.
type Hit struct {
	ID       int
	Distance float32
}

// SourceCollection maps sourceID to its entry, scoped to one session
// directory. Built once at load time; read-only during retrieval.
type SourceCollection map[string]*SourceEntry
