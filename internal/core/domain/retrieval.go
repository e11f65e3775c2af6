package domain

// RetrievalResult is one ranked match for a query. Rank is the 1-based
// position within the owning source's own sublist, computed before the
// global merge; downstream consumers depend on that numbering, so it is
// kept as-is. GlobalRank is the 1-based position after the merged sort.
type RetrievalResult struct {
	PassageText string  `json:"passage_text"`
	Distance    float32 `json:"distance"`
	SourceID    string  `json:"source_id"`
	Rank        int     `json:"rank"`
	GlobalRank  int     `json:"global_rank"`
}

// Answer is a generated response plus the passages that grounded it.
type Answer struct {
	Text    string            `json:"text"`
	Sources []RetrievalResult `json:"sources"`
}
