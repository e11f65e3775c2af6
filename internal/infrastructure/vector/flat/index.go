package flat

import (
	"fmt"
	"sort"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

// Index is a flat squared-L2 nearest-neighbor index over fixed-dimension
// vectors. Append-only: no deletion or update. Vector ids are assigned in
// insertion order and double as passage ordinals.
type Index struct {
	dim  int
	data []float32
}

func New(dim int) *Index {
	return &Index{dim: dim}
}

func (ix *Index) Dim() int { return ix.dim }

func (ix *Index) Count() int {
	if ix.dim == 0 {
		return 0
	}
	return len(ix.data) / ix.dim
}

func (ix *Index) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("add vector: dimension %d, index expects %d", len(v), ix.dim)
		}
		ix.data = append(ix.data, v...)
	}
	return nil
}

// Search returns up to k nearest vectors by ascending squared L2
// distance. k is silently clamped to the element count; ties keep
// insertion order.
func (ix *Index) Search(query []float32, k int) []domain.Hit {
	count := ix.Count()
	if count == 0 || len(query) != ix.dim || k <= 0 {
		return nil
	}
	if k > count {
		k = count
	}

	hits := make([]domain.Hit, count)
	for i := 0; i < count; i++ {
		row := ix.data[i*ix.dim : (i+1)*ix.dim]
		var dist float32
		for j, q := range query {
			d := row[j] - q
			dist += d * d
		}
		hits[i] = domain.Hit{ID: i, Distance: dist}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	return hits[:k]
}
