package flat

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSearchSelfIsTopHit(t *testing.T) {
	ix := New(3)
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.2, 0.9, 0},
	}
	if err := ix.Add(vectors); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for id, v := range vectors {
		hits := ix.Search(v, 1)
		if len(hits) != 1 {
			t.Fatalf("expected 1 hit, got %d", len(hits))
		}
		if hits[0].ID != id {
			t.Fatalf("self query for vector %d returned id %d", id, hits[0].ID)
		}
		if hits[0].Distance != 0 {
			t.Fatalf("self query distance = %v, want 0", hits[0].Distance)
		}
	}
}

func TestSearchOrderedAscending(t *testing.T) {
	ix := New(2)
	if err := ix.Add([][]float32{{0, 0}, {3, 0}, {1, 0}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	hits := ix.Search([]float32{0, 0}, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Fatalf("hits not ascending: %+v", hits)
		}
	}
	if hits[0].ID != 0 || hits[1].ID != 2 || hits[2].ID != 1 {
		t.Fatalf("unexpected hit order: %+v", hits)
	}
}

func TestSearchClampsK(t *testing.T) {
	ix := New(2)
	if err := ix.Add([][]float32{{1, 1}, {2, 2}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := ix.Search([]float32{0, 0}, 10); len(got) != 2 {
		t.Fatalf("expected k clamped to 2, got %d hits", len(got))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New(4)
	if got := ix.Search([]float32{0, 0, 0, 0}, 5); got != nil {
		t.Fatalf("expected nil hits on empty index, got %v", got)
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := New(3)
	if err := ix.Add([][]float32{{1, 2}}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	ix := New(3)
	if err := ix.Add([][]float32{{1, 2, 3}, {4, 5, 6}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	var buf bytes.Buffer
	if _, err := ix.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	loaded, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if loaded.Dim() != 3 || loaded.Count() != 2 {
		t.Fatalf("loaded dim=%d count=%d", loaded.Dim(), loaded.Count())
	}
	hits := loaded.Search([]float32{4, 5, 6}, 1)
	if len(hits) != 1 || hits[0].ID != 1 || hits[0].Distance != 0 {
		t.Fatalf("unexpected hits after round trip: %+v", hits)
	}
}

func TestReadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.index")
	if err := os.WriteFile(path, []byte("not an index"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatalf("expected error for malformed index file")
	}
}
