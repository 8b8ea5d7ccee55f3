package vectorindex_test

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"ragtutor/src/core/document"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/fsutil"
)

func chunkFixture(id string, index int) document.Chunk {
	return document.Chunk{
		ChunkID:  id,
		DocID:    "doc1",
		Content:  "content of " + id,
		Index:    index,
		Metadata: map[string]any{"source": "test.txt", "chunk_index": index},
	}
}

func basisIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	idx := vectorindex.NewIndex(3)
	err := idx.Add(
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		[]document.Chunk{
			chunkFixture("doc1_chunk_0", 0),
			chunkFixture("doc1_chunk_1", 1),
			chunkFixture("doc1_chunk_2", 2),
		},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return idx
}

func TestAddSizeMismatch(t *testing.T) {
	idx := vectorindex.NewIndex(3)
	err := idx.Add([][]float32{{1, 0, 0}}, nil)
	if !errors.Is(err, vectorindex.ErrSizeMismatch) {
		t.Errorf("Add() error = %v, want ErrSizeMismatch", err)
	}
	if idx.Size() != 0 {
		t.Errorf("Size() = %d after failed add", idx.Size())
	}
}

func TestSearchBasisVectors(t *testing.T) {
	idx := basisIndex(t)

	results := idx.Search([]float32{1, 0, 0}, 2)
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}

	if results[0].Chunk.ChunkID != "doc1_chunk_0" {
		t.Errorf("top result = %s", results[0].Chunk.ChunkID)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-5 {
		t.Errorf("top score = %f, want 1.0", results[0].Score)
	}

	// Orthogonal candidates tie at zero; the earlier insertion wins.
	if results[1].Chunk.ChunkID != "doc1_chunk_1" {
		t.Errorf("second result = %s, want doc1_chunk_1", results[1].Chunk.ChunkID)
	}
	if math.Abs(float64(results[1].Score)) > 1e-5 {
		t.Errorf("second score = %f, want 0.0", results[1].Score)
	}
}

func TestSearchNormalizesQuery(t *testing.T) {
	idx := basisIndex(t)

	// Same direction, different magnitude must give the same ranking
	results := idx.Search([]float32{7, 0, 0}, 1)
	if len(results) != 1 || results[0].Chunk.ChunkID != "doc1_chunk_0" {
		t.Fatalf("unexpected results %+v", results)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-5 {
		t.Errorf("score = %f, want 1.0", results[0].Score)
	}
}

func TestSearchClampsTopK(t *testing.T) {
	idx := basisIndex(t)

	results := idx.Search([]float32{1, 0, 0}, 50)
	if len(results) != 3 {
		t.Errorf("Search() returned %d results, want all 3", len(results))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := vectorindex.NewIndex(3)

	results := idx.Search([]float32{1, 0, 0}, 5)
	if len(results) != 0 {
		t.Errorf("Search() on empty index returned %d results", len(results))
	}
}

func TestGetByID(t *testing.T) {
	idx := basisIndex(t)

	chunk, ok := idx.GetByID("doc1_chunk_1")
	if !ok {
		t.Fatal("GetByID() returned not found")
	}
	if chunk.Index != 1 {
		t.Errorf("chunk index = %d", chunk.Index)
	}

	if _, ok := idx.GetByID("nope"); ok {
		t.Error("GetByID() found a chunk that was never added")
	}
}

func TestClear(t *testing.T) {
	idx := basisIndex(t)
	idx.Clear()

	if idx.Size() != 0 {
		t.Errorf("Size() = %d after Clear", idx.Size())
	}
	if results := idx.Search([]float32{1, 0, 0}, 5); len(results) != 0 {
		t.Errorf("Search() after Clear returned %d results", len(results))
	}
}

func TestZeroVectorIsKept(t *testing.T) {
	idx := vectorindex.NewIndex(3)
	err := idx.Add([][]float32{{0, 0, 0}}, []document.Chunk{chunkFixture("doc1_chunk_0", 0)})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	results := idx.Search([]float32{1, 0, 0}, 1)
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results", len(results))
	}
	if results[0].Score != 0 {
		t.Errorf("score against zero vector = %f", results[0].Score)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := fsutil.NewLocalFileStore()
	path := filepath.Join(t.TempDir(), "store")

	idx := basisIndex(t)
	if err := idx.Save(fs, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored := vectorindex.NewIndex(3)
	if err := restored.Load(fs, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if restored.Size() != idx.Size() {
		t.Fatalf("restored size = %d, want %d", restored.Size(), idx.Size())
	}

	query := []float32{0, 1, 0}
	want := idx.Search(query, 3)
	got := restored.Search(query, 3)
	if len(got) != len(want) {
		t.Fatalf("result counts differ: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Chunk.ChunkID != want[i].Chunk.ChunkID || got[i].Score != want[i].Score {
			t.Errorf("result %d differs: got (%s, %f), want (%s, %f)",
				i, got[i].Chunk.ChunkID, got[i].Score, want[i].Chunk.ChunkID, want[i].Score)
		}
	}

	chunk, ok := restored.GetByID("doc1_chunk_2")
	if !ok || chunk.Metadata["source"] != "test.txt" {
		t.Errorf("restored chunk lookup failed: %+v found=%v", chunk, ok)
	}
}

func TestLoadMissing(t *testing.T) {
	idx := vectorindex.NewIndex(3)
	err := idx.Load(fsutil.NewLocalFileStore(), filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, vectorindex.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	fs := fsutil.NewLocalFileStore()
	path := filepath.Join(t.TempDir(), "store")

	if err := fs.WriteFile(path+".index", []byte("not gob")); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile(path+".chunks", []byte("also not gob")); err != nil {
		t.Fatal(err)
	}

	idx := vectorindex.NewIndex(3)
	err := idx.Load(fs, path)
	if !errors.Is(err, vectorindex.ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt", err)
	}
}

func TestConcurrentSearchAndAdd(t *testing.T) {
	idx := vectorindex.NewIndex(3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			vec := [][]float32{{float32(n), 1, 0}}
			chunks := []document.Chunk{chunkFixture(string(rune('a'+n)), n)}
			if err := idx.Add(vec, chunks); err != nil {
				t.Errorf("Add() error = %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			// Every observed result set must be internally consistent
			results := idx.Search([]float32{1, 1, 0}, 100)
			for _, r := range results {
				if r.Chunk.ChunkID == "" {
					t.Error("search observed a chunk with no id")
				}
			}
		}()
	}
	wg.Wait()

	if idx.Size() != 8 {
		t.Errorf("Size() = %d, want 8", idx.Size())
	}
}
