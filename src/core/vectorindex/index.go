package vectorindex

import (
	"errors"
	"math"
	"sort"
	"sync"

	"ragtutor/src/core/document"
)

var (
	// ErrSizeMismatch is returned by Add when vectors and chunks differ in length
	ErrSizeMismatch = errors.New("number of vectors must match number of chunks")

	// ErrNotFound is returned by Load when the persisted index is absent
	ErrNotFound = errors.New("persisted index not found")

	// ErrCorrupt is returned by Load when the persisted index cannot be decoded
	ErrCorrupt = errors.New("persisted index is corrupt")
)

// ChunkWithScore pairs a chunk with its cosine similarity to a query.
// Scores range over [-1, 1].
type ChunkWithScore struct {
	Chunk document.Chunk `json:"chunk"`
	Score float32        `json:"score"`
}

// Index is an exact in-memory vector index over unit-normalized float32
// embeddings. Cosine similarity reduces to a dot product because vectors are
// normalized once at insertion and once per query.
//
// A single RWMutex guards the embeddings list, the chunk list and the id map
// so that readers never observe the lists at different lengths.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []document.Chunk
	idToPos   map[string]int
}

// NewIndex creates an empty index for vectors of the given dimension. The
// dimension is informational: Add and Load do not validate it (known gap).
func NewIndex(dimension int) *Index {
	return &Index{
		dimension: dimension,
		idToPos:   make(map[string]int),
	}
}

// Add appends unit-normalized copies of the vectors and their chunks in
// lock-step. Existing entries are never mutated.
func (idx *Index) Add(vectors [][]float32, chunks []document.Chunk) error {
	if len(vectors) != len(chunks) {
		return ErrSizeMismatch
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = normalize(v)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	start := len(idx.chunks)
	idx.vectors = append(idx.vectors, normalized...)
	idx.chunks = append(idx.chunks, chunks...)
	for i, chunk := range chunks {
		idx.idToPos[chunk.ChunkID] = start + i
	}
	return nil
}

// Search returns the topK most similar chunks, highest score first. Ties
// resolve to the earlier-inserted chunk. topK larger than the index size is
// clamped; an empty index yields an empty result.
func (idx *Index) Search(query []float32, topK int) []ChunkWithScore {
	q := normalize(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.chunks) == 0 || topK <= 0 {
		return []ChunkWithScore{}
	}

	results := make([]ChunkWithScore, len(idx.chunks))
	for i, v := range idx.vectors {
		results[i] = ChunkWithScore{Chunk: idx.chunks[i], Score: dot(q, v)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

// GetByID returns the chunk with the given id, or false if absent
func (idx *Index) GetByID(chunkID string) (document.Chunk, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos, ok := idx.idToPos[chunkID]
	if !ok || pos < 0 || pos >= len(idx.chunks) {
		return document.Chunk{}, false
	}
	return idx.chunks[pos], true
}

// Clear resets the index to empty
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = nil
	idx.chunks = nil
	idx.idToPos = make(map[string]int)
}

// Size returns the number of stored chunks
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Dimension returns the configured embedding dimension
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// normalize returns a unit-length copy of v. A zero-norm vector is copied
// unchanged rather than zeroed.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return out
	}

	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
