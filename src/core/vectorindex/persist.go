package vectorindex

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"ragtutor/src/core/document"
	"ragtutor/src/fsutil"
	"ragtutor/src/log"
)

// Chunk metadata travels through gob as interface values, so the scalar
// types that can appear there must be registered up front.
func init() {
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// chunkArchive is the persisted companion of the raw vector list. Both parts
// must be present and decode cleanly for a load to succeed.
type chunkArchive struct {
	Chunks    []document.Chunk
	IDToPos   map[string]int
	Dimension int
}

const (
	indexSuffix  = ".index"
	chunksSuffix = ".chunks"
)

// Save writes the vector list to path.index and the chunk list, id map and
// dimension to path.chunks.
func (idx *Index) Save(fs fsutil.FileStore, path string) error {
	idx.mu.RLock()
	vectors := idx.vectors
	archive := chunkArchive{
		Chunks:    idx.chunks,
		IDToPos:   idx.idToPos,
		Dimension: idx.dimension,
	}
	idx.mu.RUnlock()

	var vecBuf bytes.Buffer
	if err := gob.NewEncoder(&vecBuf).Encode(vectors); err != nil {
		return fmt.Errorf("failed to encode vectors: %w", err)
	}
	if err := fs.WriteFile(path+indexSuffix, vecBuf.Bytes()); err != nil {
		return fmt.Errorf("failed to write vector file: %w", err)
	}

	var chunkBuf bytes.Buffer
	if err := gob.NewEncoder(&chunkBuf).Encode(archive); err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	if err := fs.WriteFile(path+chunksSuffix, chunkBuf.Bytes()); err != nil {
		return fmt.Errorf("failed to write chunk file: %w", err)
	}

	log.Info("saved vector index", "path", path, "size", len(archive.Chunks))
	return nil
}

// Load replaces the index contents with the persisted state at path. A
// missing artifact yields ErrNotFound, an undecodable one ErrCorrupt. The
// loaded dimension replaces the configured one without validation.
func (idx *Index) Load(fs fsutil.FileStore, path string) error {
	vecData, err := fs.ReadFile(path + indexSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path+indexSuffix)
		}
		return fmt.Errorf("failed to read vector file: %w", err)
	}

	chunkData, err := fs.ReadFile(path + chunksSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path+chunksSuffix)
		}
		return fmt.Errorf("failed to read chunk file: %w", err)
	}

	var vectors [][]float32
	if err := gob.NewDecoder(bytes.NewReader(vecData)).Decode(&vectors); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var archive chunkArchive
	if err := gob.NewDecoder(bytes.NewReader(chunkData)).Decode(&archive); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if len(vectors) != len(archive.Chunks) {
		return fmt.Errorf("%w: %d vectors but %d chunks", ErrCorrupt, len(vectors), len(archive.Chunks))
	}

	idx.mu.Lock()
	idx.vectors = vectors
	idx.chunks = archive.Chunks
	idx.idToPos = archive.IDToPos
	if idx.idToPos == nil {
		idx.idToPos = make(map[string]int)
	}
	idx.dimension = archive.Dimension
	idx.mu.Unlock()

	log.Info("loaded vector index", "path", path, "size", len(archive.Chunks))
	return nil
}
