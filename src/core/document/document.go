package document

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested file does not exist
var ErrNotFound = errors.New("document not found")

// Document represents a full text document loaded into the system.
// Documents are immutable once loaded; re-indexing supersedes them.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Source   string         `json:"source,omitempty"`
	Title    string         `json:"title,omitempty"`
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// retrieval. Chunks are created only by a Chunker and are immutable.
type Chunk struct {
	ChunkID  string         `json:"chunkId"`
	DocID    string         `json:"docId"`
	Content  string         `json:"content"`
	Index    int            `json:"index"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Chunker splits a document into retrieval-sized chunks
type Chunker interface {
	Chunk(doc Document) []Chunk
}

// newChunk builds a chunk with a deterministic id and inherited metadata
func newChunk(doc Document, content string, index int) Chunk {
	metadata := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata["chunk_index"] = index
	metadata["chunk_length"] = len(content)

	return Chunk{
		ChunkID:  fmt.Sprintf("%s_chunk_%d", doc.ID, index),
		DocID:    doc.ID,
		Content:  content,
		Index:    index,
		Metadata: metadata,
	}
}
