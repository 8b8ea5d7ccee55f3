package document

import (
	"github.com/tmc/langchaingo/textsplitter"

	"ragtutor/src/log"
)

// SemanticChunker splits documents with a recursive character splitter that
// prefers paragraph and sentence boundaries over hard cuts. Selected with
// chunking.strategy=semantic; chunk ids and metadata follow the same scheme
// as OverlapChunker so the two are interchangeable at index time.
type SemanticChunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewSemanticChunker(chunkSize, overlap int) *SemanticChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &SemanticChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

func (c *SemanticChunker) Chunk(doc Document) []Chunk {
	parts, err := c.splitter.SplitText(doc.Content)
	if err != nil {
		log.Error(err, "semantic split failed", "docId", doc.ID)
		return nil
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		chunks = append(chunks, newChunk(doc, part, len(chunks)))
	}
	return chunks
}
