package document

import "strings"

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n\n"
)

// OverlapChunker splits documents on a separator and greedily packs the
// resulting segments into chunks of bounded character length, carrying a
// trailing overlap window into each following chunk.
//
// An overlap that meets or exceeds the chunk size is accepted as configured
// but can produce large numbers of nearly duplicate chunks; keeping the two
// apart is the caller's responsibility.
type OverlapChunker struct {
	chunkSize int
	overlap   int
	separator string
}

// NewOverlapChunker creates a chunker with the given size, overlap and
// separator. Non-positive size falls back to the default.
func NewOverlapChunker(chunkSize, overlap int, separator string) *OverlapChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &OverlapChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
		separator: separator,
	}
}

// Chunk splits the document into overlapping chunks. Empty content yields no
// chunks; content shorter than the chunk size yields exactly one.
func (c *OverlapChunker) Chunk(doc Document) []Chunk {
	splits := splitText(doc.Content, c.separator)

	var chunks []Chunk
	var current []string
	currentLen := 0

	for _, split := range splits {
		if currentLen+len(split) > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, newChunk(doc, strings.Join(current, c.separator), len(chunks)))

			// Seed the next chunk with a trailing overlap window
			overlapLen := 0
			var overlapParts []string
			for i := len(current) - 1; i >= 0; i-- {
				if overlapLen+len(current[i]) >= c.overlap {
					break
				}
				overlapParts = append([]string{current[i]}, overlapParts...)
				overlapLen += len(current[i])
			}

			current = overlapParts
			currentLen = overlapLen
		}

		current = append(current, split)
		currentLen += len(split)
	}

	if len(current) > 0 {
		chunks = append(chunks, newChunk(doc, strings.Join(current, c.separator), len(chunks)))
	}

	return chunks
}

// splitText splits on the separator, dropping whitespace-only segments. An
// empty separator degenerates to per-character splitting.
func splitText(text, separator string) []string {
	var splits []string
	if separator != "" {
		splits = strings.Split(text, separator)
	} else {
		splits = strings.Split(text, "")
	}

	kept := splits[:0]
	for _, s := range splits {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return kept
}
