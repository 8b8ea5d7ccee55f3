package prompt

import (
	"fmt"
	"strings"

	"ragtutor/src/core/conversation"
	"ragtutor/src/core/vectorindex"
)

// SystemPrompt is the fixed instruction sent with every generation request
const SystemPrompt = "You are a helpful AI assistant that answers questions based on the provided context. " +
	"Always cite your sources using [n] format. Be concise but thorough."

// Assembler builds generation prompts from retrieved chunks, conversation
// context and the question. Retrieved context is trimmed to a token budget
// before assembly.
type Assembler struct {
	counter *TokenCounter
	budget  int
}

// NewAssembler creates an assembler whose retrieved-context section is capped
// at contextTokenBudget tokens. A non-positive budget disables the cap.
func NewAssembler(contextTokenBudget int) *Assembler {
	return &Assembler{
		counter: NewTokenCounter(),
		budget:  contextTokenBudget,
	}
}

// BuildRAGPrompt assembles the full prompt: a numbered Context section, the
// conversation history when non-empty, the question, and the citation
// instruction.
func (a *Assembler) BuildRAGPrompt(query string, chunks []vectorindex.ChunkWithScore, history []conversation.Message) string {
	chunks = a.fitBudget(chunks)

	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, cws := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, cws.Chunk.Content)
	}

	if len(history) > 0 {
		b.WriteString("\nConversation History:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString("Please provide a detailed answer based on the context above. ")
	b.WriteString("Include citations using [n] format where n is the source number.")

	return b.String()
}

// BuildMultiDocumentPrompt assembles a prompt over chunks drawn from several
// documents. No conversation context is used on this path.
func (a *Assembler) BuildMultiDocumentPrompt(query string, chunks []vectorindex.ChunkWithScore) string {
	return a.BuildRAGPrompt(query, chunks, nil)
}

// fitBudget drops trailing chunks once the cumulative token count of the
// retrieved context would exceed the budget. The highest-ranked chunks come
// first, so the tail is the cheapest to lose.
func (a *Assembler) fitBudget(chunks []vectorindex.ChunkWithScore) []vectorindex.ChunkWithScore {
	if a.budget <= 0 {
		return chunks
	}

	total := 0
	for i, cws := range chunks {
		tokens := a.counter.Count(cws.Chunk.Content)
		if total+tokens > a.budget {
			return chunks[:i]
		}
		total += tokens
	}
	return chunks
}
