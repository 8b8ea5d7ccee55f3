package prompt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"ragtutor/src/core/conversation"
	"ragtutor/src/log"
)

const encodingName = "cl100k_base"

// TokenCounter counts tokens with the cl100k_base BPE. The encoding is
// loaded lazily; if it cannot be loaded the counter falls back to the same
// word-based estimate the conversation store uses.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

func (c *TokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			log.Error(err, "failed to load token encoding, falling back to word estimate", "encoding", encodingName)
			return
		}
		c.enc = enc
	})

	if c.enc == nil {
		return conversation.EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
