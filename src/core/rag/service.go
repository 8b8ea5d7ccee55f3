package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragtutor/src/core/conversation"
	"ragtutor/src/core/document"
	"ragtutor/src/core/prompt"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/log"
)

// queryState tracks where a query is in its lifecycle. Transitions are
// RECEIVED → RETRIEVING → PROMPTING → GENERATING → COMPLETED, with FAILED
// reachable from any state.
type queryState string

const (
	stateReceived   queryState = "RECEIVED"
	stateRetrieving queryState = "RETRIEVING"
	statePrompting  queryState = "PROMPTING"
	stateGenerating queryState = "GENERATING"
	stateCompleted  queryState = "COMPLETED"
	stateFailed     queryState = "FAILED"
)

const (
	// DefaultTopK is the number of chunks retrieved per query unless the
	// request overrides it
	DefaultTopK = 10

	// DefaultContextTokenBudget bounds the conversation window fed into the
	// prompt
	DefaultContextTokenBudget = 2000

	// multiDocFallbackCandidates is the retrieval width of a multi-document
	// query that carries no explicit topK
	multiDocFallbackCandidates = 50

	maxCitations = 5
)

// Request is a single-corpus query
type Request struct {
	Query     string `json:"query"`
	TopK      int    `json:"topK,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// MultiDocumentRequest is a query restricted to a set of documents
type MultiDocumentRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"topK,omitempty"`
	DocumentIDs []string `json:"documentIds"`
}

// Response is the outcome of a completed query
type Response struct {
	Answer         string           `json:"answer"`
	Sources        []document.Chunk `json:"sources"`
	Citations      []string         `json:"citations"`
	RetrievalTime  float64          `json:"retrievalTime"`
	GenerationTime float64          `json:"generationTime"`
	SessionID      string           `json:"sessionId"`
}

// Config carries the orchestrator's tunables
type Config struct {
	TopK               int
	ContextTokenBudget int
	CacheEnabled       bool
	CacheTTL           time.Duration
	CacheMaxSize       int
}

// Service coordinates chunking and indexing at ingest time and the
// embed → search → prompt → generate → remember pipeline at query time.
type Service struct {
	index         *vectorindex.Index
	embedder      EmbeddingProvider
	llm           GenerationProvider
	conversations *conversation.Store
	assembler     *prompt.Assembler
	chunker       document.Chunker
	loader        *document.Loader
	cache         *ResponseCache
	topK          int
	contextBudget int
}

func NewService(
	index *vectorindex.Index,
	embedder EmbeddingProvider,
	llm GenerationProvider,
	conversations *conversation.Store,
	assembler *prompt.Assembler,
	chunker document.Chunker,
	loader *document.Loader,
	cfg Config,
) *Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	budget := cfg.ContextTokenBudget
	if budget <= 0 {
		budget = DefaultContextTokenBudget
	}

	var cache *ResponseCache
	if cfg.CacheEnabled {
		cache = NewResponseCache(cfg.CacheTTL, cfg.CacheMaxSize)
	}

	return &Service{
		index:         index,
		embedder:      embedder,
		llm:           llm,
		conversations: conversations,
		assembler:     assembler,
		chunker:       chunker,
		loader:        loader,
		cache:         cache,
		topK:          topK,
		contextBudget: budget,
	}
}

// Query answers a question from the indexed corpus, updating the session's
// conversation on success.
func (s *Service) Query(ctx context.Context, req Request) (*Response, error) {
	state := stateReceived
	log.Debug("query received", "sessionId", req.SessionID, "state", state)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.conversations.CreateSession()
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	history := s.conversations.Window(sessionID, s.contextBudget)

	// Answers for sessions with history depend on that history, so only
	// context-free queries are cacheable.
	if s.cache != nil && len(history) == 0 {
		if cached, ok := s.cache.Get(req.Query, topK); ok {
			cached.SessionID = sessionID
			// A cached answer is still a completed exchange for the session
			s.conversations.Append(sessionID, "user", req.Query, nil)
			s.conversations.Append(sessionID, "assistant", cached.Answer, nil)
			log.Debug("query served from cache", "sessionId", sessionID)
			return &cached, nil
		}
	}

	state = stateRetrieving
	log.Debug("query state", "sessionId", sessionID, "state", state)
	retrievalStart := time.Now()
	results, err := s.retrieve(ctx, req.Query, topK)
	if err != nil {
		log.Error(err, "query failed", "sessionId", sessionID, "state", stateFailed)
		return nil, err
	}
	retrievalTime := time.Since(retrievalStart).Seconds()

	state = statePrompting
	log.Debug("query state", "sessionId", sessionID, "state", state)
	prompted := s.assembler.BuildRAGPrompt(req.Query, results, history)

	state = stateGenerating
	log.Debug("query state", "sessionId", sessionID, "state", state)
	generationStart := time.Now()
	answer, err := s.llm.Generate(ctx, prompted, prompt.SystemPrompt, nil)
	if err != nil {
		log.Error(err, "query failed", "sessionId", sessionID, "state", stateFailed)
		return nil, &GenerationError{Err: err}
	}
	generationTime := time.Since(generationStart).Seconds()

	s.conversations.Append(sessionID, "user", req.Query, nil)
	s.conversations.Append(sessionID, "assistant", answer, nil)

	state = stateCompleted
	log.Info("query completed",
		"sessionId", sessionID,
		"state", state,
		"chunks", len(results),
		"retrievalTime", retrievalTime,
		"generationTime", generationTime)

	resp := &Response{
		Answer:         answer,
		Sources:        sourceChunks(results),
		Citations:      buildCitations(results),
		RetrievalTime:  retrievalTime,
		GenerationTime: generationTime,
		SessionID:      sessionID,
	}

	if s.cache != nil && len(history) == 0 {
		s.cache.Set(req.Query, topK, *resp)
	}
	return resp, nil
}

// QueryStream answers a question incrementally, forwarding each generated
// fragment to fn. The conversation is updated only after the stream finishes
// cleanly; a mid-stream error or cancellation commits nothing.
func (s *Service) QueryStream(ctx context.Context, req Request, fn func(chunk string) error) (*Response, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.conversations.CreateSession()
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	history := s.conversations.Window(sessionID, s.contextBudget)

	retrievalStart := time.Now()
	results, err := s.retrieve(ctx, req.Query, topK)
	if err != nil {
		return nil, err
	}
	retrievalTime := time.Since(retrievalStart).Seconds()

	prompted := s.assembler.BuildRAGPrompt(req.Query, results, history)

	var full strings.Builder
	generationStart := time.Now()
	err = s.llm.GenerateStream(ctx, prompted, prompt.SystemPrompt, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		full.WriteString(chunk)
		return fn(chunk)
	})
	if err != nil {
		// Partial output is discarded; nothing reaches the conversation.
		log.Error(err, "streaming query failed", "sessionId", sessionID, "state", stateFailed)
		return nil, &GenerationError{Err: err}
	}
	generationTime := time.Since(generationStart).Seconds()

	answer := full.String()
	s.conversations.Append(sessionID, "user", req.Query, nil)
	s.conversations.Append(sessionID, "assistant", answer, nil)

	log.Info("streaming query completed",
		"sessionId", sessionID,
		"state", stateCompleted,
		"chunks", len(results))

	return &Response{
		Answer:         answer,
		Sources:        sourceChunks(results),
		Citations:      buildCitations(results),
		RetrievalTime:  retrievalTime,
		GenerationTime: generationTime,
		SessionID:      sessionID,
	}, nil
}

// QueryMultiDocument answers a question against a restricted set of
// documents. The candidate pool is widened to topK per requested document and
// filtered down; no conversation context is used.
func (s *Service) QueryMultiDocument(ctx context.Context, req MultiDocumentRequest) (*Response, error) {
	sessionID := uuid.New().String()

	candidates := multiDocFallbackCandidates
	if req.TopK > 0 {
		candidates = req.TopK * len(req.DocumentIDs)
	}

	retrievalStart := time.Now()
	results, err := s.retrieve(ctx, req.Query, candidates)
	if err != nil {
		return nil, err
	}
	retrievalTime := time.Since(retrievalStart).Seconds()

	if len(req.DocumentIDs) > 0 {
		wanted := make(map[string]bool, len(req.DocumentIDs))
		for _, id := range req.DocumentIDs {
			wanted[id] = true
		}
		filtered := results[:0]
		for _, cws := range results {
			if wanted[cws.Chunk.DocID] {
				filtered = append(filtered, cws)
			}
		}
		results = filtered
	}

	prompted := s.assembler.BuildMultiDocumentPrompt(req.Query, results)

	generationStart := time.Now()
	answer, err := s.llm.Generate(ctx, prompted, prompt.SystemPrompt, nil)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	generationTime := time.Since(generationStart).Seconds()

	log.Info("multi-document query completed",
		"documents", len(req.DocumentIDs),
		"chunks", len(results))

	return &Response{
		Answer:         answer,
		Sources:        sourceChunks(results),
		Citations:      buildCitations(results),
		RetrievalTime:  retrievalTime,
		GenerationTime: generationTime,
		SessionID:      sessionID,
	}, nil
}

// IndexDocument chunks, embeds and indexes one document, returning the
// number of chunks created.
func (s *Service) IndexDocument(ctx context.Context, doc document.Document) (int, error) {
	chunks := s.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := s.embedder.Encode(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := s.index.Add(vectors, chunks); err != nil {
		return 0, fmt.Errorf("failed to index chunks: %w", err)
	}

	log.Info("indexed document", "docId", doc.ID, "chunks", len(chunks), "indexSize", s.index.Size())
	return len(chunks), nil
}

// IndexFile loads and indexes a single file; a missing or unreadable file
// fails the operation explicitly.
func (s *Service) IndexFile(ctx context.Context, path string) (int, error) {
	doc, err := s.loader.LoadFile(path)
	if err != nil {
		return 0, err
	}
	return s.IndexDocument(ctx, doc)
}

// IndexDirectory loads and indexes every supported file under dir. Per-file
// failures are logged and skipped. Returns the total chunk count.
func (s *Service) IndexDirectory(ctx context.Context, dir string) (int, error) {
	docs, err := s.loader.LoadDirectory(dir)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, doc := range docs {
		n, err := s.IndexDocument(ctx, doc)
		if err != nil {
			log.Error(err, "skipping document", "docId", doc.ID, "source", doc.Source)
			continue
		}
		total += n
	}
	return total, nil
}

// History returns the session's full message log
func (s *Service) History(sessionID string) []conversation.Message {
	return s.conversations.History(sessionID)
}

// ClearConversation removes the session's message log
func (s *Service) ClearConversation(sessionID string) {
	s.conversations.Clear(sessionID)
}

// IndexSize returns the number of chunks currently indexed
func (s *Service) IndexSize() int {
	return s.index.Size()
}

func (s *Service) retrieve(ctx context.Context, query string, topK int) ([]vectorindex.ChunkWithScore, error) {
	embedding, err := s.embedder.EncodeSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.index.Search(embedding, topK), nil
}

func sourceChunks(results []vectorindex.ChunkWithScore) []document.Chunk {
	chunks := make([]document.Chunk, len(results))
	for i, cws := range results {
		chunks[i] = cws.Chunk
	}
	return chunks
}

// buildCitations formats the first five retrieved chunks as
// "[chunkId] source". Chunks without source metadata cite "Unknown".
func buildCitations(results []vectorindex.ChunkWithScore) []string {
	n := len(results)
	if n > maxCitations {
		n = maxCitations
	}

	citations := make([]string, 0, n)
	for _, cws := range results[:n] {
		source := "Unknown"
		if v, ok := cws.Chunk.Metadata["source"].(string); ok && v != "" {
			source = v
		}
		citations = append(citations, fmt.Sprintf("[%s] %s", cws.Chunk.ChunkID, source))
	}
	return citations
}
