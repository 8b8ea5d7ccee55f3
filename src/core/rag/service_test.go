package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ragtutor/src/core/conversation"
	"ragtutor/src/core/document"
	"ragtutor/src/core/prompt"
	"ragtutor/src/core/rag"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/fsutil"
)

type fakeEmbedder struct {
	vector      []float32
	encodeCalls int
}

func (f *fakeEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	f.encodeCalls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

func (f *fakeEmbedder) EncodeSingle(_ context.Context, _ string) ([]float32, error) {
	return f.vector, nil
}

type fakeGenerator struct {
	answer        string
	err           error
	streamChunks  []string
	streamErr     error
	generateCalls int
	lastPrompt    string
	lastSystem    string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt, system string, _ *rag.GenerateOptions) (string, error) {
	f.generateCalls++
	f.lastPrompt = prompt
	f.lastSystem = system
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) GenerateStream(_ context.Context, prompt, system string, fn func(string) error) error {
	f.generateCalls++
	f.lastPrompt = prompt
	f.lastSystem = system
	for _, chunk := range f.streamChunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return f.streamErr
}

type fixture struct {
	service       *rag.Service
	index         *vectorindex.Index
	conversations *conversation.Store
	embedder      *fakeEmbedder
	generator     *fakeGenerator
}

func newFixture(t *testing.T, cfg rag.Config) *fixture {
	t.Helper()

	index := vectorindex.NewIndex(3)
	conversations := conversation.NewStore(10, 20)
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	generator := &fakeGenerator{answer: "generated answer"}
	fs := fsutil.NewLocalFileStore()

	service := rag.NewService(
		index,
		embedder,
		generator,
		conversations,
		prompt.NewAssembler(0),
		document.NewOverlapChunker(100, 20, "\n\n"),
		document.NewLoader(fs),
		cfg,
	)

	return &fixture{
		service:       service,
		index:         index,
		conversations: conversations,
		embedder:      embedder,
		generator:     generator,
	}
}

func seedIndex(t *testing.T, index *vectorindex.Index) {
	t.Helper()
	err := index.Add(
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		[]document.Chunk{
			{ChunkID: "docA_chunk_0", DocID: "docA", Content: "alpha facts", Metadata: map[string]any{"source": "a.txt"}},
			{ChunkID: "docA_chunk_1", DocID: "docA", Content: "beta facts", Metadata: map[string]any{"source": "a.txt"}},
			{ChunkID: "docB_chunk_0", DocID: "docB", Content: "gamma facts", Metadata: map[string]any{}},
		},
	)
	if err != nil {
		t.Fatalf("seeding index: %v", err)
	}
}

func TestQueryPipeline(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)

	resp, err := f.service.Query(context.Background(), rag.Request{Query: "tell me about alpha", TopK: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if resp.Answer != "generated answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.SessionID == "" {
		t.Error("no session id assigned")
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(resp.Sources))
	}
	if resp.Sources[0].ChunkID != "docA_chunk_0" {
		t.Errorf("top source = %s", resp.Sources[0].ChunkID)
	}

	if len(resp.Citations) != 2 {
		t.Fatalf("got %d citations, want 2", len(resp.Citations))
	}
	if resp.Citations[0] != "[docA_chunk_0] a.txt" {
		t.Errorf("citation = %q", resp.Citations[0])
	}

	if !strings.Contains(f.generator.lastPrompt, "[1] alpha facts") {
		t.Errorf("prompt missing retrieved context:\n%s", f.generator.lastPrompt)
	}
	if f.generator.lastSystem != prompt.SystemPrompt {
		t.Errorf("system prompt = %q", f.generator.lastSystem)
	}

	history := f.conversations.History(resp.SessionID)
	if len(history) != 2 {
		t.Fatalf("conversation has %d messages, want 2", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("unexpected conversation roles %s, %s", history[0].Role, history[1].Role)
	}
	if history[1].Content != "generated answer" {
		t.Errorf("assistant message = %q", history[1].Content)
	}
}

func TestQueryCitesUnknownSource(t *testing.T) {
	f := newFixture(t, rag.Config{})
	f.embedder.vector = []float32{0, 0, 1}
	seedIndex(t, f.index)

	resp, err := f.service.Query(context.Background(), rag.Request{Query: "gamma?", TopK: 1})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if resp.Citations[0] != "[docB_chunk_0] Unknown" {
		t.Errorf("citation = %q", resp.Citations[0])
	}
}

func TestQueryGenerationFailure(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)
	f.generator.err = errors.New("model unavailable")

	_, err := f.service.Query(context.Background(), rag.Request{Query: "q", SessionID: "s1"})
	var genErr *rag.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Query() error = %v, want GenerationError", err)
	}

	if got := len(f.conversations.History("s1")); got != 0 {
		t.Errorf("failed query committed %d messages to the conversation", got)
	}
}

func TestQueryCarriesConversationContext(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)

	first, err := f.service.Query(context.Background(), rag.Request{Query: "first question"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	_, err = f.service.Query(context.Background(), rag.Request{Query: "follow up", SessionID: first.SessionID})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if !strings.Contains(f.generator.lastPrompt, "user: first question") {
		t.Errorf("follow-up prompt missing history:\n%s", f.generator.lastPrompt)
	}
}

func TestQueryStream(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)
	f.generator.streamChunks = []string{"Hel", "lo ", "world"}

	var received []string
	resp, err := f.service.QueryStream(context.Background(), rag.Request{Query: "q"}, func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("QueryStream() error = %v", err)
	}

	if len(received) != 3 {
		t.Errorf("received %d fragments, want 3", len(received))
	}
	if resp.Answer != "Hello world" {
		t.Errorf("accumulated answer = %q", resp.Answer)
	}

	history := f.conversations.History(resp.SessionID)
	if len(history) != 2 || history[1].Content != "Hello world" {
		t.Errorf("stream completion did not commit the full answer: %+v", history)
	}
}

func TestQueryStreamErrorCommitsNothing(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)
	f.generator.streamChunks = []string{"partial"}
	f.generator.streamErr = errors.New("stream broke")

	_, err := f.service.QueryStream(context.Background(), rag.Request{Query: "q", SessionID: "s1"}, func(string) error {
		return nil
	})

	var genErr *rag.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("QueryStream() error = %v, want GenerationError", err)
	}
	if got := len(f.conversations.History("s1")); got != 0 {
		t.Errorf("failed stream committed %d messages", got)
	}
}

func TestQueryStreamCancellation(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)
	f.generator.streamChunks = []string{"a", "b", "c"}

	ctx, cancel := context.WithCancel(context.Background())
	forwarded := 0
	_, err := f.service.QueryStream(ctx, rag.Request{Query: "q", SessionID: "s1"}, func(string) error {
		forwarded++
		cancel()
		return nil
	})

	if err == nil {
		t.Fatal("QueryStream() succeeded after cancellation")
	}
	if forwarded != 1 {
		t.Errorf("forwarded %d fragments after cancellation, want 1", forwarded)
	}
	if got := len(f.conversations.History("s1")); got != 0 {
		t.Errorf("cancelled stream committed %d messages", got)
	}
}

func TestQueryCache(t *testing.T) {
	f := newFixture(t, rag.Config{CacheEnabled: true, CacheTTL: time.Minute, CacheMaxSize: 10})
	seedIndex(t, f.index)

	first, err := f.service.Query(context.Background(), rag.Request{Query: "cached question"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	second, err := f.service.Query(context.Background(), rag.Request{Query: "cached question"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if f.generator.generateCalls != 1 {
		t.Errorf("generator called %d times, want 1 (second query should hit the cache)", f.generator.generateCalls)
	}
	if second.Answer != first.Answer {
		t.Errorf("cached answer differs: %q vs %q", second.Answer, first.Answer)
	}
	if second.SessionID == first.SessionID {
		t.Error("cached response reused the first query's session id")
	}
}

func TestQueryCacheHitUpdatesConversation(t *testing.T) {
	f := newFixture(t, rag.Config{CacheEnabled: true, CacheTTL: time.Minute, CacheMaxSize: 10})
	seedIndex(t, f.index)

	if _, err := f.service.Query(context.Background(), rag.Request{Query: "cached question"}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	second, err := f.service.Query(context.Background(), rag.Request{Query: "cached question"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if f.generator.generateCalls != 1 {
		t.Fatalf("generator called %d times, want 1", f.generator.generateCalls)
	}

	// A cache hit is still a completed exchange for its session
	history := f.conversations.History(second.SessionID)
	if len(history) != 2 {
		t.Fatalf("cache hit committed %d messages, want 2", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "cached question" {
		t.Errorf("unexpected user message %+v", history[0])
	}
	if history[1].Role != "assistant" || history[1].Content != second.Answer {
		t.Errorf("unexpected assistant message %+v", history[1])
	}
}

func TestQueryWithHistoryBypassesCache(t *testing.T) {
	f := newFixture(t, rag.Config{CacheEnabled: true, CacheTTL: time.Minute, CacheMaxSize: 10})
	seedIndex(t, f.index)

	resp, err := f.service.Query(context.Background(), rag.Request{Query: "q1"})
	if err != nil {
		t.Fatal(err)
	}

	// Same query text, but the session now has history
	_, err = f.service.Query(context.Background(), rag.Request{Query: "q1", SessionID: resp.SessionID})
	if err != nil {
		t.Fatal(err)
	}

	if f.generator.generateCalls != 2 {
		t.Errorf("generator called %d times, want 2 (history must bypass the cache)", f.generator.generateCalls)
	}
}

func TestQueryMultiDocumentFiltersByDocID(t *testing.T) {
	f := newFixture(t, rag.Config{})
	seedIndex(t, f.index)

	resp, err := f.service.QueryMultiDocument(context.Background(), rag.MultiDocumentRequest{
		Query:       "q",
		TopK:        3,
		DocumentIDs: []string{"docB"},
	})
	if err != nil {
		t.Fatalf("QueryMultiDocument() error = %v", err)
	}

	if len(resp.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(resp.Sources))
	}
	if resp.Sources[0].DocID != "docB" {
		t.Errorf("source from wrong document: %s", resp.Sources[0].DocID)
	}
	if resp.SessionID == "" {
		t.Error("no session id assigned")
	}
	if strings.Contains(f.generator.lastPrompt, "Conversation History:") {
		t.Error("multi-document prompt carried conversation context")
	}
}

func TestIndexDocument(t *testing.T) {
	f := newFixture(t, rag.Config{})

	doc := document.Document{
		ID:      "doc1",
		Content: "first paragraph\n\nsecond paragraph\n\nthird paragraph",
	}
	count, err := f.service.IndexDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	if count == 0 {
		t.Fatal("no chunks created")
	}
	if f.service.IndexSize() != count {
		t.Errorf("index size = %d, want %d", f.service.IndexSize(), count)
	}
	if f.embedder.encodeCalls != 1 {
		t.Errorf("embedder batched %d times, want 1", f.embedder.encodeCalls)
	}
}

func TestIndexDocumentEmpty(t *testing.T) {
	f := newFixture(t, rag.Config{})

	count, err := f.service.IndexDocument(context.Background(), document.Document{ID: "doc1"})
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if count != 0 {
		t.Errorf("empty document created %d chunks", count)
	}
}

func TestIndexFileNotFound(t *testing.T) {
	f := newFixture(t, rag.Config{})

	_, err := f.service.IndexFile(context.Background(), "/nonexistent/file.txt")
	if !errors.Is(err, document.ErrNotFound) {
		t.Errorf("IndexFile() error = %v, want ErrNotFound", err)
	}
}
