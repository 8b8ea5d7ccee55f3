package conversation

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragtutor/src/log"
)

const (
	DefaultMaxHistoryLength       = 10
	DefaultSummarizationThreshold = 20
)

// Message is a single conversation turn
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// session holds one conversation's messages behind its own lock so that
// independent sessions never contend.
type session struct {
	mu       sync.Mutex
	messages []Message
	appended int
}

// Store keeps per-session ordered message logs with bounded memory. Once a
// session's lifetime append count passes the summarization threshold, every
// append truncates the log to the last maxHistoryLength messages. Despite
// the threshold's name no summary is produced; the bound is the point.
type Store struct {
	mu                     sync.RWMutex
	sessions               map[string]*session
	maxHistoryLength       int
	summarizationThreshold int
}

func NewStore(maxHistoryLength, summarizationThreshold int) *Store {
	if maxHistoryLength <= 0 {
		maxHistoryLength = DefaultMaxHistoryLength
	}
	if summarizationThreshold <= 0 {
		summarizationThreshold = DefaultSummarizationThreshold
	}
	return &Store{
		sessions:               make(map[string]*session),
		maxHistoryLength:       maxHistoryLength,
		summarizationThreshold: summarizationThreshold,
	}
}

// CreateSession registers a new empty session and returns its id
func (s *Store) CreateSession() string {
	id := uuid.New().String()

	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()

	log.Debug("created conversation session", "sessionId", id)
	return id
}

// getOrCreate returns the session, creating it lazily
func (s *Store) getOrCreate(sessionID string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[sessionID]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[sessionID] = sess
	return sess
}

// Append adds a message to the session, creating the session if needed
func (s *Store) Append(sessionID, role, content string, metadata map[string]any) {
	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if metadata == nil {
		metadata = map[string]any{}
	}
	sess.messages = append(sess.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})
	sess.appended++

	if sess.appended > s.summarizationThreshold && len(sess.messages) > s.maxHistoryLength {
		trimmed := make([]Message, s.maxHistoryLength)
		copy(trimmed, sess.messages[len(sess.messages)-s.maxHistoryLength:])
		sess.messages = trimmed
		log.Debug("trimmed conversation", "sessionId", sessionID, "kept", len(trimmed))
	}
}

// Window returns the most recent messages whose cumulative estimated token
// count stays within maxTokens, in chronological order.
func (s *Store) Window(sessionID string, maxTokens int) []Message {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return []Message{}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	total := 0
	start := len(sess.messages)
	for i := len(sess.messages) - 1; i >= 0; i-- {
		tokens := EstimateTokens(sess.messages[i].Content)
		if total+tokens > maxTokens {
			break
		}
		total += tokens
		start = i
	}

	window := make([]Message, len(sess.messages)-start)
	copy(window, sess.messages[start:])
	return window
}

// History returns a copy of the full message log for the session
func (s *Store) History(sessionID string) []Message {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return []Message{}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	history := make([]Message, len(sess.messages))
	copy(history, sess.messages)
	return history
}

// Clear removes the session and its messages
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	log.Info("cleared conversation", "sessionId", sessionID)
}

// EstimateTokens approximates a message's token count as its word count
// times 1.3, rounded. Rough, but cheap and model-independent.
func EstimateTokens(content string) int {
	words := len(strings.Fields(content))
	return int(math.Round(float64(words) * 1.3))
}
