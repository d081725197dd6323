// Package memory implements the SessionMemory capability (spec §3.1):
// short-term action history consumed by the DecisionOracle. Grounded
// on the teacher's history []HistoryItem slice plus its last(history,
// n) helper in internal/agent/orchestrator.go.
package memory

import (
	"context"
	"sync"

	"github.com/avalonis/browserpilot/internal/domain"
)

// Store is the persistence surface both the in-process store and
// the durable SQLite-backed implementation satisfy. DecisionOracle and
// Planner depend only on this interface, mirroring the original spec's
// "core consumes DatabaseManager.getRecentHistory(sessionId, n) only."
type Store interface {
	Append(ctx context.Context, sessionID string, item domain.HistoryItem) error
	GetRecentHistory(ctx context.Context, sessionID string, n int) ([]domain.HistoryItem, error)
}

// InProcess is the default in-memory Store: every row of a session is
// kept (append-only, never evicted) and the last N are returned in
// chronological order.
type InProcess struct {
	mu       sync.Mutex
	bySession map[string][]domain.HistoryItem
}

func NewInProcess() *InProcess {
	return &InProcess{bySession: make(map[string][]domain.HistoryItem)}
}

func (s *InProcess) Append(_ context.Context, sessionID string, item domain.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySession[sessionID] = append(s.bySession[sessionID], item)
	return nil
}

func (s *InProcess) GetRecentHistory(_ context.Context, sessionID string, n int) ([]domain.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.bySession[sessionID]
	if n <= 0 || n >= len(history) {
		out := make([]domain.HistoryItem, len(history))
		copy(out, history)
		return out, nil
	}
	start := len(history) - n
	out := make([]domain.HistoryItem, n)
	copy(out, history[start:])
	return out, nil
}
