package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avalonis/browserpilot/internal/domain"
)

func TestSQLite_AppendAndGetRecentHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		err := s.Append(ctx, "session-1", domain.HistoryItem{
			Step:      i,
			Action:    &domain.DoneAction{Reason: "step"},
			Reasoning: "because",
			Outcome:   domain.Outcome{StateChanged: i%2 == 0, URLAfter: "https://a.test"},
			Timestamp: time.Now(),
		})
		require.NoError(t, err)
	}

	history, err := s.GetRecentHistory(ctx, "session-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Step)
	assert.Equal(t, 3, history[1].Step)
}

func TestSQLite_GetRecentHistory_IsolatesSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "a", domain.HistoryItem{Step: 1, Action: &domain.DoneAction{}, Timestamp: time.Now()}))
	require.NoError(t, s.Append(ctx, "b", domain.HistoryItem{Step: 1, Action: &domain.DoneAction{}, Timestamp: time.Now()}))

	history, err := s.GetRecentHistory(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
