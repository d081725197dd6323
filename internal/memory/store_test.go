package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avalonis/browserpilot/internal/domain"
)

func TestInProcess_AppendAndGetRecentHistory(t *testing.T) {
	s := NewInProcess()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		err := s.Append(ctx, "session-1", domain.HistoryItem{
			Step:   i,
			Action: &domain.DoneAction{Reason: "step"},
		})
		require.NoError(t, err)
	}

	history, err := s.GetRecentHistory(ctx, "session-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].Step)
	assert.Equal(t, 5, history[1].Step)
}

func TestInProcess_GetRecentHistory_NFloorsToAll(t *testing.T) {
	s := NewInProcess()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "session-1", domain.HistoryItem{Step: 1, Action: &domain.DoneAction{}}))
	require.NoError(t, s.Append(ctx, "session-1", domain.HistoryItem{Step: 2, Action: &domain.DoneAction{}}))

	history, err := s.GetRecentHistory(ctx, "session-1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestInProcess_GetRecentHistory_IsolatesSessions(t *testing.T) {
	s := NewInProcess()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "a", domain.HistoryItem{Step: 1, Action: &domain.DoneAction{}}))
	require.NoError(t, s.Append(ctx, "b", domain.HistoryItem{Step: 1, Action: &domain.DoneAction{}}))

	history, err := s.GetRecentHistory(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestInProcess_GetRecentHistory_UnknownSessionIsEmpty(t *testing.T) {
	s := NewInProcess()
	history, err := s.GetRecentHistory(context.Background(), "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}
