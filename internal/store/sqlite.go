// Package store provides a durable SessionMemory backend over
// database/sql + modernc.org/sqlite, satisfying the memory.Store
// interface the same way other_examples/nugget-thane-ai-agent's
// DatabaseManager persists agent history: a plain append-only table
// queried with a LIMIT-N "last rows" read.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"time"

	_ "modernc.org/sqlite"

	"github.com/avalonis/browserpilot/internal/domain"
)

const timeLayout = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// SQLite is the durable memory.Store implementation. Action values are
// persisted flat, as their action type plus Describe() text; their
// fields are not stored, since history rows are read-only audit
// records, never re-dispatched.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database at path and
// ensures the history table exists.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	step INTEGER NOT NULL,
	action_type TEXT NOT NULL,
	action_label TEXT NOT NULL,
	reasoning TEXT NOT NULL,
	state_changed INTEGER NOT NULL,
	url_after TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id, id);
`

// Append implements memory.Store. It flattens the HistoryItem into the
// history table's row shape; the Action's type+describe() string is
// enough to reconstruct prompt context (see decision.buildPrompt),
// never the action itself.
func (s *SQLite) Append(ctx context.Context, sessionID string, item domain.HistoryItem) error {
	actionType, label := "", ""
	if item.Action != nil {
		actionType = string(item.Action.Type())
		label = item.Action.Describe()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (session_id, step, action_type, action_label, reasoning, state_changed, url_after, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, item.Step, actionType, label, item.Reasoning, boolToInt(item.Outcome.StateChanged), item.Outcome.URLAfter, item.Timestamp.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// GetRecentHistory implements memory.Store's last-N read, satisfying
// §6's "core consumes DatabaseManager.getRecentHistory(sessionId, n)".
// Rows are synthesised back into HistoryItem with a lightweight
// placeholder Action carrying just the type and description, since the
// DecisionOracle prompt only needs Describe() and Reasoning.
func (s *SQLite) GetRecentHistory(ctx context.Context, sessionID string, n int) ([]domain.HistoryItem, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, action_type, action_label, reasoning, state_changed, url_after, timestamp
		FROM history WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var reversed []domain.HistoryItem
	for rows.Next() {
		var (
			step         int
			actionType   string
			label        string
			reasoning    string
			stateChanged int
			urlAfter     string
			timestamp    string
		)
		if err := rows.Scan(&step, &actionType, &label, &reasoning, &stateChanged, &urlAfter, &timestamp); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		ts, _ := parseTime(timestamp)
		reversed = append(reversed, domain.HistoryItem{
			Step:      step,
			Action:    &describedAction{actionType: domain.ActionType(actionType), label: label},
			Reasoning: reasoning,
			Outcome:   domain.Outcome{StateChanged: stateChanged != 0, URLAfter: urlAfter},
			Timestamp: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.HistoryItem, len(reversed))
	for i, item := range reversed {
		out[len(reversed)-1-i] = item
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// describedAction is a read-only Action stand-in reconstructed from a
// persisted row; it is never dispatched, only described in prompts.
// The embedded domain.Action is left nil: it only supplies the
// interface's unexported isAction marker, which is never called.
type describedAction struct {
	domain.Action
	actionType domain.ActionType
	label      string
}

func (a *describedAction) Type() domain.ActionType { return a.actionType }
func (a *describedAction) Describe() string        { return a.label }

// ActionJSON is exposed for callers (e.g. a future export endpoint)
// that want the flattened row as JSON rather than a domain.HistoryItem.
func ActionJSON(item domain.HistoryItem) ([]byte, error) {
	return json.Marshal(struct {
		Step      int    `json:"step"`
		Action    string `json:"action"`
		Reasoning string `json:"reasoning"`
	}{Step: item.Step, Action: item.Action.Describe(), Reasoning: item.Reasoning})
}
