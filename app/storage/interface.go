package storage

import (
	"context"
	"time"
)

type Interface interface {
	Append(ctx context.Context, sessionID string, records ...Record) error
	History(ctx context.Context, sessionID string) ([]Record, error)
	Close() error
}

// Record is one message of a conversation thread. IDs grow monotonically per session.
type Record struct {
	ID         int64     `json:"id" db:"id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	Role       string    `json:"role" db:"role"`
	Content    string    `json:"content" db:"content"`
	Tool       string    `json:"tool" db:"tool"`
	ToolCallID string    `json:"tool_call_id" db:"tool_call_id"`
	ToolCalls  string    `json:"tool_calls" db:"tool_calls"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
