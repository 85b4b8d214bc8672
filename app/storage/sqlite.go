package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05.000"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open SQLite DB at %s: %w", dbPath, err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS messages (
            id INTEGER NOT NULL,
            session_id TEXT NOT NULL,
            role TEXT NOT NULL,
            content TEXT NOT NULL,
            tool TEXT NOT NULL DEFAULT '',
            tool_call_id TEXT NOT NULL DEFAULT '',
            tool_calls TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            PRIMARY KEY (session_id, id)
        );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}

	log.Printf("📂 Conversation memory at %s", dbPath)
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Append(ctx context.Context, sessionID string, records ...Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lastID int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM messages WHERE session_id = ?`, sessionID,
	).Scan(&lastID)
	if err != nil {
		return fmt.Errorf("last id for session %s: %w", sessionID, err)
	}

	for _, r := range records {
		lastID++
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (id, session_id, role, content, tool, tool_call_id, tool_calls, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			lastID, sessionID, r.Role, r.Content, r.Tool, r.ToolCallID, r.ToolCalls,
			r.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("save message for session %s: %w", sessionID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) History(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, tool, tool_call_id, tool_calls, created_at
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Record
	for rows.Next() {
		var r Record
		var createdAt string
		if err = rows.Scan(&r.ID, &r.SessionID, &r.Role, &r.Content, &r.Tool, &r.ToolCallID, &r.ToolCalls,
			&createdAt); err != nil {
			return nil, fmt.Errorf("scan message for session %s: %w", sessionID, err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		history = append(history, r)
	}
	return history, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
