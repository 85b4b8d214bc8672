package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const vectorsFile = "vectors.db"

// SQLiteStore persists a collection under a directory and searches it by brute force.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

func NewSQLiteStore(persistDir, collection string) (*SQLiteStore, error) {
	if err := os.MkdirAll(persistDir, 0o755); err != nil {
		return nil, fmt.Errorf("create persist directory: %w", err)
	}
	dbPath := filepath.Join(persistDir, vectorsFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open SQLite DB at %s: %w", dbPath, err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS collections (
            name TEXT PRIMARY KEY,
            dimension INTEGER NOT NULL
        );
        CREATE TABLE IF NOT EXISTS embeddings (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            collection TEXT NOT NULL,
            content TEXT NOT NULL,
            metadata TEXT NOT NULL,
            vector TEXT NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_embeddings_collection ON embeddings (collection);
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create vector tables: %w", err)
	}

	log.Printf("📦 Vector collection %q at %s", collection, dbPath)
	return &SQLiteStore{db: db, collection: collection}, nil
}

func (s *SQLiteStore) dimension(ctx context.Context) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return dim, err
}

func (s *SQLiteStore) Init(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size %d", vectorSize)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, dimension) VALUES (?, ?)`, s.collection, vectorSize,
	); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if dim != vectorSize {
		return fmt.Errorf("collection %s: %w: has %d, got %d", s.collection, ErrDimensionMismatch, dim, vectorSize)
	}
	return nil
}

func (s *SQLiteStore) UpsertBatch(ctx context.Context, docs []VectorDoc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (id, collection, content, metadata, vector) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET content = excluded.content, metadata = excluded.metadata, vector = excluded.vector`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadata, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		vector, err := json.Marshal(d.Vector)
		if err != nil {
			return fmt.Errorf("encode vector: %w", err)
		}
		if _, err = stmt.ExecContext(ctx, id, s.collection, d.Content, string(metadata), string(vector)); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, filters map[string]string, k int) ([]VectorDoc, error) {
	if k <= 0 {
		return nil, nil
	}
	dim, err := s.dimension(ctx)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, nil
	}
	if dim != len(vector) {
		return nil, fmt.Errorf("collection %s: %w: has %d, got %d", s.collection, ErrDimensionMismatch, dim, len(vector))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata, vector FROM embeddings WHERE collection = ? ORDER BY seq`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VectorDoc
	for rows.Next() {
		var (
			d                VectorDoc
			metadata, vecRaw string
		)
		if err = rows.Scan(&d.ID, &d.Content, &metadata, &vecRaw); err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(metadata), &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", d.ID, err)
		}
		if !matches(d.Metadata, filters) {
			continue
		}
		if err = json.Unmarshal([]byte(vecRaw), &d.Vector); err != nil {
			return nil, fmt.Errorf("decode vector of %s: %w", d.ID, err)
		}
		d.Score = cosine(vector, d.Vector)
		out = append(out, d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return topK(out, k), nil
}

func matches(metadata map[string]any, filters map[string]string) bool {
	for key, want := range filters {
		got, ok := metadata[key]
		if !ok || fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}

func (s *SQLiteStore) Count(ctx context.Context, filters map[string]string) (int, error) {
	var n int
	if len(filters) == 0 {
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE collection = ?`, s.collection).Scan(&n)
		return n, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, metadata FROM embeddings WHERE collection = ?`, s.collection)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, raw string
		if err = rows.Scan(&id, &raw); err != nil {
			return 0, err
		}
		var metadata map[string]any
		if err = json.Unmarshal([]byte(raw), &metadata); err != nil {
			return 0, fmt.Errorf("decode metadata of %s: %w", id, err)
		}
		if matches(metadata, filters) {
			n++
		}
	}
	return n, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
