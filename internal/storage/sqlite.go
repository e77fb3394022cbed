package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
)

// SQLiteRepository stores one session blob per user in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the session database at dir/sessions.db.
func OpenSQLite(dir string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "sessions.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		user_id    INTEGER PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// LoadSession reads and decodes the user's session blob.
func (r *SQLiteRepository) LoadSession(ctx context.Context, userID int) (models.SessionState, error) {
	var blob string
	err := r.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE user_id = ?`, userID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionState{}, ErrNoSession
	}
	if err != nil {
		return models.SessionState{}, fmt.Errorf("loading session: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return models.SessionState{}, fmt.Errorf("decoding session blob: %w", err)
	}
	return state, nil
}

// SaveSession serializes and upserts the user's session blob.
func (r *SQLiteRepository) SaveSession(ctx context.Context, userID int, state models.SessionState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		userID, string(blob))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
