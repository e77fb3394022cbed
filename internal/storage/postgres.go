package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
)

// PostgresRepository stores session blobs in a JSONB column, one row per
// user. Used for hosted deployments where the engine runs server-side.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// LoadSession reads and decodes the user's session blob.
func (r *PostgresRepository) LoadSession(ctx context.Context, userID int) (models.SessionState, error) {
	var blob []byte
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM workout_sessions WHERE user_id = $1`, userID,
	).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SessionState{}, ErrNoSession
	}
	if err != nil {
		return models.SessionState{}, fmt.Errorf("loading session: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal(blob, &state); err != nil {
		return models.SessionState{}, fmt.Errorf("decoding session blob: %w", err)
	}
	return state, nil
}

// SaveSession serializes and upserts the user's session blob.
func (r *PostgresRepository) SaveSession(ctx context.Context, userID int, state models.SessionState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO workout_sessions (user_id, state, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		userID, blob)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
