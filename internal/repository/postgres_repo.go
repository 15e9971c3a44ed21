package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const createKVTable = `
    CREATE TABLE IF NOT EXISTS kv_store (
        key        TEXT PRIMARY KEY,
        value      JSONB NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )
`

// PostgresRepository keeps the collection as one JSONB row of kv_store.
type PostgresRepository struct {
	db     *pgxpool.Pool
	key    string
	logger *zap.Logger
}

func NewPostgresRepository(db *pgxpool.Pool, key string, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		key:    key,
		logger: logger,
	}
}

func (r *PostgresRepository) Backend() string { return "postgres" }

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createKVTable); err != nil {
		r.logger.Error("Failed to create kv_store table", zap.Error(err))
		return err
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context) ([]byte, error) {
	r.logger.Debug("Reading habit collection", zap.String("key", r.key))

	query := `
        SELECT value
        FROM kv_store
        WHERE key = $1
    `
	var data []byte
	err := r.db.QueryRow(ctx, query, r.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to read habit collection", zap.String("key", r.key), zap.Error(err))
		return nil, err
	}
	return data, nil
}

func (r *PostgresRepository) Save(ctx context.Context, data []byte) error {
	query := `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `
	if _, err := r.db.Exec(ctx, query, r.key, data); err != nil {
		r.logger.Error("Failed to write habit collection", zap.String("key", r.key), zap.Error(err))
		return err
	}

	r.logger.Debug("Habit collection written",
		zap.String("key", r.key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
