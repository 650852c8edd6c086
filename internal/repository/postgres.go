package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"valuator/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Schema creates the valuation history table. The embedding width matches model.EncodedVectorWidth.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS valuations (
	id          UUID PRIMARY KEY,
	size        DOUBLE PRECISION NOT NULL,
	bedrooms    DOUBLE PRECISION NOT NULL,
	bathrooms   DOUBLE PRECISION NOT NULL,
	location    TEXT NOT NULL,
	city        TEXT NOT NULL,
	state       TEXT NOT NULL,
	country     TEXT NOT NULL DEFAULT '',
	year_built  INTEGER NOT NULL,
	has_garage  BOOLEAN NOT NULL,
	has_pool    BOOLEAN NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	embedding   vector(12) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS valuations_created_at_idx ON valuations (created_at DESC);
`

const valuationColumns = `
	id, size, bedrooms, bathrooms, location, city, state, country,
	year_built, has_garage, has_pool, price, confidence, embedding, created_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db), nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Migrate creates the valuation table if it does not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SaveValuation stores a valuation
func (r *PostgresRepository) SaveValuation(ctx context.Context, record *model.ValuationRecord) error {
	query := `
		INSERT INTO valuations (
			id, size, bedrooms, bathrooms, location, city, state, country,
			year_built, has_garage, has_pool, price, confidence, embedding, created_at
		) VALUES (
			:id, :size, :bedrooms, :bathrooms, :location, :city, :state, :country,
			:year_built, :has_garage, :has_pool, :price, :confidence, :embedding, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to save valuation: %w", err)
	}
	return nil
}

// GetValuationByID retrieves a single valuation by its ID
func (r *PostgresRepository) GetValuationByID(ctx context.Context, id string) (*model.ValuationRecord, error) {
	var record model.ValuationRecord
	query := fmt.Sprintf(`SELECT %s FROM valuations WHERE id = $1`, valuationColumns)

	err := r.db.GetContext(ctx, &record, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get valuation: %w", err)
	}
	return &record, nil
}

// FindSimilar returns the valuations nearest to embedding by L2 distance
func (r *PostgresRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]model.ValuationRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s, embedding <-> $1 AS distance
		FROM valuations
		ORDER BY embedding <-> $1
		LIMIT $2
	`, valuationColumns)

	var records []model.ValuationRecord
	err := r.db.SelectContext(ctx, &records, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar valuations: %w", err)
	}
	return records, nil
}

// RecentValuations returns the latest valuations, newest first
func (r *PostgresRepository) RecentValuations(ctx context.Context, limit int) ([]model.ValuationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM valuations ORDER BY created_at DESC LIMIT $1`, valuationColumns)

	var records []model.ValuationRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list valuations: %w", err)
	}
	return records, nil
}
