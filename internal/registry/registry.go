// Package registry records published model metadata in PostgreSQL so the
// classifier service can resolve which model file and threshold are active
// without redistributing configuration.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
	"github.com/tokensift/token-screening-platform/pkg/postgres"
	"github.com/tokensift/token-screening-platform/pkg/resilience"
)

// ModelRecord is one published model version.
type ModelRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	NGramLength int       `json:"ngram_length"`
	Threshold   float64   `json:"threshold"`
	NGramCount  int       `json:"ngram_count"`
	FilePath    string    `json:"file_path"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registry reads and writes model records.
type Registry struct {
	client *postgres.Client
	logger *slog.Logger
}

// New creates a Registry backed by the given postgres client.
func New(client *postgres.Client) *Registry {
	return &Registry{
		client: client,
		logger: slog.Default().With("component", "model-registry"),
	}
}

// Migrate creates the model registry table if it does not exist.
func (r *Registry) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS models (
			id           BIGSERIAL PRIMARY KEY,
			name         TEXT        NOT NULL,
			version      INT         NOT NULL,
			ngram_length INT         NOT NULL,
			threshold    DOUBLE PRECISION NOT NULL,
			ngram_count  INT         NOT NULL,
			file_path    TEXT        NOT NULL,
			checksum     TEXT        NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (name, version)
		)`
	if _, err := r.client.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating models table: %w", err)
	}
	return nil
}

// Publish inserts a new record for the model, assigning the next version
// number for its name. The version query and insert run in one transaction
// so concurrent publishes cannot claim the same version.
func (r *Registry) Publish(ctx context.Context, rec ModelRecord) (ModelRecord, error) {
	err := resilience.Retry(ctx, "registry-publish", resilience.RetryConfig{}, func() error {
		return r.client.InTx(ctx, func(tx *sql.Tx) error {
			row := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(version), 0) + 1 FROM models WHERE name = $1`, rec.Name)
			if err := row.Scan(&rec.Version); err != nil {
				return fmt.Errorf("assigning model version: %w", err)
			}
			row = tx.QueryRowContext(ctx,
				`INSERT INTO models (name, version, ngram_length, threshold, ngram_count, file_path, checksum)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 RETURNING id, created_at`,
				rec.Name, rec.Version, rec.NGramLength, rec.Threshold, rec.NGramCount, rec.FilePath, rec.Checksum)
			if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
				return fmt.Errorf("inserting model record: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return ModelRecord{}, err
	}
	r.logger.Info("model published",
		"name", rec.Name,
		"version", rec.Version,
		"ngram_length", rec.NGramLength,
		"ngrams", rec.NGramCount,
	)
	return rec, nil
}

// Latest returns the most recent version of the named model.
func (r *Registry) Latest(ctx context.Context, name string) (ModelRecord, error) {
	var rec ModelRecord
	row := r.client.DB.QueryRowContext(ctx,
		`SELECT id, name, version, ngram_length, threshold, ngram_count, file_path, checksum, created_at
		 FROM models WHERE name = $1
		 ORDER BY version DESC LIMIT 1`, name)
	err := row.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.NGramLength, &rec.Threshold,
		&rec.NGramCount, &rec.FilePath, &rec.Checksum, &rec.CreatedAt)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ModelRecord{}, fmt.Errorf("%w: %s", apperrors.ErrModelNotFound, name)
	}
	return ModelRecord{}, fmt.Errorf("querying latest model %s: %w", name, err)
}

// Versions lists all published versions of the named model, newest first.
func (r *Registry) Versions(ctx context.Context, name string) ([]ModelRecord, error) {
	rows, err := r.client.DB.QueryContext(ctx,
		`SELECT id, name, version, ngram_length, threshold, ngram_count, file_path, checksum, created_at
		 FROM models WHERE name = $1
		 ORDER BY version DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("querying model versions: %w", err)
	}
	defer rows.Close()

	var recs []ModelRecord
	for rows.Next() {
		var rec ModelRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.NGramLength, &rec.Threshold,
			&rec.NGramCount, &rec.FilePath, &rec.Checksum, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning model record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating model records: %w", err)
	}
	return recs, nil
}
