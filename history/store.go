// Package history keeps a log of successful searches in PostgreSQL.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"restaurantfinder/models"
)

// Entry is one distinct recent search.
type Entry struct {
	PostalCode string            `json:"postalCode"`
	Method     models.SortMethod `json:"method"`
	Results    int               `json:"results"`
	SearchedAt time.Time         `json:"searchedAt"`
}

// Source lists recent searches.
type Source interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Store persists searches to the search_history table.
type Store struct {
	db *sql.DB
}

// NewStore runs the schema migration on db and returns a ready Store.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_history (
			id          SERIAL PRIMARY KEY,
			postal_code VARCHAR(4)  NOT NULL,
			method      VARCHAR(16) NOT NULL,
			results     INTEGER     NOT NULL DEFAULT 0,
			searched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_search_history_searched_at ON search_history(searched_at DESC);
	`)
	return err
}

// Record inserts one search.
func (s *Store) Record(ctx context.Context, postalCode string, method models.SortMethod, count int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (postal_code, method, results) VALUES ($1, $2, $3)`,
		postalCode, string(method), count)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns up to limit distinct (postal code, method) pairs, most
// recently searched first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT postal_code, method, results, searched_at
		FROM (
			SELECT DISTINCT ON (postal_code, method) postal_code, method, results, searched_at
			FROM search_history
			ORDER BY postal_code, method, searched_at DESC
		) latest
		ORDER BY searched_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var method string
		if err := rows.Scan(&e.PostalCode, &method, &e.Results, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		e.Method = models.SortMethod(method)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Nop records nothing and has no history. It stands in when no database is
// configured.
type Nop struct{}

func (Nop) Record(ctx context.Context, postalCode string, method models.SortMethod, count int) error {
	return nil
}

func (Nop) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return []Entry{}, nil
}
