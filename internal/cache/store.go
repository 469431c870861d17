// Package cache persists LLM-assigned term categories across runs so repeat
// classification of the same account costs nothing. Only LLM verdicts and
// manual overrides are ever written here; rule-based results are cheap to
// recompute and must reflect the current rule set on every run.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/paidsearchlab/searchintent/internal/domain"
)

// batchChunkSize bounds IN-clause sizes on batch reads.
const batchChunkSize = 500

const schema = `
CREATE TABLE IF NOT EXISTS term_categories (
	account_id TEXT    NOT NULL,
	term       TEXT    NOT NULL,
	category   TEXT    NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_id, term)
);
CREATE INDEX IF NOT EXISTS idx_term_categories_account ON term_categories(account_id);
`

// Entry is one persisted (account, term, category) tuple.
type Entry struct {
	AccountID string                `db:"account_id"`
	Term      string                `db:"term"`
	Category  domain.IntentCategory `db:"category"`
}

// Store is the sqlite-backed classification cache.
type Store struct {
	db *sqlx.DB
}

// Open connects to (or creates) the cache database at path and applies the
// schema. Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. The schema must already exist.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached category for one term, with ok=false on a miss.
func (s *Store) Get(ctx context.Context, accountID, term string) (domain.IntentCategory, bool, error) {
	var category string
	err := s.db.GetContext(ctx, &category,
		`SELECT category FROM term_categories WHERE account_id = ? AND term = ?`,
		accountID, term)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return domain.IntentCategory(category), true, nil
}

// GetBatch returns cached categories for the given terms, chunking the
// lookup to keep IN clauses bounded. Missing terms are simply absent from
// the result.
func (s *Store) GetBatch(ctx context.Context, accountID string, terms []string) (map[string]domain.IntentCategory, error) {
	out := make(map[string]domain.IntentCategory, len(terms))
	for start := 0; start < len(terms); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(terms) {
			end = len(terms)
		}
		query, args, err := sqlx.In(
			`SELECT term, category FROM term_categories WHERE account_id = ? AND term IN (?)`,
			accountID, terms[start:end])
		if err != nil {
			return nil, fmt.Errorf("cache batch query: %w", err)
		}

		rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
		if err != nil {
			return nil, fmt.Errorf("cache batch get: %w", err)
		}
		for rows.Next() {
			var term, category string
			if err := rows.Scan(&term, &category); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("cache batch scan: %w", err)
			}
			out[term] = domain.IntentCategory(category)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("cache batch rows: %w", err)
		}
		_ = rows.Close()
	}
	return out, nil
}

// All returns every cached entry for an account, keyed by term. The
// predictive word model is rebuilt from this on every run.
func (s *Store) All(ctx context.Context, accountID string) (map[string]domain.IntentCategory, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT term, category FROM term_categories WHERE account_id = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("cache list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.IntentCategory)
	for rows.Next() {
		var term, category string
		if err := rows.Scan(&term, &category); err != nil {
			return nil, fmt.Errorf("cache list scan: %w", err)
		}
		out[term] = domain.IntentCategory(category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache list rows: %w", err)
	}
	return out, nil
}

// Put upserts one entry. Re-inserting an existing (account, term) replaces
// its category.
func (s *Store) Put(ctx context.Context, accountID, term string, category domain.IntentCategory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO term_categories (account_id, term, category, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id, term)
		DO UPDATE SET category = excluded.category, updated_at = CURRENT_TIMESTAMP`,
		accountID, term, string(category))
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// PutBatch upserts all entries in a single transaction.
func (s *Store) PutBatch(ctx context.Context, accountID string, entries map[string]domain.IntentCategory) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache batch put begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO term_categories (account_id, term, category, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id, term)
		DO UPDATE SET category = excluded.category, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("cache batch put prepare: %w", err)
	}
	defer stmt.Close()

	for term, category := range entries {
		if _, err := stmt.ExecContext(ctx, accountID, term, string(category)); err != nil {
			return fmt.Errorf("cache batch put %q: %w", term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache batch put commit: %w", err)
	}
	return nil
}

// DeleteAccount removes every cached entry for an account (the "rebuild"
// operation). Returns the number of rows removed.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM term_categories WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("cache delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache delete account rows: %w", err)
	}
	return n, nil
}

// Count returns the number of cached terms for an account.
func (s *Store) Count(ctx context.Context, accountID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM term_categories WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Distribution returns per-category counts for an account.
func (s *Store) Distribution(ctx context.Context, accountID string) (map[domain.IntentCategory]int, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT category, COUNT(*) AS n
		FROM term_categories
		WHERE account_id = ?
		GROUP BY category`, accountID)
	if err != nil {
		return nil, fmt.Errorf("cache distribution: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.IntentCategory]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("cache distribution scan: %w", err)
		}
		out[domain.IntentCategory(category)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache distribution rows: %w", err)
	}
	return out, nil
}
