package faq

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// Source tables for semantic FAQ lookup.
const (
	TableDental = "faqs_semantic"
	TableTravel = "travel_faq"
)

// Entry is one stored question/answer pair with its retrieval similarity.
type Entry struct {
	Question   string
	Answer     string
	Similarity float64
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository retrieves FAQ entries by embedding similarity. Rows are ordered
// by cosine distance; similarity comes back as 1 - distance.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx with pgvector types
// registered on the pool.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("faq: db required")
	}
	return &Repository{db: db}
}

// Search returns the topK nearest entries in the given table.
func (r *Repository) Search(ctx context.Context, table string, embedding []float32, topK int) ([]Entry, error) {
	if table != TableDental && table != TableTravel {
		return nil, fmt.Errorf("faq: unknown table %q", table)
	}
	if topK <= 0 {
		topK = 3
	}

	vec := pgvector.NewVector(embedding)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT question, answer, 1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, table), vec, topK)
	if err != nil {
		return nil, fmt.Errorf("faq: search failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Question, &e.Answer, &e.Similarity); err != nil {
			return nil, fmt.Errorf("faq: scan failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
