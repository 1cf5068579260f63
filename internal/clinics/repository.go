package clinics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"

	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

var dialect = goqu.Dialect("postgres")

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads clinic rows from the location-partitioned tables.
type Repository struct {
	db     DB
	logger *logging.Logger
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB, logger *logging.Logger) *Repository {
	if db == nil {
		panic("clinics: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger}
}

// QuerySpec describes one table query built by the query router. Each inner
// slice of ServiceGroups is OR'd; groups are AND'd together. MetroJB adds the
// is_metro_jb predicate (JB table only).
type QuerySpec struct {
	ServiceGroups [][]string
	MetroJB       *bool
	Limit         int
}

// selectColumns returns the scan list for a table. The embedding column is
// deliberately absent.
func selectColumns(table string) []any {
	cols := []any{"id", "name", "address", "township", "rating", "reviews"}
	for _, c := range serviceBoolColumns {
		cols = append(cols, c)
	}
	for _, c := range sentimentColumns {
		cols = append(cols, c)
	}
	if table == TableJB {
		cols = append(cols, "is_metro_jb")
	}
	return cols
}

// SearchByNameFragment finds clinics whose name contains the fragment,
// case-insensitively.
func (r *Repository) SearchByNameFragment(ctx context.Context, table, fragment string) ([]Record, error) {
	ds := dialect.From(table).
		Select(selectColumns(table)...).
		Where(goqu.C("name").ILike("%" + fragment + "%")).
		Prepared(true)
	return r.run(ctx, table, ds)
}

// SearchByTokens runs one substring query per token and deduplicates the
// union by id.
func (r *Repository) SearchByTokens(ctx context.Context, table string, tokens []string) ([]Record, error) {
	seen := make(map[int64]bool)
	var out []Record
	for _, tok := range tokens {
		recs, err := r.SearchByNameFragment(ctx, table, tok)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

// Sample pulls a bounded slice of the table for in-memory fuzzy scoring.
func (r *Repository) Sample(ctx context.Context, table string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 200
	}
	ds := dialect.From(table).
		Select(selectColumns(table)...).
		Order(goqu.C("reviews").Desc()).
		Limit(uint(limit)).
		Prepared(true)
	return r.run(ctx, table, ds)
}

// Query executes a filtered search against one table.
func (r *Repository) Query(ctx context.Context, table string, spec QuerySpec) ([]Record, error) {
	ds := dialect.From(table).Select(selectColumns(table)...)
	for _, group := range spec.ServiceGroups {
		switch len(group) {
		case 0:
		case 1:
			ds = ds.Where(goqu.C(group[0]).IsTrue())
		default:
			ors := make([]goqu.Expression, 0, len(group))
			for _, col := range group {
				ors = append(ors, goqu.C(col).IsTrue())
			}
			ds = ds.Where(goqu.Or(ors...))
		}
	}
	if spec.MetroJB != nil && table == TableJB {
		ds = ds.Where(goqu.C("is_metro_jb").Eq(*spec.MetroJB))
	}
	if spec.Limit > 0 {
		ds = ds.Limit(uint(spec.Limit))
	}
	return r.run(ctx, table, ds.Prepared(true))
}

func (r *Repository) run(ctx context.Context, table string, ds *goqu.SelectDataset) ([]Record, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("clinics: build query for %s: %w", table, err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinics: query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows, table)
		if err != nil {
			return nil, fmt.Errorf("clinics: scan %s: %w", table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinics: iterate %s: %w", table, err)
	}
	return out, nil
}

func scanRecord(rows pgx.Rows, table string) (Record, error) {
	var (
		rec        Record
		address    sql.NullString
		township   sql.NullString
		rating     sql.NullFloat64
		reviews    sql.NullInt64
		services   = make([]sql.NullBool, len(serviceBoolColumns))
		sentiments = make([]sql.NullFloat64, len(sentimentColumns))
		metro      sql.NullBool
	)

	dest := []any{&rec.ID, &rec.Name, &address, &township, &rating, &reviews}
	for i := range services {
		dest = append(dest, &services[i])
	}
	for i := range sentiments {
		dest = append(dest, &sentiments[i])
	}
	if table == TableJB {
		dest = append(dest, &metro)
	}

	if err := rows.Scan(dest...); err != nil {
		return Record{}, err
	}

	rec.Address = address.String
	rec.Township = township.String
	rec.Rating = rating.Float64
	rec.Reviews = int(reviews.Int64)
	rec.Country = CountryForTable(table)
	rec.IsMetroJB = metro.Bool
	rec.Services = make(map[string]bool, len(serviceBoolColumns))
	for i, col := range serviceBoolColumns {
		rec.Services[col] = services[i].Bool
	}
	rec.Sentiments = make(map[string]float64)
	for i, col := range sentimentColumns {
		if sentiments[i].Valid {
			rec.Sentiments[col] = sentiments[i].Float64
		}
	}
	return rec, nil
}
