// Package db provides PostgreSQL storage for companies, people, and precomputed transitions,
// plus an in-memory store with the same behavior for tests and database-less runs.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/career-transitions/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// -----------------------------------------------------------------------------
// Companies
// -----------------------------------------------------------------------------

// UpsertCompany inserts or refreshes a company keyed by its directory ID
func (db *DB) UpsertCompany(ctx context.Context, company *types.CompanyRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO companies (id, name, name_normalized, industry, employee_count, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (id) DO UPDATE SET name = $2, name_normalized = $3, industry = $4,
		     employee_count = $5, fetched_at = NOW()`,
		company.ID, company.Name, NormalizeName(company.Name), company.Industry, company.EmployeeCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", company.ID, err)
	}
	return nil
}

// GetFreshCompanyByName finds a company fetched within maxAge whose normalized name equals
// the normalized name. Partial names never match.
func (db *DB) GetFreshCompanyByName(ctx context.Context, name string, maxAge time.Duration) (*types.CompanyRecord, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}

	var c types.CompanyRecord
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, industry, employee_count
		 FROM companies
		 WHERE name_normalized = $1 AND fetched_at > $2
		 ORDER BY id
		 LIMIT 1`,
		normalized, time.Now().Add(-maxAge),
	).Scan(&c.ID, &c.Name, &c.Industry, &c.EmployeeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company %q: %w", name, err)
	}
	return &c, nil
}

// -----------------------------------------------------------------------------
// Persons
// -----------------------------------------------------------------------------

// UpsertPerson replaces a person and their positions in one transaction
func (db *DB) UpsertPerson(ctx context.Context, person *types.Person) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO persons (id, full_name, fetched_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET full_name = $2, fetched_at = NOW()`,
		person.ID, person.FullName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert person %s: %w", person.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE person_id = $1`, person.ID); err != nil {
		return fmt.Errorf("failed to clear positions for %s: %w", person.ID, err)
	}

	batch := &pgx.Batch{}
	for i, p := range person.Positions {
		batch.Queue(
			`INSERT INTO positions (person_id, ordinal, company_id, company_name, title, start_date, end_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			person.ID, i, p.Company.ID, p.Company.Name, p.Title, p.StartDate, p.EndDate,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert positions for %s: %w", person.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit person %s: %w", person.ID, err)
	}
	return nil
}

// GetFreshPerson returns a person fetched within maxAge, with positions in stored order
func (db *DB) GetFreshPerson(ctx context.Context, id string, maxAge time.Duration) (*types.Person, error) {
	person := types.Person{ID: id}
	err := db.pool.QueryRow(ctx,
		`SELECT full_name FROM persons WHERE id = $1 AND fetched_at > $2`,
		id, time.Now().Add(-maxAge),
	).Scan(&person.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get person %s: %w", id, err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT company_id, company_name, title, start_date, end_date
		 FROM positions WHERE person_id = $1 ORDER BY ordinal`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions for %s: %w", id, err)
	}
	defer rows.Close()

	person.Positions = []types.Position{}
	for rows.Next() {
		var p types.Position
		if err := rows.Scan(&p.Company.ID, &p.Company.Name, &p.Title, &p.StartDate, &p.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		person.Positions = append(person.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read positions for %s: %w", id, err)
	}
	return &person, nil
}

// -----------------------------------------------------------------------------
// Transitions
// -----------------------------------------------------------------------------

// UpsertTransitions stores transitions keyed by (person, source company)
func (db *DB) UpsertTransitions(ctx context.Context, transitions []types.Transition) error {
	if len(transitions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range transitions {
		batch.Queue(
			`INSERT INTO transitions (id, person_id, source_key, source_company, source_company_id, source_role,
			     source_industry, tenure_years, destination_company, destination_role, destination_industry, computed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
			 ON CONFLICT (person_id, source_key) DO UPDATE SET
			     source_company = $4, source_company_id = $5, source_role = $6, source_industry = $7,
			     tenure_years = $8, destination_company = $9, destination_role = $10,
			     destination_industry = $11, computed_at = NOW()`,
			uuid.New(), t.PersonID, TransitionKey(t), t.SourceCompany, t.SourceCompanyID, t.SourceRole,
			t.SourceIndustry, t.TenureYears, t.DestinationCompany, t.DestinationRole, t.DestinationIndustry,
		)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert %d transitions: %w", len(transitions), err)
	}
	return nil
}

// ListTransitionsBySource returns stored transitions whose source company contains source, case-insensitively.
// A non-positive limit returns every match.
func (db *DB) ListTransitionsBySource(ctx context.Context, source string, limit int) ([]types.Transition, error) {
	query := `SELECT person_id, source_company, source_company_id, source_role, source_industry, tenure_years,
	              destination_company, destination_role, destination_industry
	          FROM transitions
	          WHERE source_company ILIKE '%' || $1 || '%'
	          ORDER BY computed_at DESC, person_id`
	args := []any{escapeLike(strings.TrimSpace(source))}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions for %q: %w", source, err)
	}
	defer rows.Close()

	transitions := []types.Transition{}
	for rows.Next() {
		var t types.Transition
		if err := rows.Scan(&t.PersonID, &t.SourceCompany, &t.SourceCompanyID, &t.SourceRole, &t.SourceIndustry,
			&t.TenureYears, &t.DestinationCompany, &t.DestinationRole, &t.DestinationIndustry); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transitions: %w", err)
	}
	return transitions, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
