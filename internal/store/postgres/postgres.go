// Package postgres stores signups in PostgreSQL through a pgx pool, for
// deployments that share one database across several API instances.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/knowgraph/knowgraph/internal/signup"
)

const uniqueViolation = "23505"

const createSignups = `CREATE TABLE IF NOT EXISTS signups (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	email            TEXT NOT NULL UNIQUE,
	role             TEXT NOT NULL,
	interest         TEXT NOT NULL DEFAULT '',
	interested_plans TEXT[] NOT NULL DEFAULT '{}',
	message          TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createSignupsIndex = `CREATE INDEX IF NOT EXISTS signups_created_at_idx ON signups (created_at DESC)`

// Options tunes the connection pool.
type Options struct {
	MaxConns int32
	MinConns int32
}

// DefaultOptions returns pool sizes suitable for a single API instance.
func DefaultOptions() Options {
	return Options{MaxConns: 10, MinConns: 1}
}

// SignupRepo implements signup.Repo on PostgreSQL.
type SignupRepo struct {
	pool *pgxpool.Pool
}

var _ signup.Repo = (*SignupRepo)(nil)

// Open connects to url, verifies the connection and creates the signups
// table when missing.
func Open(ctx context.Context, url string, opts Options) (*SignupRepo, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, stmt := range []string{createSignups, createSignupsIndex} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate signups: %w", err)
		}
	}
	return &SignupRepo{pool: pool}, nil
}

// Close shuts down the pool.
func (r *SignupRepo) Close() {
	r.pool.Close()
}

// HealthCheck verifies the database connection is alive.
func (r *SignupRepo) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Create inserts s; a duplicate email wraps signup.ErrConflict.
func (r *SignupRepo) Create(ctx context.Context, s *signup.Signup) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO signups (id, name, email, role, interest, interested_plans, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Name, s.Email, string(s.Role), string(s.Interest),
		planStrings(s.InterestedPlans), s.Message, s.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create signup %s: %w", s.Email, signup.ErrConflict)
		}
		return fmt.Errorf("create signup: %w", err)
	}
	return nil
}

// List returns signups matching f, newest first.
func (r *SignupRepo) List(ctx context.Context, f signup.Filter) ([]signup.Signup, error) {
	query, args := listQuery(f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var out []signup.Signup
	for rows.Next() {
		var (
			s        signup.Signup
			role     string
			interest string
			plans    []string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &role, &interest, &plans, &s.Message, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		s.Role = signup.Role(role)
		s.Interest = signup.Interest(interest)
		for _, p := range plans {
			s.InterestedPlans = append(s.InterestedPlans, signup.Plan(p))
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// listQuery builds the filtered select with positional arguments.
func listQuery(f signup.Filter) (string, []any) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString(`SELECT id, name, email, role, interest, interested_plans, message, created_at FROM signups`)
	if f.Role != "" {
		where = append(where, "role = "+arg(string(f.Role)))
	}
	if f.Plan != "" {
		where = append(where, arg(string(f.Plan))+" = ANY(interested_plans)")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, "(name ILIKE "+p+" OR email ILIKE "+p+")")
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, email ASC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + arg(f.Limit))
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func planStrings(plans []signup.Plan) []string {
	out := make([]string, len(plans))
	for i, p := range plans {
		out[i] = string(p)
	}
	return out
}
