package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/knowgraph/knowgraph/internal/signup"
)

var _ signup.Repo = (*SignupRepo)(nil)

// SignupRepo stores signups in the signups table.
type SignupRepo struct {
	drv *entsql.Driver
}

var signupSelectColumns = []string{"id", "name", "email", "role", "interest", "plans", "message", "created_at"}

// Create inserts s. A duplicate email yields an error wrapping
// signup.ErrConflict.
func (r *SignupRepo) Create(ctx context.Context, s *signup.Signup) error {
	plans, err := encodePlans(s.InterestedPlans)
	if err != nil {
		return err
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableSignups).
		Columns(signupSelectColumns...).
		Values(s.ID, s.Name, s.Email, string(s.Role), string(s.Interest), plans, s.Message, s.CreatedAt.UTC().UnixMilli()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create signup %s: %w", s.Email, signup.ErrConflict)
		}
		return fmt.Errorf("create signup: %w", err)
	}
	return nil
}

// List returns signups matching f, newest first.
func (r *SignupRepo) List(ctx context.Context, f signup.Filter) ([]signup.Signup, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(signupSelectColumns...).
		From(entsql.Table(tableSignups)).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("email"))

	var preds []*entsql.Predicate
	if f.Role != "" {
		preds = append(preds, entsql.EQ("role", string(f.Role)))
	}
	if f.Plan != "" {
		preds = append(preds, entsql.Contains("plans", `"`+string(f.Plan)+`"`))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		preds = append(preds, entsql.Or(entsql.ContainsFold("name", q), entsql.ContainsFold("email", q)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var out []signup.Signup
	for rows.Next() {
		var (
			s         signup.Signup
			role      string
			interest  string
			plans     string
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &role, &interest, &plans, &s.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		s.Role = signup.Role(role)
		s.Interest = signup.Interest(interest)
		if s.InterestedPlans, err = decodePlans(plans); err != nil {
			return nil, fmt.Errorf("signup %s: %w", s.ID, err)
		}
		s.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func encodePlans(plans []signup.Plan) (string, error) {
	if plans == nil {
		plans = []signup.Plan{}
	}
	b, err := json.Marshal(plans)
	if err != nil {
		return "", fmt.Errorf("encode plans: %w", err)
	}
	return string(b), nil
}

func decodePlans(s string) ([]signup.Plan, error) {
	if s == "" {
		return nil, nil
	}
	var plans []signup.Plan
	if err := json.Unmarshal([]byte(s), &plans); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	return plans, nil
}

// isUniqueViolation matches SQLite's constraint error text; the pure Go
// driver reports it as "constraint failed: UNIQUE constraint failed: ...".
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
