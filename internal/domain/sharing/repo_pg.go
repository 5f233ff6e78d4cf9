package sharing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/db"
)

type sharedTestRepoPG struct{ q db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &sharedTestRepoPG{q: q}
}

const shareCols = `id, blood_test_id, shared_by_id, shared_with_email, access_token, active, created_at`

func scanShare(row pgx.Row) (*SharedTest, error) {
	var s SharedTest
	err := row.Scan(&s.ID, &s.BloodTestID, &s.SharedByID, &s.SharedWithEmail, &s.AccessToken, &s.Active, &s.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sharedTestRepoPG) Create(ctx context.Context, s *SharedTest) error {
	s.ID = uuid.New()
	err := r.q.QueryRow(ctx, `
		INSERT INTO shared_tests (id, blood_test_id, shared_by_id, shared_with_email, access_token, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		s.ID, s.BloodTestID, s.SharedByID, s.SharedWithEmail, s.AccessToken, s.Active).Scan(&s.CreatedAt)
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("access token: %w", apperr.ErrConflict)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("sharing user: %w", apperr.ErrNotFound)
	}
	return err
}

func (r *sharedTestRepoPG) GetByToken(ctx context.Context, token string) (*SharedTest, error) {
	return scanShare(r.q.QueryRow(ctx, `SELECT `+shareCols+` FROM shared_tests WHERE access_token = $1`, token))
}

func (r *sharedTestRepoPG) ListByBloodTest(ctx context.Context, bloodTestID uuid.UUID) ([]*SharedTest, error) {
	rows, err := r.q.Query(ctx, `SELECT `+shareCols+` FROM shared_tests
		WHERE blood_test_id = $1
		ORDER BY created_at DESC`, bloodTestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SharedTest
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *sharedTestRepoPG) SetActive(ctx context.Context, token string, active bool) error {
	tag, err := r.q.Exec(ctx, `UPDATE shared_tests SET active = $2 WHERE access_token = $1`, token, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
