package bloodtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/advait5300/jivana-health-platform/internal/platform/analysis"
	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/db"
)

type bloodTestRepoPG struct{ q db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &bloodTestRepoPG{q: q}
}

const testCols = `id, user_id, date_performed, file_key, results, ai_analysis, created_at`

func scanTest(row pgx.Row, extra ...interface{}) (*BloodTest, error) {
	var t BloodTest
	var results, ai []byte
	dest := append([]interface{}{&t.ID, &t.UserID, &t.DatePerformed, &t.FileKey, &results, &ai, &t.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(results, &t.Results); err != nil {
		return nil, fmt.Errorf("decode results of %s: %w", t.ID, err)
	}
	if len(ai) > 0 && string(ai) != "null" {
		t.AIAnalysis = &analysis.Analysis{}
		if err := json.Unmarshal(ai, t.AIAnalysis); err != nil {
			return nil, fmt.Errorf("decode analysis of %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

func (r *bloodTestRepoPG) Create(ctx context.Context, t *BloodTest) error {
	t.ID = uuid.New()
	results, err := json.Marshal(t.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	err = r.q.QueryRow(ctx, `
		INSERT INTO blood_tests (id, user_id, date_performed, file_key, results)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		t.ID, t.UserID, t.DatePerformed, t.FileKey, string(results)).Scan(&t.CreatedAt)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("user %s: %w", t.UserID, apperr.ErrNotFound)
	}
	return err
}

func (r *bloodTestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*BloodTest, error) {
	return scanTest(r.q.QueryRow(ctx, `SELECT `+testCols+` FROM blood_tests WHERE id = $1`, id))
}

func (r *bloodTestRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*BloodTest, int, error) {
	query := `SELECT ` + testCols + `, COUNT(*) OVER () FROM blood_tests
		WHERE user_id = $1
		ORDER BY date_performed DESC, created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		items []*BloodTest
		total int
	)
	for rows.Next() {
		t, err := scanTest(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(items) == 0 && offset > 0 {
		// The window count is only visible on returned rows.
		if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM blood_tests WHERE user_id = $1`, userID).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *bloodTestRepoPG) Latest(ctx context.Context, userID uuid.UUID) (*BloodTest, error) {
	return scanTest(r.q.QueryRow(ctx, `SELECT `+testCols+` FROM blood_tests
		WHERE user_id = $1
		ORDER BY date_performed DESC, created_at DESC
		LIMIT 1`, userID))
}

func (r *bloodTestRepoPG) UpdateAnalysis(ctx context.Context, id uuid.UUID, a analysis.Analysis) (*BloodTest, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return scanTest(r.q.QueryRow(ctx, `UPDATE blood_tests SET ai_analysis = $2
		WHERE id = $1
		RETURNING `+testCols, id, string(raw)))
}
