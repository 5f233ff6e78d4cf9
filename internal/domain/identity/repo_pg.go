package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/db"
)

type userRepoPG struct{ q db.Querier }

func NewUserRepoPG(q db.Querier) UserRepository {
	return &userRepoPG{q: q}
}

const userCols = `id, username, password, cognito_id, email, created_at`

func (r *userRepoPG) scanRow(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.CognitoID, &u.Email, &u.CreatedAt)
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.q.QueryRow(ctx, `
		INSERT INTO users (id, username, password, cognito_id, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		u.ID, u.Username, u.Password, u.CognitoID, u.Email).Scan(&u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("user: %w", apperr.ErrConflict)
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanRow(r.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanRow(r.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *userRepoPG) GetByCognitoID(ctx context.Context, cognitoID string) (*User, error) {
	return r.scanRow(r.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE cognito_id = $1`, cognitoID))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanRow(r.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}
