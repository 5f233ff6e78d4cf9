package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByCognitoID(ctx context.Context, cognitoID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
