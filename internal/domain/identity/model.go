package identity

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the users table. Password holds a bcrypt hash and is never
// serialized.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	CognitoID string    `db:"cognito_id" json:"cognitoId"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RegisterInput carries the fields needed to create a user.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	CognitoID string `json:"cognitoId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}
