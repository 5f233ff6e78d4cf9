package sharing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *SharedTest) error
	GetByToken(ctx context.Context, token string) (*SharedTest, error)
	ListByBloodTest(ctx context.Context, bloodTestID uuid.UUID) ([]*SharedTest, error)
	SetActive(ctx context.Context, token string, active bool) error
}
