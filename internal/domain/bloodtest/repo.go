package bloodtest

import (
	"context"

	"github.com/google/uuid"

	"github.com/advait5300/jivana-health-platform/internal/platform/analysis"
)

type Repository interface {
	Create(ctx context.Context, t *BloodTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*BloodTest, error)
	// ListByUser returns a page ordered by date performed, newest first,
	// and the total count. limit <= 0 returns every test.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*BloodTest, int, error)
	Latest(ctx context.Context, userID uuid.UUID) (*BloodTest, error)
	UpdateAnalysis(ctx context.Context, id uuid.UUID, a analysis.Analysis) (*BloodTest, error)
}
