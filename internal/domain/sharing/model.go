package sharing

import (
	"time"

	"github.com/google/uuid"
)

// SharedTest grants whoever holds AccessToken read access to one blood test.
type SharedTest struct {
	ID              uuid.UUID `json:"id"`
	BloodTestID     uuid.UUID `json:"bloodTestId"`
	SharedByID      uuid.UUID `json:"sharedById"`
	SharedWithEmail string    `json:"sharedWithEmail"`
	AccessToken     string    `json:"accessToken"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ShareRequest is the body of POST /api/test/share.
type ShareRequest struct {
	BloodTestID     string `json:"bloodTestId" validate:"required,uuid"`
	SharedByID      string `json:"sharedById" validate:"required,uuid"`
	SharedWithEmail string `json:"sharedWithEmail" validate:"required,email"`
}
