package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/validate"
)

type Service struct {
	repo      UserRepository
	validator *validate.Validator
	hashCost  int
}

func NewService(repo UserRepository) *Service {
	return &Service{repo: repo, validator: validate.New(), hashCost: bcrypt.DefaultCost}
}

// Verify looks up the user linked to an identity-provider id.
func (s *Service) Verify(ctx context.Context, cognitoID string) (*User, error) {
	if strings.TrimSpace(cognitoID) == "" {
		return nil, apperr.Invalid("cognitoId is required")
	}
	return s.repo.GetByCognitoID(ctx, cognitoID)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UserIDForSubject maps a verified token subject to the internal user id.
func (s *Service) UserIDForSubject(ctx context.Context, subject string) (uuid.UUID, error) {
	if subject == "" {
		return uuid.Nil, apperr.Invalid("no authenticated subject")
	}
	u, err := s.repo.GetByCognitoID(ctx, subject)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

// Register creates a user. Username, email and identity-provider id must
// each be unused; the password is stored as a bcrypt hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.CognitoID = strings.TrimSpace(in.CognitoID)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if err := s.ensureUnused(ctx, in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:  in.Username,
		Password:  string(hash),
		CognitoID: in.CognitoID,
		Email:     in.Email,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ensureUnused(ctx context.Context, in RegisterInput) error {
	checks := []struct {
		field  string
		lookup func() (*User, error)
	}{
		{"username", func() (*User, error) { return s.repo.GetByUsername(ctx, in.Username) }},
		{"email", func() (*User, error) { return s.repo.GetByEmail(ctx, in.Email) }},
		{"cognitoId", func() (*User, error) { return s.repo.GetByCognitoID(ctx, in.CognitoID) }},
	}
	for _, c := range checks {
		_, err := c.lookup()
		switch {
		case err == nil:
			return fmt.Errorf("%s: %w", c.field, apperr.ErrConflict)
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
	}
	return nil
}
