// Package services contains server-side business logic. This file implements
// UserService, which registers users and checks their credentials.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/password"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type credentialsInput struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=72"`
}

// UserService owns the credential store. It never logs plaintext passwords.
type UserService struct {
	users     users.Repository
	hasher    password.Hasher
	validate  *validator.Validate
	logger    logging.Logger
	now       func() time.Time
	dummyHash string
}

// NewUserService builds the service. A throwaway hash is computed up front so
// that lookups of unknown users still pay for one password verification.
func NewUserService(repo users.Repository, hasher password.Hasher, logger logging.Logger) (*UserService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &UserService{
		users:     repo,
		hasher:    hasher,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Register creates a USER account. It fails with common.ErrDuplicateIdentifier
// when the email is taken.
func (s *UserService) Register(ctx context.Context, email, plaintext string) (*models.User, error) {
	return s.create(ctx, email, plaintext, models.RoleUser)
}

// CreateUser creates an account with an explicit role. Callers decide who may
// reach it.
func (s *UserService) CreateUser(ctx context.Context, email, plaintext string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", common.ErrValidation, role)
	}
	return s.create(ctx, email, plaintext, role)
}

func (s *UserService) create(ctx context.Context, email, plaintext string, role models.Role) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if err := s.validateCredentials(email, plaintext); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, fmt.Errorf("%w: password is too long", common.ErrValidation)
		}
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	inserted, err := s.users.InsertIfAbsent(ctx, user)
	if err != nil {
		s.logger.Error(ctx, "user insert failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !inserted {
		return nil, common.ErrDuplicateIdentifier
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Authenticate checks plaintext against the stored hash for email. Unknown
// email and wrong password both return common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, plaintext string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(plaintext, s.dummyHash)
			s.logger.Debug(ctx, "authentication failed", "reason", "unknown_user")
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		s.logger.Debug(ctx, "authentication failed", "reason", "password_mismatch", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) validateCredentials(email, plaintext string) error {
	err := s.validate.Struct(credentialsInput{Email: email, Password: plaintext})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(msgs, ", "))
}
