package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// TokenIssuer signs tokens. *token.Codec satisfies it.
type TokenIssuer interface {
	Issue(id models.Identity, now time.Time) (string, error)
	ExpiresAt(now time.Time) time.Time
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

// AuthService composes credential checks with token issuance.
type AuthService struct {
	users  *UserService
	issuer TokenIssuer
	logger logging.Logger
	now    func() time.Time
}

func NewAuthService(us *UserService, issuer TokenIssuer, logger logging.Logger) *AuthService {
	return &AuthService{users: us, issuer: issuer, logger: logger, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, email, plaintext string) (*models.User, error) {
	return s.users.Register(ctx, email, plaintext)
}

func (s *AuthService) CreateUser(ctx context.Context, email, plaintext string, role models.Role) (*models.User, error) {
	return s.users.CreateUser(ctx, email, plaintext, role)
}

// Login verifies the credentials and issues a token for the user.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	user, err := s.users.Authenticate(ctx, email, plaintext)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tok, err := s.issuer.Issue(user.Identity(), now)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{
		Token:     tok,
		ExpiresAt: s.issuer.ExpiresAt(now),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}
