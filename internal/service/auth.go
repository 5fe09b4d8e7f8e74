package service

// AuthService is the business logic layer for login:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT)
//
// GitHub is the only identity provider, so there are no passwords to hash:
// a login is "GitHub vouched for this account, remember it and sign a token".

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/auth"
	"github.com/sakif/component-playground/internal/model"
	"github.com/sakif/component-playground/internal/repository"
)

// AuthService handles the authentication business logic.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: it upserts the
// user and issues a token.
//
// WHY UPSERT?
// GitHub IDs are stable and unique, so the first login inserts and every
// later one refreshes the login/email/avatar in case they changed on GitHub.
//
// Cookies and redirects stay in the handler; this method never sees HTTP.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, apperror.ValidationFailed("github_user", "a GitHub account is required")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. The /api/me
// handler calls it with the ID the middleware took from the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}
