// Package auth signs sessions in with a password or a federated identity
// provider, and signs them out.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/domain/account"
	"github.com/isow/backend/internal/domain/shared"
	infraauth "github.com/isow/backend/internal/infrastructure/auth"
	"github.com/isow/backend/internal/infrastructure/identity"
	"go.uber.org/zap"
)

// DashboardRoute is where the browser goes after signing in
const DashboardRoute = "/dashboard"

// ErrFederatedDisabled is returned when no identity provider is configured
var ErrFederatedDisabled = shared.NewDomainError("FEATURE_DISABLED", "Federated sign-in is not configured")

// PasswordVerifier checks local credentials
type PasswordVerifier interface {
	Authenticate(ctx context.Context, email, password string) (*identity.Identity, error)
}

// FederatedProvider runs the authorization code flow against an issuer
type FederatedProvider interface {
	Begin() (*identity.AuthRequest, error)
	Exchange(ctx context.Context, code, verifier, nonce string) (*identity.Identity, error)
}

// ViewDropper releases the list views held for a session
type ViewDropper interface {
	Drop(sessionID string) int
}

// SignInResult is a signed-in session with its access token
type SignInResult struct {
	User     session.User
	Token    *infraauth.AccessToken
	Redirect string
}

// Service handles sign-in and sign-out
type Service struct {
	sessions  *session.Manager
	passwords PasswordVerifier
	federated FederatedProvider
	tokens    *infraauth.JWTService
	blacklist infraauth.TokenBlacklist
	views     ViewDropper
	logger    *zap.Logger
}

// Deps are the collaborators of the auth service. Federated and Views are optional.
type Deps struct {
	Sessions  *session.Manager
	Passwords PasswordVerifier
	Federated FederatedProvider
	Tokens    *infraauth.JWTService
	Blacklist infraauth.TokenBlacklist
	Views     ViewDropper
	Logger    *zap.Logger
}

// NewService creates the auth service
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Blacklist == nil {
		deps.Blacklist = infraauth.NewInMemoryTokenBlacklist()
	}
	return &Service{
		sessions:  deps.Sessions,
		passwords: deps.Passwords,
		federated: deps.Federated,
		tokens:    deps.Tokens,
		blacklist: deps.Blacklist,
		views:     deps.Views,
		logger:    deps.Logger,
	}
}

// FederatedEnabled reports whether an identity provider is configured
func (s *Service) FederatedEnabled() bool {
	return s.federated != nil
}

// SignInWithPassword validates the form, checks the credentials and signs
// the session in
func (s *Service) SignInWithPassword(ctx context.Context, sessionID string, in validation.SignInInput) (*SignInResult, error) {
	if err := validation.Struct(i18n.FromContext(ctx), &in); err != nil {
		return nil, err
	}
	id, err := s.passwords.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, sessionID, id)
}

// BeginFederated starts an authorization at the identity provider
func (s *Service) BeginFederated(context.Context) (*identity.AuthRequest, error) {
	if s.federated == nil {
		return nil, ErrFederatedDisabled
	}
	return s.federated.Begin()
}

// CompleteFederated redeems the callback code and signs the session in
func (s *Service) CompleteFederated(ctx context.Context, sessionID, code, verifier, nonce string) (*SignInResult, error) {
	if s.federated == nil {
		return nil, ErrFederatedDisabled
	}
	id, err := s.federated.Exchange(ctx, code, verifier, nonce)
	if err != nil {
		s.logger.Warn("federated sign-in failed", zap.Error(err))
		return nil, err
	}
	return s.signIn(ctx, sessionID, id)
}

func (s *Service) signIn(ctx context.Context, sessionID string, id *identity.Identity) (*SignInResult, error) {
	user := session.User{
		Name:      id.Name,
		Email:     id.Email,
		AvatarURL: id.Picture,
	}
	if user.Name == "" {
		user.Name = account.NameFromEmail(id.Email)
	}

	if err := s.sessions.Store(sessionID).SignIn(ctx, user); err != nil {
		return nil, fmt.Errorf("sign in %s: %w", user.Email, err)
	}

	token, err := s.tokens.GenerateAccessToken(infraauth.GenerateTokenInput{
		SessionID: sessionID,
		Email:     user.Email,
		Name:      user.Name,
		Provider:  id.Provider,
	})
	if err != nil {
		s.logger.Error("failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token").WithCause(err)
	}

	s.logger.Info("session signed in",
		zap.String("session_id", sessionID),
		zap.String("email", user.Email),
		zap.String("provider", id.Provider))
	return &SignInResult{User: user, Token: token, Redirect: DashboardRoute}, nil
}

// SignOut revokes the access token, clears the persisted user and drops
// the session's list views. It returns the route to navigate to.
func (s *Service) SignOut(ctx context.Context, sessionID, token string) (string, error) {
	if token != "" {
		if claims, err := s.tokens.ValidateAccessToken(token); err == nil {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Warn("failed to revoke access token", zap.Error(err))
			}
		}
	}

	route, err := s.sessions.Store(sessionID).SignOut(ctx)
	if s.views != nil {
		s.views.Drop(sessionID)
	}
	if err != nil {
		return route, err
	}
	s.logger.Info("session signed out", zap.String("session_id", sessionID))
	return route, nil
}

// CurrentUser loads the persisted user of the session
func (s *Service) CurrentUser(ctx context.Context, sessionID string) session.User {
	return s.sessions.Store(sessionID).Load(ctx)
}

// VerifyToken validates the access token and rejects revoked ones
func (s *Service) VerifyToken(ctx context.Context, token string) (*infraauth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return nil, infraauth.ErrTokenBlacklisted
	}
	return claims, nil
}

// IsInvalidCredentials reports whether err is a rejected sign-in
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, identity.ErrInvalidCredentials)
}
