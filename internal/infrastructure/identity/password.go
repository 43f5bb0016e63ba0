package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isow/backend/internal/domain/account"
	"github.com/isow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// PasswordAuthenticator checks email/password pairs against local accounts
type PasswordAuthenticator struct {
	accounts account.Repository
	logger   *zap.Logger
}

// NewPasswordAuthenticator creates a password authenticator
func NewPasswordAuthenticator(accounts account.Repository, logger *zap.Logger) *PasswordAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordAuthenticator{accounts: accounts, logger: logger}
}

// Authenticate returns the identity of the account when the password matches.
// The session name is the part of the email before '@'.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acc, err := a.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			a.logger.Warn("sign-in for unknown account", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account %s: %w", email, err)
	}
	if !acc.VerifyPassword(password) {
		a.logger.Warn("invalid password attempt", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		Subject:  acc.ID.String(),
		Name:     account.NameFromEmail(acc.Email),
		Email:    acc.Email,
		Provider: ProviderPassword,
	}, nil
}
