// Package identity adapts the sign-in providers: an OpenID Connect issuer
// using the authorization code flow with PKCE, and local password accounts.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Provider names carried in access tokens
const (
	ProviderOIDC     = "oidc"
	ProviderPassword = "password"
)

// ErrFederatedSignIn is returned when the code exchange or token checks fail
var ErrFederatedSignIn = shared.NewDomainError("UNAUTHORIZED", "Federated sign-in failed")

// Identity is the signed-in person as reported by a provider
type Identity struct {
	Subject  string
	Name     string
	Email    string
	Picture  string
	Provider string
}

// AuthRequest is a started authorization. State, Nonce and Verifier must be
// kept by the browser (cookie) until the callback.
type AuthRequest struct {
	URL      string
	State    string
	Nonce    string
	Verifier string
}

// OIDCProvider signs people in through an OpenID Connect issuer
type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
	client   *http.Client
	logger   *zap.Logger
}

// OIDCOption configures an OIDCProvider
type OIDCOption func(*OIDCProvider)

// WithOIDCHTTPClient sets the client used for discovery, exchange and userinfo
func WithOIDCHTTPClient(client *http.Client) OIDCOption {
	return func(p *OIDCProvider) { p.client = client }
}

// WithOIDCLogger sets the logger
func WithOIDCLogger(logger *zap.Logger) OIDCOption {
	return func(p *OIDCProvider) { p.logger = logger }
}

// NewOIDCProvider discovers the issuer and prepares the client
func NewOIDCProvider(ctx context.Context, cfg config.OIDCConfig, opts ...OIDCOption) (*OIDCProvider, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("oidc: issuer, client id and redirect url are required")
	}
	p := &OIDCProvider{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	provider, err := oidc.NewProvider(p.clientContext(ctx), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", cfg.Issuer, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"profile", "email"}
	}
	p.provider = provider
	p.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	p.oauth = oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       append([]string{oidc.ScopeOpenID}, scopes...),
	}
	return p, nil
}

func (p *OIDCProvider) clientContext(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.client)
}

// Begin starts an authorization with a fresh state, nonce and PKCE verifier
func (p *OIDCProvider) Begin() (*AuthRequest, error) {
	state, err := randomToken()
	if err != nil {
		return nil, err
	}
	nonce, err := randomToken()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	return &AuthRequest{
		URL:      p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier), oidc.Nonce(nonce)),
		State:    state,
		Nonce:    nonce,
		Verifier: verifier,
	}, nil
}

type profileClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Exchange redeems the authorization code and verifies the id_token.
// Missing name or email claims are filled from the userinfo endpoint.
func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier, nonce string) (*Identity, error) {
	ctx = p.clientContext(ctx)

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, ErrFederatedSignIn.WithCause(fmt.Errorf("code exchange: %w", err))
	}
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, ErrFederatedSignIn.WithCause(errors.New("token response has no id_token"))
	}
	idToken, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, ErrFederatedSignIn.WithCause(fmt.Errorf("verify id_token: %w", err))
	}
	if idToken.Nonce != nonce {
		return nil, ErrFederatedSignIn.WithCause(errors.New("id_token nonce mismatch"))
	}

	var claims profileClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, ErrFederatedSignIn.WithCause(fmt.Errorf("decode id_token claims: %w", err))
	}

	if claims.Name == "" || claims.Email == "" {
		info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if err != nil {
			p.logger.Warn("userinfo lookup failed", zap.String("subject", idToken.Subject), zap.Error(err))
		} else {
			var extra profileClaims
			if err := info.Claims(&extra); err == nil {
				claims = mergeProfile(claims, extra)
			}
			if claims.Email == "" {
				claims.Email = info.Email
			}
		}
	}
	if claims.Email == "" {
		return nil, ErrFederatedSignIn.WithCause(errors.New("provider returned no email"))
	}

	return &Identity{
		Subject:  idToken.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Picture:  claims.Picture,
		Provider: ProviderOIDC,
	}, nil
}

func mergeProfile(primary, fallback profileClaims) profileClaims {
	if primary.Name == "" {
		primary.Name = fallback.Name
	}
	if primary.Email == "" {
		primary.Email = fallback.Email
	}
	if primary.Picture == "" {
		primary.Picture = fallback.Picture
	}
	return primary
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
