package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "isow-admin"

type fakeIssuer struct {
	t      *testing.T
	srv    *httptest.Server
	key    *rsa.PrivateKey
	claims map[string]any
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIssuer{t: t, key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("/keys", f.keys)
	mux.HandleFunc("/token", f.token)
	mux.HandleFunc("/userinfo", f.userinfo)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(f.t, json.NewEncoder(w).Encode(v))
}

func (f *fakeIssuer) discovery(w http.ResponseWriter, _ *http.Request) {
	f.writeJSON(w, map[string]any{
		"issuer":                                f.srv.URL,
		"authorization_endpoint":                f.srv.URL + "/auth",
		"token_endpoint":                        f.srv.URL + "/token",
		"jwks_uri":                              f.srv.URL + "/keys",
		"userinfo_endpoint":                     f.srv.URL + "/userinfo",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (f *fakeIssuer) keys(w http.ResponseWriter, _ *http.Request) {
	f.writeJSON(w, map[string]any{"keys": []map[string]string{{
		"kty": "RSA",
		"kid": "k1",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(f.key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(f.key.E)).Bytes()),
	}}})
}

func (f *fakeIssuer) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	if r.Form.Get("code") != "good-code" || r.Form.Get("code_verifier") == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": f.srv.URL,
		"aud": testClientID,
		"sub": "user-1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range f.claims {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	idToken, err := tok.SignedString(f.key)
	require.NoError(f.t, err)

	f.writeJSON(w, map[string]any{
		"access_token": "access-1",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     idToken,
	})
}

func (f *fakeIssuer) userinfo(w http.ResponseWriter, _ *http.Request) {
	f.writeJSON(w, map[string]any{
		"sub":     "user-1",
		"name":    "Maria Souza",
		"email":   "maria@isow.com",
		"picture": "https://cdn.isow.com/maria.png",
	})
}

func (f *fakeIssuer) provider(t *testing.T) *OIDCProvider {
	t.Helper()
	p, err := NewOIDCProvider(context.Background(), config.OIDCConfig{
		Issuer:      f.srv.URL,
		ClientID:    testClientID,
		RedirectURL: "http://localhost:8080/api/v1/auth/oidc/callback",
	}, WithOIDCHTTPClient(f.srv.Client()))
	require.NoError(t, err)
	return p
}

func TestNewOIDCProvider_RequiresSettings(t *testing.T) {
	_, err := NewOIDCProvider(context.Background(), config.OIDCConfig{Issuer: "http://idp"})
	assert.Error(t, err)
}

func TestOIDCProvider_Begin(t *testing.T) {
	p := newFakeIssuer(t).provider(t)

	req, err := p.Begin()
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/auth", u.Path)
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, req.Nonce, q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Contains(t, q.Get("scope"), "openid")
	assert.NotEqual(t, req.State, req.Nonce)
	assert.NotEmpty(t, req.Verifier)
}

func TestOIDCProvider_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("profile from id_token", func(t *testing.T) {
		issuer := newFakeIssuer(t)
		issuer.claims = map[string]any{"nonce": "n1", "name": "Admin", "email": "admin@isow.com"}
		p := issuer.provider(t)

		id, err := p.Exchange(ctx, "good-code", "verifier", "n1")
		require.NoError(t, err)
		assert.Equal(t, &Identity{Subject: "user-1", Name: "Admin", Email: "admin@isow.com", Provider: ProviderOIDC}, id)
	})

	t.Run("falls back to userinfo", func(t *testing.T) {
		issuer := newFakeIssuer(t)
		issuer.claims = map[string]any{"nonce": "n1"}
		p := issuer.provider(t)

		id, err := p.Exchange(ctx, "good-code", "verifier", "n1")
		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", id.Name)
		assert.Equal(t, "maria@isow.com", id.Email)
		assert.Equal(t, "https://cdn.isow.com/maria.png", id.Picture)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		issuer := newFakeIssuer(t)
		issuer.claims = map[string]any{"nonce": "other", "email": "a@isow.com", "name": "a"}
		p := issuer.provider(t)

		_, err := p.Exchange(ctx, "good-code", "verifier", "n1")
		assert.ErrorIs(t, err, ErrFederatedSignIn)
	})

	t.Run("rejected code", func(t *testing.T) {
		p := newFakeIssuer(t).provider(t)

		_, err := p.Exchange(ctx, "bad-code", "verifier", "n1")
		assert.ErrorIs(t, err, ErrFederatedSignIn)
	})
}
