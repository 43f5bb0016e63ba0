package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	appauth "github.com/isow/backend/internal/application/auth"
	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Federated sign-in cookie
const (
	oidcCookieName = "isow_oidc"
	oidcCookieTTL  = 10 * time.Minute
)

// AuthHandler handles sign-in and sign-out
type AuthHandler struct {
	BaseHandler
	auth    *appauth.Service
	cookies *middleware.Cookies
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *appauth.Service, cookies *middleware.Cookies, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, logger: logger}
}

// LoginResponse is a successful sign-in
// @name HandlerLoginResponse
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        session.User `json:"user"`
	Redirect    string       `json:"redirect" example:"/dashboard"`
}

// Login godoc
// @ID           loginAuth
// @Summary      Sign in with e-mail and password
// @Description  Checks the credentials, stores the session user and issues an access token. The token is also set as the access_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body validation.SignInInput true "Credentials"
// @Success      200 {object} APIResponse[LoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req validation.SignInInput
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.auth.SignInWithPassword(c.Request.Context(), middleware.GetSessionID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.setAccessCookie(c, result)
	h.Success(c, toLoginResponse(result))
}

// OIDCLogin godoc
// @ID           oidcLoginAuth
// @Summary      Start federated sign-in
// @Description  Redirects to the identity provider. State, nonce and PKCE verifier travel in a short-lived cookie.
// @Tags         auth
// @Success      302
// @Failure      501 {object} ErrorResponse
// @Router       /auth/oidc/login [get]
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	req, err := h.auth.BeginFederated(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.Set(c, oidcCookieName, strings.Join([]string{req.State, req.Verifier, req.Nonce}, "."), oidcCookieTTL)
	c.Redirect(http.StatusFound, req.URL)
}

// OIDCCallback godoc
// @ID           oidcCallbackAuth
// @Summary      Finish federated sign-in
// @Description  Redeems the authorization code, signs the session in and redirects to the dashboard
// @Tags         auth
// @Param        code  query string true "Authorization code"
// @Param        state query string true "State"
// @Success      302
// @Failure      302
// @Router       /auth/oidc/callback [get]
func (h *AuthHandler) OIDCCallback(c *gin.Context) {
	raw, _ := c.Cookie(oidcCookieName)
	h.cookies.Clear(c, oidcCookieName)

	parts := strings.Split(raw, ".")
	if len(parts) != 3 || c.Query("state") != parts[0] || c.Query("code") == "" {
		h.logger.Warn("federated callback rejected",
			zap.String("idp_error", c.Query("error")),
			zap.Bool("state_match", len(parts) == 3 && c.Query("state") == parts[0]))
		c.Redirect(http.StatusFound, session.HomeRoute+"?error=signin")
		return
	}

	result, err := h.auth.CompleteFederated(c.Request.Context(), middleware.GetSessionID(c), c.Query("code"), parts[1], parts[2])
	if err != nil {
		c.Redirect(http.StatusFound, session.HomeRoute+"?error=signin")
		return
	}
	h.setAccessCookie(c, result)
	c.Redirect(http.StatusFound, result.Redirect)
}

// Logout godoc
// @ID           logoutAuth
// @Summary      Sign out
// @Description  Revokes the access token, clears the session user and drops the session's list views
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[RedirectData]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	route, err := h.signOut(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RedirectData{Redirect: route})
}

// Me godoc
// @ID           meAuth
// @Summary      Current session user
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[session.User]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := h.auth.CurrentUser(c.Request.Context(), middleware.GetSessionID(c))
	if user.IsZero() {
		h.Unauthorized(c, "No user is signed in")
		return
	}
	h.Success(c, user)
}

func (h *AuthHandler) signOut(c *gin.Context) (string, error) {
	route, err := h.auth.SignOut(c.Request.Context(), middleware.GetSessionID(c), middleware.ExtractToken(c))
	h.cookies.Clear(c, middleware.AccessTokenName)
	return route, err
}

func (h *AuthHandler) setAccessCookie(c *gin.Context, result *appauth.SignInResult) {
	h.cookies.Set(c, middleware.AccessTokenName, result.Token.Token, time.Until(result.Token.ExpiresAt))
}

func toLoginResponse(result *appauth.SignInResult) LoginResponse {
	return LoginResponse{
		AccessToken: result.Token.Token,
		TokenType:   result.Token.TokenType,
		ExpiresAt:   result.Token.ExpiresAt,
		User:        result.User,
		Redirect:    result.Redirect,
	}
}
