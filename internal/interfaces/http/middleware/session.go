package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/isow/backend/internal/infrastructure/logger"
	"golang.org/x/text/language"
)

// Session context keys
const (
	// SessionIDKey holds the browser session ID
	SessionIDKey = "session_id"
	// SessionIssuedKey is true when the request came without a valid session cookie
	SessionIssuedKey = "session_issued"

	sessionCookieKey = "session_cookie"
)

// Cookies writes cookies with the configured domain, path and flags
type Cookies struct {
	cfg config.CookieConfig
}

// NewCookies creates a cookie writer
func NewCookies(cfg config.CookieConfig) *Cookies {
	return &Cookies{cfg: cfg}
}

// Set writes an HTTP-only cookie that lives for ttl. A cookie of the same
// name already set on the response is replaced.
func (k *Cookies) Set(c *gin.Context, name, value string, ttl time.Duration) {
	h := c.Writer.Header()
	if prior := h["Set-Cookie"]; len(prior) > 0 {
		h["Set-Cookie"] = slices.DeleteFunc(prior, func(v string) bool { return strings.HasPrefix(v, name+"=") })
	}
	c.SetSameSite(parseSameSite(k.cfg.SameSite))
	c.SetCookie(name, value, int(ttl.Seconds()), k.path(), k.cfg.Domain, k.cfg.Secure, true)
}

// Clear expires a cookie
func (k *Cookies) Clear(c *gin.Context, name string) {
	c.SetSameSite(parseSameSite(k.cfg.SameSite))
	c.SetCookie(name, "", -1, k.path(), k.cfg.Domain, k.cfg.Secure, true)
}

func (k *Cookies) path() string {
	if k.cfg.Path == "" {
		return "/"
	}
	return k.cfg.Path
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SessionConfig holds configuration for the session cookie middleware
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Cookies    *Cookies
}

// Session makes sure every request carries a browser session ID. A missing
// or malformed cookie gets a fresh ID.
func Session(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = session.NewSessionID()
			cfg.Cookies.Set(c, cfg.CookieName, sid, cfg.TTL)
			c.Set(SessionIssuedKey, true)
			c.Set(sessionCookieKey, cfg)
		}
		bindSession(c, sid)
		c.Next()
	}
}

// AdoptSession moves a request that was issued a fresh session over to sid.
// The issued cookie is rewritten so the client keeps sid from now on.
func AdoptSession(c *gin.Context, sid string) {
	if v, ok := c.Get(sessionCookieKey); ok {
		cfg := v.(SessionConfig)
		cfg.Cookies.Set(c, cfg.CookieName, sid, cfg.TTL)
	}
	c.Set(SessionIssuedKey, false)
	bindSession(c, sid)
}

func bindSession(c *gin.Context, sid string) {
	c.Set(SessionIDKey, sid)
	ctx, reqLogger := logger.WithSessionID(c.Request.Context(), logger.GetGinLogger(c), sid)
	c.Request = c.Request.WithContext(ctx)
	c.Set("logger", reqLogger)
}

// GetSessionID returns the browser session ID of the request
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// LanguageKey is the gin context key holding the negotiated language
const LanguageKey = "language"

// Language negotiates the message language from the lang query parameter or
// Accept-Language, and stores it on the request context
func Language(fallback language.Tag) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag := fallback
		if q := c.Query("lang"); q != "" {
			tag = i18n.Parse(q)
		} else if h := c.GetHeader("Accept-Language"); h != "" {
			tag = i18n.FromAcceptLanguage(h, fallback)
		}
		c.Set(LanguageKey, tag)
		c.Request = c.Request.WithContext(i18n.WithLanguage(c.Request.Context(), tag))
		c.Next()
	}
}

// GetLanguage returns the negotiated language of the request
func GetLanguage(c *gin.Context) language.Tag {
	return i18n.FromContext(c.Request.Context())
}
