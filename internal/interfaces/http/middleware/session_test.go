package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func sessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(Session(SessionConfig{
		CookieName: "isow_sid",
		TTL:        time.Hour,
		Cookies:    NewCookies(config.CookieConfig{SameSite: "strict"}),
	}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })
	return r
}

func TestSession_IssuesCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	sessionRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	sid := rec.Body.String()
	require.NoError(t, uuid.Validate(sid))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "isow_sid", cookies[0].Name)
	assert.Equal(t, sid, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func TestSession_ReusesCookie(t *testing.T) {
	sid := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "isow_sid", Value: sid})
	rec := httptest.NewRecorder()
	sessionRouter().ServeHTTP(rec, req)

	assert.Equal(t, sid, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestSession_ReplacesMalformedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "isow_sid", Value: "../../etc"})
	rec := httptest.NewRecorder()
	sessionRouter().ServeHTTP(rec, req)

	assert.NotEqual(t, "../../etc", rec.Body.String())
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestLanguage(t *testing.T) {
	r := gin.New()
	r.Use(Language(i18n.Supported[0]))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetLanguage(c).String()) })

	tests := []struct {
		name, query, header string
		expected            language.Tag
	}{
		{"default", "", "", language.BrazilianPortuguese},
		{"header", "", "en-US,en;q=0.9", language.English},
		{"query wins", "lang=pt-BR", "en", language.BrazilianPortuguese},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.expected.String(), rec.Body.String())
		})
	}
}
