package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appauth "github.com/isow/backend/internal/application/auth"
	"github.com/isow/backend/internal/application/dashboard"
	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/listview"
	"github.com/isow/backend/internal/application/session"
	infraauth "github.com/isow/backend/internal/infrastructure/auth"
	"github.com/isow/backend/internal/infrastructure/cache"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/isow/backend/internal/infrastructure/identity"
	"github.com/isow/backend/internal/infrastructure/recordstore"
	"github.com/isow/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testEmail    = "admin@isow.com"
	testPassword = "secret123"
	cookieName   = "isow_session"
)

type staticPasswords struct{}

func (staticPasswords) Authenticate(_ context.Context, email, password string) (*identity.Identity, error) {
	if email != testEmail || password != testPassword {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Identity{Subject: email, Email: email, Provider: identity.ProviderPassword}, nil
}

type fixture struct {
	engine    *gin.Engine
	store     *recordstore.MemoryStore
	orgs      *directory.OrganizationService
	people    *directory.IndividualService
	views     *listview.Registry
	auth      *appauth.Service
	sessionID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newSettledFixture(t, 0)
}

// newSettledFixture keeps list views loading for settle after each fetch
func newSettledFixture(t *testing.T, settle time.Duration) *fixture {
	t.Helper()
	logger := zap.NewNop()

	store := recordstore.NewMemoryStore()
	orgs := directory.NewOrganizationService(store, nil, logger)
	people := directory.NewIndividualService(store, nil, logger)
	views := listview.NewRegistry(listview.DirectoryFactories(orgs, people, settle, logger), time.Hour, logger)
	t.Cleanup(func() { views.Stop(context.Background()) })

	storage := cache.NewInMemorySessionStorage()
	t.Cleanup(func() { _ = storage.Close() })
	authSvc := appauth.NewService(appauth.Deps{
		Sessions:  session.NewManager(storage, "", time.Hour, logger),
		Passwords: staticPasswords{},
		Tokens: infraauth.NewJWTService(config.JWTConfig{
			Secret:                "handler-test-secret-with-enough-length",
			AccessTokenExpiration: time.Hour,
			Issuer:                "isow-test",
		}),
		Views:  views,
		Logger: logger,
	})
	cookies := middleware.NewCookies(config.CookieConfig{})

	tmpl, err := LoadTemplates("")
	require.NoError(t, err)

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(
		middleware.Session(middleware.SessionConfig{CookieName: cookieName, TTL: time.Hour, Cookies: cookies}),
		middleware.Language(i18n.Supported[0]),
	)

	authHandler := NewAuthHandler(authSvc, cookies, logger)
	orgHandler := NewOrganizationHandler(orgs)
	viewHandler := NewViewHandler(views)
	dashHandler := NewDashboardHandler(dashboard.NewService(people, orgs))

	api := engine.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/oidc/login", authHandler.OIDCLogin)
	api.GET("/auth/oidc/callback", authHandler.OIDCCallback)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)
	api.GET("/organizations", orgHandler.List)
	api.POST("/organizations", orgHandler.Create)
	api.GET("/organizations/:id", orgHandler.Get)
	api.PUT("/organizations/:id", orgHandler.Update)
	api.DELETE("/organizations/:id", orgHandler.Delete)
	api.GET("/dashboard", dashHandler.Overview)
	api.GET("/views/:entity", viewHandler.Snapshot)
	api.POST("/views/:entity/refresh", viewHandler.Refresh)
	api.POST("/views/:entity/edit/submit", viewHandler.SubmitEdit)
	api.POST("/views/:entity/edit/cancel", viewHandler.CancelEdit)
	api.POST("/views/:entity/edit/:id", viewHandler.OpenEdit)
	api.POST("/views/:entity/delete/confirm", viewHandler.ConfirmDelete)
	api.POST("/views/:entity/delete/cancel", viewHandler.CancelDelete)
	api.POST("/views/:entity/delete/:id", viewHandler.RequestDelete)

	pages := NewPageHandler(PageDeps{
		Auth:          authSvc,
		Dashboard:     dashboard.NewService(people, orgs),
		Views:         views,
		Organizations: orgs,
		Individuals:   people,
		Cookies:       cookies,
		Logger:        logger,
	})
	engine.GET("/", pages.Home)
	engine.POST("/login", pages.Login)
	engine.POST("/logout", pages.Logout)
	private := engine.Group("", pages.RequireUser)
	private.GET("/dashboard", pages.Dashboard)
	pages.MountList(private, listview.EntityCompanies)
	pages.MountList(private, listview.EntityUsers)

	return &fixture{
		engine:    engine,
		store:     store,
		orgs:      orgs,
		people:    people,
		views:     views,
		auth:      authSvc,
		sessionID: uuid.NewString(),
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: f.sessionID})
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) json(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.do(req)
}

func (f *fixture) form(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	w := f.json(http.MethodPost, "/api/v1/auth/login", `{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
