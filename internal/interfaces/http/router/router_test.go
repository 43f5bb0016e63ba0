package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterMiddlewareOrder(t *testing.T) {
	engine := gin.New()
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	group := NewDomainGroup("test", "/test").Use(mark("group"))
	group.GET("/x", func(c *gin.Context) {
		order = append(order, "handler")
		c.Status(http.StatusNoContent)
	})
	NewRouter(engine).Use(mark("api")).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/x", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"api", "group", "handler"}, order)
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("views", "/views/:entity")
		assert.Equal(t, "views", g.Name())
		assert.Equal(t, "/views/:entity", g.Prefix())
	})

	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	for _, method := range methods {
		t.Run("registers "+method+" route", func(t *testing.T) {
			engine := gin.New()
			g := NewDomainGroup("test", "/test")
			g.Handle(method, "/items/:id", func(c *gin.Context) {
				c.String(http.StatusOK, c.Param("id"))
			})
			g.RegisterRoutes(engine.Group("/api/v1"))

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/test/items/42", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "42", w.Body.String())
		})
	}

	t.Run("registers subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("views", "/views/:entity")
		edit := g.Group("edit", "/edit")
		edit.POST("/submit", func(c *gin.Context) { c.String(http.StatusOK, "submit "+c.Param("entity")) })
		edit.POST("/:id", func(c *gin.Context) { c.String(http.StatusOK, "open "+c.Param("id")) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/views/users/edit/submit", nil))
		assert.Equal(t, "submit users", w.Body.String())

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/views/users/edit/abc", nil))
		assert.Equal(t, "open abc", w.Body.String())
	})
}

func TestAPIGroupsRoutes(t *testing.T) {
	var routes []Route
	for _, g := range APIGroups(Handlers{}, nil) {
		routes = append(routes, g.Routes()...)
	}

	index := make(map[string]bool, len(routes))
	for _, r := range routes {
		index[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /auth/login",
		"GET /auth/oidc/login",
		"GET /auth/oidc/callback",
		"POST /auth/logout",
		"GET /auth/me",
		"GET /organizations",
		"POST /organizations",
		"GET /organizations/:id",
		"PUT /organizations/:id",
		"DELETE /organizations/:id",
		"GET /individuals",
		"POST /individuals",
		"GET /individuals/:id",
		"PUT /individuals/:id",
		"DELETE /individuals/:id",
		"GET /views/:entity",
		"POST /views/:entity/refresh",
		"POST /views/:entity/edit/:id",
		"POST /views/:entity/edit/submit",
		"POST /views/:entity/edit/cancel",
		"POST /views/:entity/delete/:id",
		"POST /views/:entity/delete/confirm",
		"POST /views/:entity/delete/cancel",
		"GET /dashboard",
	} {
		assert.True(t, index[want], "missing route %s", want)
	}

	for _, p := range PublicPaths {
		found := false
		for _, r := range routes {
			found = found || r.Path == p
		}
		require.True(t, found, "public path %s is not routed", p)
	}
}
