package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg config.SwaggerConfig, auth gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/swagger/*any", SwaggerProtection(cfg, auth), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSwaggerProtection(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	tests := []struct {
		name     string
		cfg      config.SwaggerConfig
		auth     gin.HandlerFunc
		remote   string
		expected int
	}{
		{"disabled", config.SwaggerConfig{}, nil, "10.0.0.1:1234", http.StatusNotFound},
		{"open", config.SwaggerConfig{Enabled: true}, nil, "10.0.0.1:1234", http.StatusOK},
		{"ip allowed by cidr", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, nil, "10.1.2.3:1234", http.StatusOK},
		{"ip allowed exactly", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.9"}}, nil, "192.168.0.9:1234", http.StatusOK},
		{"ip denied", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, nil, "172.16.0.1:1234", http.StatusForbidden},
		{"auth required", config.SwaggerConfig{Enabled: true, RequireAuth: true}, deny, "10.0.0.1:1234", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			swaggerRouter(tt.cfg, tt.auth).ServeHTTP(rec, req)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
