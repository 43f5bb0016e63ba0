package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/application/listview"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/interfaces/http/dto"
	"github.com/isow/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success sets the access cookie", func(t *testing.T) {
		f := newFixture(t)
		w := f.json(http.MethodPost, "/api/v1/auth/login", `{"email":"admin@isow.com","password":"secret123"}`)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[LoginResponse](t, w)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data.AccessToken)
		assert.Equal(t, "admin", resp.Data.User.Name)
		assert.Equal(t, "/dashboard", resp.Data.Redirect)
		assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.AccessTokenName+"=")
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		f := newFixture(t)
		w := f.json(http.MethodPost, "/api/v1/auth/login", `{"email":"admin@isow.com","password":"nope"}`)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, decode[any](t, w).Error.Code)
	})

	t.Run("missing fields are field errors", func(t *testing.T) {
		f := newFixture(t)
		w := f.json(http.MethodPost, "/api/v1/auth/login", `{"email":"not-an-email"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"email", "password"}, fields)
	})
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	f := newFixture(t)

	w := f.get("/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.signIn(t)
	w = f.get("/api/v1/auth/me")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@isow.com", decode[map[string]any](t, w).Data["email"])

	w = f.json(http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/", decode[RedirectData](t, w).Data.Redirect)

	w = f.get("/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_FederatedDisabled(t *testing.T) {
	f := newFixture(t)

	w := f.get("/api/v1/auth/oidc/login")
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = f.get("/api/v1/auth/oidc/callback?code=abc&state=xyz")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/?error=signin", w.Header().Get("Location"))
}

func TestOrganizationHandler_CRUD(t *testing.T) {
	f := newFixture(t)

	w := f.json(http.MethodPost, "/api/v1/organizations", `{"name":"Isow LTDA","email":"contato@isow.com","cnpj":"00.000.000/0001-00"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]string](t, w).Data
	id := created["id"]
	require.NotEmpty(t, id)

	w = f.get("/api/v1/organizations/" + id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Isow LTDA", decode[map[string]string](t, w).Data["name"])

	w = f.json(http.MethodPut, "/api/v1/organizations/"+id, `{"name":"Isow SA","email":"contato@isow.com","cnpj":"00.000.000/0001-00"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Isow SA", decode[map[string]string](t, w).Data["name"])

	w = f.get("/api/v1/organizations")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]string](t, w).Data, 1)

	w = f.json(http.MethodDelete, "/api/v1/organizations/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.get("/api/v1/organizations/" + id)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode[any](t, w).Error.Code)
}

func TestOrganizationHandler_CreateValidation(t *testing.T) {
	f := newFixture(t)

	w := f.json(http.MethodPost, "/api/v1/organizations", `{"name":"","email":"bad","cnpj":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 3)

	n, err := record.Count(context.Background(), f.store, record.CollectionCompanies)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDashboardHandler_Overview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.orgs.Create(ctx, validation.OrganizationInput{Name: "A", Email: "a@isow.com", CNPJ: "1"})
	require.NoError(t, err)

	w := f.get("/api/v1/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode[map[string]any](t, w).Data
	assert.EqualValues(t, 1, data["companies"])
	assert.EqualValues(t, 0, data["users"])
	assert.Len(t, data["pages"], 5)
}

func TestViewHandler_Flow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, err := f.orgs.Create(ctx, validation.OrganizationInput{Name: "Isow", Email: "a@isow.com", CNPJ: "1"})
	require.NoError(t, err)

	// the first snapshot starts loading
	w := f.get("/api/v1/views/companies")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[listview.Snapshot](t, w).Data
	assert.Equal(t, listview.ModeSkeleton, snap.Mode)

	require.Eventually(t, func() bool {
		v, _, err := f.views.Get(f.sessionID, listview.EntityCompanies)
		return err == nil && v.State() == listview.StateLoaded
	}, time.Second, 5*time.Millisecond)

	w = f.json(http.MethodPost, "/api/v1/views/companies/edit/"+org.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, listview.StateEditOpen, decode[listview.Snapshot](t, w).Data.State)

	w = f.json(http.MethodPost, "/api/v1/views/companies/edit/submit", `{"name":"","email":"a@isow.com","cnpj":"1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.json(http.MethodPost, "/api/v1/views/companies/edit/submit", `{"name":"Isow SA","email":"a@isow.com","cnpj":"1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap = decode[listview.Snapshot](t, w).Data
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, listview.NotificationSuccess, snap.Notifications[0].Kind)

	require.Eventually(t, func() bool {
		v, _, _ := f.views.Get(f.sessionID, listview.EntityCompanies)
		return v.State() == listview.StateLoaded
	}, time.Second, 5*time.Millisecond)

	w = f.json(http.MethodPost, "/api/v1/views/companies/delete/"+org.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, org.ID, decode[listview.Snapshot](t, w).Data.DeletingID)

	w = f.json(http.MethodPost, "/api/v1/views/companies/delete/confirm", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[listview.Snapshot](t, w).Data
	assert.Zero(t, snap.Count)
}

func TestViewHandler_Rejections(t *testing.T) {
	f := newFixture(t)

	w := f.get("/api/v1/views/invoices")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.json(http.MethodPost, "/api/v1/views/users/delete/confirm", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode[any](t, w).Error.Code)
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
	}{
		{
			name:   "all healthy",
			checks: map[string]Pinger{"records": PingerFunc(func(context.Context) error { return nil })},
			want:   http.StatusOK,
		},
		{
			name: "failing probe",
			checks: map[string]Pinger{
				"records":  PingerFunc(func(context.Context) error { return nil }),
				"database": PingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			want: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("ISOW Admin", "test", tt.checks)
			r := gin.New()
			r.GET("/health", h.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.want, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Checks, len(tt.checks))
			if tt.want != http.StatusOK {
				assert.True(t, strings.HasPrefix(resp.Checks["database"], "unhealthy"))
			}
		})
	}
}

func TestSystemHandler_InfoAndPing(t *testing.T) {
	h := NewSystemHandler("ISOW Admin", "1.2.3", nil)
	r := gin.New()
	r.GET("/system/info", h.GetSystemInfo)
	r.GET("/system/ping", h.Ping)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[SystemInfoResponse](t, w).Data
	assert.Equal(t, "ISOW Admin", info.Name)
	assert.Equal(t, "1.2.3", info.Version)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/ping", nil))
	assert.Equal(t, "pong", decode[PingResponse](t, w).Data.Message)
}
