package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appauth "github.com/isow/backend/internal/application/auth"
	"github.com/isow/backend/internal/application/dashboard"
	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/listview"
	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/infrastructure/logger"
	"github.com/isow/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageUserKey = "page_user"

// TemplateFuncs are the helpers available to page templates
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"t": func(lang language.Tag, key string) string { return i18n.T(lang, key) },
		"lang": func(lang language.Tag) string { return lang.String() },
	}
}

// LoadTemplates parses the page templates. An empty glob uses the
// templates built into the binary.
func LoadTemplates(glob string) (*template.Template, error) {
	root := template.New("pages").Funcs(TemplateFuncs())
	if glob != "" {
		return root.ParseGlob(glob)
	}
	return root.ParseFS(templateFS, "templates/*.html")
}

type formField struct {
	Name  string
	Label string
	Type  string
}

type tableRow struct {
	ID    string
	Cells []string
}

// listPage describes the pages of one list entity
type listPage struct {
	Entity        string
	Path          string
	Title         string
	CreateLabel   string
	EditTitle     string
	RemoveTitle   string
	ConfirmRemove string
	Columns       []string
	Fields        []formField

	rows         func(items any) []tableRow
	values       func(form any) map[string]string
	create       func(ctx context.Context, c *gin.Context) error
	created      [2]string
	createFailed string
}

type pageData struct {
	Lang          language.Tag
	Title         string
	Path          string
	User          session.User
	Federated     bool
	Notifications []listview.Notification
	Errors        map[string]string
	Values        map[string]string
	Overview      *dashboard.Overview
	List          *listPage
	Snapshot      *listview.Snapshot
	Rows          []tableRow
	Loading       bool
}

// PageHandler serves the server-rendered pages. They drive the same
// services and list views as the JSON API.
type PageHandler struct {
	auth      *appauth.Service
	dashboard *dashboard.Service
	views     *listview.Registry
	cookies   *middleware.Cookies
	lists     map[string]*listPage
	logger    *zap.Logger
}

// PageDeps are the collaborators of the page handler
type PageDeps struct {
	Auth          *appauth.Service
	Dashboard     *dashboard.Service
	Views         *listview.Registry
	Organizations *directory.OrganizationService
	Individuals   *directory.IndividualService
	Cookies       *middleware.Cookies
	Logger        *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(deps PageDeps) *PageHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &PageHandler{
		auth:      deps.Auth,
		dashboard: deps.Dashboard,
		views:     deps.Views,
		cookies:   deps.Cookies,
		lists: map[string]*listPage{
			listview.EntityCompanies: companiesPage(deps.Organizations),
			listview.EntityUsers:     usersPage(deps.Individuals),
		},
		logger: deps.Logger,
	}
}

func companiesPage(svc *directory.OrganizationService) *listPage {
	return &listPage{
		Entity:        listview.EntityCompanies,
		Path:          "/companies",
		Title:         i18n.LabelCompanies,
		CreateLabel:   i18n.LabelRegisterCompany,
		EditTitle:     i18n.LabelEditCompany,
		RemoveTitle:   i18n.LabelRemoveCompany,
		ConfirmRemove: i18n.LabelConfirmRemoveComp,
		Columns:       []string{i18n.LabelCompanyName, i18n.LabelEmail, i18n.LabelCNPJ},
		Fields: []formField{
			{Name: "name", Label: i18n.LabelCompanyName, Type: "text"},
			{Name: "email", Label: i18n.LabelEmail, Type: "email"},
			{Name: "cnpj", Label: i18n.LabelCNPJ, Type: "text"},
		},
		rows: func(items any) []tableRow {
			list, _ := items.([]directory.OrganizationResponse)
			rows := make([]tableRow, 0, len(list))
			for _, o := range list {
				rows = append(rows, tableRow{ID: o.ID, Cells: []string{o.Name, o.Email, o.CNPJ}})
			}
			return rows
		},
		values: func(form any) map[string]string {
			f, ok := form.(validation.OrganizationInput)
			if !ok {
				return nil
			}
			return map[string]string{"name": f.Name, "email": f.Email, "cnpj": f.CNPJ}
		},
		create: func(ctx context.Context, c *gin.Context) error {
			var in validation.OrganizationInput
			if err := c.ShouldBind(&in); err != nil {
				return err
			}
			_, err := svc.Create(ctx, in)
			return err
		},
		created:      [2]string{i18n.MsgCompanyCreatedTitle, i18n.MsgCompanyCreatedBody},
		createFailed: i18n.MsgCompanyCreateFailed,
	}
}

func usersPage(svc *directory.IndividualService) *listPage {
	return &listPage{
		Entity:        listview.EntityUsers,
		Path:          "/users",
		Title:         i18n.LabelUsers,
		CreateLabel:   i18n.LabelCreateUser,
		EditTitle:     i18n.LabelEditUser,
		RemoveTitle:   i18n.LabelRemoveUser,
		ConfirmRemove: i18n.LabelConfirmRemoveUser,
		Columns:       []string{i18n.LabelFullName, i18n.LabelEmail, i18n.LabelCPF, i18n.LabelCNPJ},
		Fields: []formField{
			{Name: "name", Label: i18n.LabelFullName, Type: "text"},
			{Name: "email", Label: i18n.LabelEmail, Type: "email"},
			{Name: "cpf", Label: i18n.LabelCPF, Type: "text"},
			{Name: "cnpj", Label: i18n.LabelCNPJ, Type: "text"},
		},
		rows: func(items any) []tableRow {
			list, _ := items.([]directory.IndividualResponse)
			rows := make([]tableRow, 0, len(list))
			for _, i := range list {
				rows = append(rows, tableRow{ID: i.ID, Cells: []string{i.Name, i.Email, i.CPF, i.CNPJ}})
			}
			return rows
		},
		values: func(form any) map[string]string {
			f, ok := form.(validation.IndividualInput)
			if !ok {
				return nil
			}
			return map[string]string{"name": f.Name, "email": f.Email, "cpf": f.CPF, "cnpj": f.CNPJ}
		},
		create: func(ctx context.Context, c *gin.Context) error {
			var in validation.IndividualInput
			if err := c.ShouldBind(&in); err != nil {
				return err
			}
			_, err := svc.Create(ctx, in)
			return err
		},
		created:      [2]string{i18n.MsgUserCreatedTitle, i18n.MsgUserCreatedBody},
		createFailed: i18n.MsgUserCreateFailed,
	}
}

// RequireUser sends visitors without a signed-in session to the sign-in page
func (h *PageHandler) RequireUser(c *gin.Context) {
	user := h.auth.CurrentUser(c.Request.Context(), middleware.GetSessionID(c))
	if user.IsZero() {
		c.Redirect(http.StatusSeeOther, session.HomeRoute)
		c.Abort()
		return
	}
	c.Set(pageUserKey, user)
	c.Next()
}

// Home renders the sign-in page, or moves signed-in users to the dashboard
func (h *PageHandler) Home(c *gin.Context) {
	if !h.auth.CurrentUser(c.Request.Context(), middleware.GetSessionID(c)).IsZero() {
		c.Redirect(http.StatusSeeOther, appauth.DashboardRoute)
		return
	}
	data := h.data(c, i18n.LabelSignIn)
	if c.Query("error") != "" {
		data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationError, i18n.MsgSignInFailedTitle, i18n.MsgSignInFailedBody))
	}
	c.HTML(http.StatusOK, "login.html", data)
}

// Login signs the session in from the sign-in form
func (h *PageHandler) Login(c *gin.Context) {
	var in validation.SignInInput
	if err := c.ShouldBind(&in); err != nil {
		logger.GetGinLogger(c).Debug("unreadable sign-in form", zap.Error(err))
		data := h.data(c, i18n.LabelSignIn)
		data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationError, i18n.MsgSignInFailedTitle, i18n.MsgSignInFailedBody))
		c.HTML(http.StatusBadRequest, "login.html", data)
		return
	}

	result, err := h.auth.SignInWithPassword(c.Request.Context(), middleware.GetSessionID(c), in)
	if err != nil {
		data := h.data(c, i18n.LabelSignIn)
		data.Values = map[string]string{"email": in.Email}
		status := http.StatusUnauthorized
		if fieldErrs, ok := validation.AsErrors(err); ok {
			data.Errors = fieldErrs.Map()
			status = http.StatusBadRequest
		} else {
			if !appauth.IsInvalidCredentials(err) {
				logger.GetGinLogger(c).Error("sign-in failed", zap.Error(err))
				status = http.StatusInternalServerError
			}
			data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationError, i18n.MsgSignInFailedTitle, i18n.MsgSignInFailedBody))
		}
		c.HTML(status, "login.html", data)
		return
	}

	h.cookies.Set(c, middleware.AccessTokenName, result.Token.Token, time.Until(result.Token.ExpiresAt))
	c.Redirect(http.StatusSeeOther, result.Redirect+"?signed_in=1")
}

// Logout signs the session out and returns to the sign-in page
func (h *PageHandler) Logout(c *gin.Context) {
	route, err := h.auth.SignOut(c.Request.Context(), middleware.GetSessionID(c), middleware.ExtractToken(c))
	h.cookies.Clear(c, middleware.AccessTokenName)
	if err != nil {
		logger.GetGinLogger(c).Warn("sign-out failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, route)
}

// Dashboard renders the counts and the static widgets
func (h *PageHandler) Dashboard(c *gin.Context) {
	data := h.data(c, i18n.LabelDashboard)
	if c.Query("signed_in") != "" {
		data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationSuccess, i18n.MsgSignInSucceededTitle, i18n.MsgSignInSucceededBody))
	}

	overview, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		logger.GetGinLogger(c).Error("dashboard overview failed", zap.Error(err))
		data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationError, i18n.MsgLoadFailedTitle, i18n.MsgLoadFailedBody))
		c.HTML(http.StatusServiceUnavailable, "dashboard.html", data)
		return
	}
	data.Overview = overview
	c.HTML(http.StatusOK, "dashboard.html", data)
}

// List renders the list page of entity. A view that never loaded is
// loaded before rendering.
func (h *PageHandler) List(entity string) gin.HandlerFunc {
	page := h.lists[entity]
	return func(c *gin.Context) {
		view, _, err := h.views.Get(middleware.GetSessionID(c), entity)
		if err != nil {
			h.fail(c, err)
			return
		}
		if view.State() == listview.StateIdle {
			if err := view.Refresh(c.Request.Context()); err != nil {
				logger.GetGinLogger(c).Warn("initial load failed", zap.String("entity", entity), zap.Error(err))
			}
		}
		h.renderList(c, http.StatusOK, page, view, nil, nil)
	}
}

// Action runs a list view action and redirects back to the list page.
// Rejected actions re-render the list with the error.
func (h *PageHandler) Action(entity string, action func(c *gin.Context, v listview.View) error) gin.HandlerFunc {
	page := h.lists[entity]
	return func(c *gin.Context) {
		view, _, err := h.views.Get(middleware.GetSessionID(c), entity)
		if err != nil {
			h.fail(c, err)
			return
		}
		if err := action(c, view); err != nil && isViewRejection(err) {
			status := http.StatusConflict
			var fieldErrs validation.Errors
			var values map[string]string
			switch {
			case errors.As(err, &fieldErrs):
				status = http.StatusBadRequest
				values = postedValues(c, page.Fields)
			case errors.Is(err, shared.ErrNotFound):
				status = http.StatusNotFound
			case errors.Is(err, listview.ErrClosed):
				status = http.StatusGone
			}
			logger.GetGinLogger(c).Debug("list action rejected", zap.String("entity", entity), zap.Error(err))
			h.renderList(c, status, page, view, fieldErrs.Map(), values)
			return
		}
		c.Redirect(http.StatusSeeOther, page.Path)
	}
}

// MountList registers the list, create and action routes of entity under
// its path. r is expected to require a signed-in user.
func (h *PageHandler) MountList(r gin.IRouter, entity string) {
	page := h.lists[entity]
	g := r.Group(page.Path)
	g.GET("", h.List(entity))
	g.GET("/create", h.CreateForm(entity))
	g.POST("/create", h.Create(entity))
	g.POST("/refresh", h.Action(entity, func(c *gin.Context, v listview.View) error {
		return v.Refresh(c.Request.Context())
	}))
	g.POST("/edit/submit", h.Action(entity, func(c *gin.Context, v listview.View) error {
		return v.SubmitEditFrom(c.Request.Context(), c.ShouldBind)
	}))
	g.POST("/edit/cancel", h.Action(entity, func(_ *gin.Context, v listview.View) error {
		v.CancelEdit()
		return nil
	}))
	g.POST("/edit/:id", h.Action(entity, func(c *gin.Context, v listview.View) error {
		return v.OpenEdit(c.Param("id"))
	}))
	g.POST("/delete/confirm", h.Action(entity, func(c *gin.Context, v listview.View) error {
		return v.ConfirmDelete(c.Request.Context())
	}))
	g.POST("/delete/cancel", h.Action(entity, func(_ *gin.Context, v listview.View) error {
		v.CancelDelete()
		return nil
	}))
	g.POST("/delete/:id", h.Action(entity, func(c *gin.Context, v listview.View) error {
		return v.RequestDelete(c.Param("id"))
	}))
}

// CreateForm renders the create form of entity
func (h *PageHandler) CreateForm(entity string) gin.HandlerFunc {
	page := h.lists[entity]
	return func(c *gin.Context) {
		data := h.data(c, page.CreateLabel)
		data.List = page
		c.HTML(http.StatusOK, "create.html", data)
	}
}

// Create stores a new record from the create form. On success the list
// view gets the created toast and the browser goes to the list page.
func (h *PageHandler) Create(entity string) gin.HandlerFunc {
	page := h.lists[entity]
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		err := page.create(ctx, c)
		if err == nil {
			h.afterCreate(c, page)
			c.Redirect(http.StatusSeeOther, page.Path)
			return
		}

		data := h.data(c, page.CreateLabel)
		data.List = page
		data.Values = postedValues(c, page.Fields)
		status := http.StatusBadRequest
		if fieldErrs, ok := validation.AsErrors(err); ok {
			data.Errors = fieldErrs.Map()
		} else {
			logger.GetGinLogger(c).Error("create failed", zap.String("entity", entity), zap.Error(err))
			status = http.StatusServiceUnavailable
			data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationError, i18n.MsgCreateFailedTitle, page.createFailed))
		}
		c.HTML(status, "create.html", data)
	}
}

func (h *PageHandler) afterCreate(c *gin.Context, page *listPage) {
	view, _, err := h.views.Get(middleware.GetSessionID(c), page.Entity)
	if err != nil {
		return
	}
	view.Notify(listview.NotificationSuccess, page.created[0], page.created[1])
	if view.State() == listview.StateIdle {
		// loaded by the list page
		return
	}
	if err := view.Revalidate(); err != nil && !errors.Is(err, listview.ErrActionInFlight) {
		logger.GetGinLogger(c).Warn("refresh after create failed", zap.String("entity", page.Entity), zap.Error(err))
	}
}

func (h *PageHandler) renderList(c *gin.Context, status int, page *listPage, view listview.View, errs, values map[string]string) {
	data := h.data(c, page.Title)
	snap := view.Snapshot(data.Lang)
	data.List = page
	data.Snapshot = &snap
	data.Rows = page.rows(snap.Items)
	data.Notifications = snap.Notifications
	data.Loading = snap.Mode == listview.ModeSkeleton
	data.Errors = errs
	data.Values = values
	if data.Values == nil && snap.Form != nil {
		data.Values = page.values(snap.Form)
	}
	c.HTML(status, "list.html", data)
}

func (h *PageHandler) fail(c *gin.Context, err error) {
	logger.GetGinLogger(c).Warn("page failed", zap.Error(err))
	data := h.data(c, i18n.LabelDashboard)
	data.Notifications = append(data.Notifications, h.notice(c, listview.NotificationError, i18n.MsgLoadFailedTitle, i18n.MsgLoadFailedBody))
	c.HTML(http.StatusBadRequest, "dashboard.html", data)
}

func (h *PageHandler) data(c *gin.Context, title string) *pageData {
	data := &pageData{
		Lang:      middleware.GetLanguage(c),
		Title:     title,
		Path:      c.Request.URL.Path,
		Federated: h.auth.FederatedEnabled(),
	}
	if v, ok := c.Get(pageUserKey); ok {
		data.User, _ = v.(session.User)
	}
	return data
}

func (h *PageHandler) notice(c *gin.Context, kind listview.NotificationKind, title, body string) listview.Notification {
	lang := middleware.GetLanguage(c)
	return listview.Notification{
		ID:          getRequestID(c),
		Kind:        kind,
		Title:       i18n.T(lang, title),
		Description: i18n.T(lang, body),
		CreatedAt:   time.Now(),
	}
}

func postedValues(c *gin.Context, fields []formField) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Name] = c.PostForm(f.Name)
	}
	return values
}
