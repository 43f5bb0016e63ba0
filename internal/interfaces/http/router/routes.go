package router

import (
	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/interfaces/http/handler"
)

// Handlers are the API handlers mounted by APIGroups
type Handlers struct {
	Auth          *handler.AuthHandler
	Organizations *handler.OrganizationHandler
	Individuals   *handler.IndividualHandler
	Views         *handler.ViewHandler
	Dashboard     *handler.DashboardHandler
	System        *handler.SystemHandler
}

// PublicPaths are the API paths reachable without an access token,
// relative to the API base path
var PublicPaths = []string{
	"/auth/login",
	"/auth/oidc/login",
	"/auth/oidc/callback",
	"/system/ping",
	"/system/info",
}

// APIGroups builds the domain groups of the admin API. loginLimit guards
// the password sign-in and may be nil.
func APIGroups(h Handlers, loginLimit gin.HandlerFunc) []*DomainGroup {
	authRoutes := NewDomainGroup("auth", "/auth")
	if loginLimit != nil {
		authRoutes.POST("/login", loginLimit, h.Auth.Login)
	} else {
		authRoutes.POST("/login", h.Auth.Login)
	}
	authRoutes.GET("/oidc/login", h.Auth.OIDCLogin)
	authRoutes.GET("/oidc/callback", h.Auth.OIDCCallback)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)

	orgRoutes := NewDomainGroup("organizations", "/organizations")
	orgRoutes.GET("", h.Organizations.List)
	orgRoutes.POST("", h.Organizations.Create)
	orgRoutes.GET("/count", h.Organizations.Count)
	orgRoutes.GET("/:id", h.Organizations.Get)
	orgRoutes.PUT("/:id", h.Organizations.Update)
	orgRoutes.DELETE("/:id", h.Organizations.Delete)

	individualRoutes := NewDomainGroup("individuals", "/individuals")
	individualRoutes.GET("", h.Individuals.List)
	individualRoutes.POST("", h.Individuals.Create)
	individualRoutes.GET("/count", h.Individuals.Count)
	individualRoutes.GET("/:id", h.Individuals.Get)
	individualRoutes.PUT("/:id", h.Individuals.Update)
	individualRoutes.DELETE("/:id", h.Individuals.Delete)

	viewRoutes := NewDomainGroup("views", "/views/:entity")
	viewRoutes.GET("", h.Views.Snapshot)
	viewRoutes.POST("/refresh", h.Views.Refresh)
	editRoutes := viewRoutes.Group("edit", "/edit")
	editRoutes.POST("/submit", h.Views.SubmitEdit)
	editRoutes.POST("/cancel", h.Views.CancelEdit)
	editRoutes.POST("/:id", h.Views.OpenEdit)
	deleteRoutes := viewRoutes.Group("delete", "/delete")
	deleteRoutes.POST("/confirm", h.Views.ConfirmDelete)
	deleteRoutes.POST("/cancel", h.Views.CancelDelete)
	deleteRoutes.POST("/:id", h.Views.RequestDelete)

	dashboardRoutes := NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.GET("", h.Dashboard.Overview)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)
	systemRoutes.GET("/ping", h.System.Ping)

	return []*DomainGroup{authRoutes, orgRoutes, individualRoutes, viewRoutes, dashboardRoutes, systemRoutes}
}

// MountPages registers the server-rendered pages on engine
func MountPages(engine *gin.Engine, pages *handler.PageHandler, entities ...string) {
	engine.GET("/", pages.Home)
	engine.POST("/login", pages.Login)
	engine.POST("/logout", pages.Logout)

	private := engine.Group("", pages.RequireUser)
	private.GET("/dashboard", pages.Dashboard)
	for _, entity := range entities {
		pages.MountList(private, entity)
	}
}
