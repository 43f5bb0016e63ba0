package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/application/listview"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/interfaces/http/middleware"
)

// ViewHandler exposes the per-session list views. Every action answers with
// the view snapshot, which carries the toasts raised since the last one.
type ViewHandler struct {
	BaseHandler
	views *listview.Registry
}

// NewViewHandler creates a new ViewHandler
func NewViewHandler(views *listview.Registry) *ViewHandler {
	return &ViewHandler{views: views}
}

// Snapshot godoc
// @ID           getViewSnapshot
// @Summary      Get a list view
// @Description  Returns the session's view of companies or users. The first call starts loading and answers with the skeleton.
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /views/{entity} [get]
func (h *ViewHandler) Snapshot(c *gin.Context) {
	view, created, err := h.view(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.respond(c, view, view.StartRefresh())
		return
	}
	h.respond(c, view, nil)
}

// Refresh godoc
// @ID           refreshView
// @Summary      Reload a list view
// @Description  Fetches every record and waits out the settle delay
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /views/{entity}/refresh [post]
func (h *ViewHandler) Refresh(c *gin.Context) {
	h.act(c, func(v listview.View) error { return v.Refresh(c.Request.Context()) })
}

// OpenEdit godoc
// @ID           openViewEdit
// @Summary      Open the edit panel
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Param        id     path string true "Record ID"
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /views/{entity}/edit/{id} [post]
func (h *ViewHandler) OpenEdit(c *gin.Context) {
	h.act(c, func(v listview.View) error { return v.OpenEdit(c.Param("id")) })
}

// SubmitEdit godoc
// @ID           submitViewEdit
// @Summary      Submit the edit panel
// @Description  Sends the form of the open edit panel. A validation failure keeps the panel open.
// @Tags         views
// @Accept       json
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /views/{entity}/edit/submit [post]
func (h *ViewHandler) SubmitEdit(c *gin.Context) {
	h.act(c, func(v listview.View) error { return v.SubmitEditFrom(c.Request.Context(), c.ShouldBind) })
}

// CancelEdit godoc
// @ID           cancelViewEdit
// @Summary      Close the edit panel
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Security     BearerAuth
// @Router       /views/{entity}/edit/cancel [post]
func (h *ViewHandler) CancelEdit(c *gin.Context) {
	h.act(c, func(v listview.View) error { v.CancelEdit(); return nil })
}

// RequestDelete godoc
// @ID           requestViewDelete
// @Summary      Open the delete confirmation
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Param        id     path string true "Record ID"
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /views/{entity}/delete/{id} [post]
func (h *ViewHandler) RequestDelete(c *gin.Context) {
	h.act(c, func(v listview.View) error { return v.RequestDelete(c.Param("id")) })
}

// ConfirmDelete godoc
// @ID           confirmViewDelete
// @Summary      Confirm the delete
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /views/{entity}/delete/confirm [post]
func (h *ViewHandler) ConfirmDelete(c *gin.Context) {
	h.act(c, func(v listview.View) error { return v.ConfirmDelete(c.Request.Context()) })
}

// CancelDelete godoc
// @ID           cancelViewDelete
// @Summary      Close the delete confirmation
// @Tags         views
// @Produce      json
// @Param        entity path string true "List entity" Enums(companies, users)
// @Success      200 {object} APIResponse[listview.Snapshot]
// @Security     BearerAuth
// @Router       /views/{entity}/delete/cancel [post]
func (h *ViewHandler) CancelDelete(c *gin.Context) {
	h.act(c, func(v listview.View) error { v.CancelDelete(); return nil })
}

func (h *ViewHandler) view(c *gin.Context) (listview.View, bool, error) {
	return h.views.Get(middleware.GetSessionID(c), c.Param("entity"))
}

func (h *ViewHandler) act(c *gin.Context, action func(listview.View) error) {
	view, _, err := h.view(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, view, action(view))
}

// respond answers with the snapshot. Guard and input failures are errors;
// remote failures were already turned into a toast by the view.
func (h *ViewHandler) respond(c *gin.Context, view listview.View, err error) {
	if err != nil && isViewRejection(err) {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view.Snapshot(middleware.GetLanguage(c)))
}

func isViewRejection(err error) bool {
	for _, target := range []error{
		listview.ErrActionInFlight,
		listview.ErrInvalidTransition,
		listview.ErrClosed,
		shared.ErrValidation,
		shared.ErrInvalidInput,
		shared.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
