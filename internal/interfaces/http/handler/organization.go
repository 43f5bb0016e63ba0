package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/validation"
)

// OrganizationHandler handles organization (company) API endpoints
type OrganizationHandler struct {
	BaseHandler
	service *directory.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(service *directory.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// List godoc
// @ID           listOrganizations
// @Summary      List organizations
// @Description  Returns every organization in the companies collection
// @Tags         organizations
// @Produce      json
// @Success      200 {object} APIResponse[[]directory.OrganizationResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orgs)
}

// Get godoc
// @ID           getOrganization
// @Summary      Get an organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID"
// @Success      200 {object} APIResponse[directory.OrganizationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Create godoc
// @ID           createOrganization
// @Summary      Register an organization
// @Description  Validates the form (name, email, CNPJ) and stores a new organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body validation.OrganizationInput true "Organization form"
// @Success      201 {object} APIResponse[directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req validation.OrganizationInput
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Update godoc
// @ID           updateOrganization
// @Summary      Update an organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Organization ID"
// @Param        request body validation.OrganizationInput true "Organization form"
// @Success      200 {object} APIResponse[directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req validation.OrganizationInput
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Delete godoc
// @ID           deleteOrganization
// @Summary      Remove an organization
// @Tags         organizations
// @Param        id path string true "Organization ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Count godoc
// @ID           countOrganizations
// @Summary      Count organizations
// @Tags         organizations
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /organizations/count [get]
func (h *OrganizationHandler) Count(c *gin.Context) {
	n, err := h.service.Count(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: n})
}
