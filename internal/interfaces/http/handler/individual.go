package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/validation"
)

// IndividualHandler handles individual (user) API endpoints
type IndividualHandler struct {
	BaseHandler
	service *directory.IndividualService
}

// NewIndividualHandler creates a new IndividualHandler
func NewIndividualHandler(service *directory.IndividualService) *IndividualHandler {
	return &IndividualHandler{service: service}
}

// List godoc
// @ID           listIndividuals
// @Summary      List individuals
// @Description  Returns every individual in the users collection
// @Tags         individuals
// @Produce      json
// @Success      200 {object} APIResponse[[]directory.IndividualResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /individuals [get]
func (h *IndividualHandler) List(c *gin.Context) {
	people, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, people)
}

// Get godoc
// @ID           getIndividual
// @Summary      Get an individual
// @Tags         individuals
// @Produce      json
// @Param        id path string true "Individual ID"
// @Success      200 {object} APIResponse[directory.IndividualResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /individuals/{id} [get]
func (h *IndividualHandler) Get(c *gin.Context) {
	person, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, person)
}

// Create godoc
// @ID           createIndividual
// @Summary      Create a user
// @Description  Validates the form (name, email, CPF, CNPJ) and stores a new individual
// @Tags         individuals
// @Accept       json
// @Produce      json
// @Param        request body validation.IndividualInput true "Individual form"
// @Success      201 {object} APIResponse[directory.IndividualResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /individuals [post]
func (h *IndividualHandler) Create(c *gin.Context) {
	var req validation.IndividualInput
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	person, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, person)
}

// Update godoc
// @ID           updateIndividual
// @Summary      Update an individual
// @Tags         individuals
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Individual ID"
// @Param        request body validation.IndividualInput true "Individual form"
// @Success      200 {object} APIResponse[directory.IndividualResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /individuals/{id} [put]
func (h *IndividualHandler) Update(c *gin.Context) {
	var req validation.IndividualInput
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	person, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, person)
}

// Delete godoc
// @ID           deleteIndividual
// @Summary      Remove an individual
// @Tags         individuals
// @Param        id path string true "Individual ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /individuals/{id} [delete]
func (h *IndividualHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Count godoc
// @ID           countIndividuals
// @Summary      Count individuals
// @Tags         individuals
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /individuals/count [get]
func (h *IndividualHandler) Count(c *gin.Context) {
	n, err := h.service.Count(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: n})
}
