package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type GrantHandler struct {
	BaseHandler
	grantService services.GrantService
	validator    *validator.Validator
}

func NewGrantHandler(grantService services.GrantService, validator *validator.Validator, logger utils.Logger) *GrantHandler {
	return &GrantHandler{
		BaseHandler:  NewBaseHandler(logger),
		grantService: grantService,
		validator:    validator,
	}
}

// CreateGrant creates a new land grant
// @Summary Create grant
// @Description Creates a new social-forestry land grant in draft status
// @Tags grants
// @Accept json
// @Produce json
// @Param grant body services.CreateGrantRequest true "Grant data"
// @Success 201 {object} services.GrantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /grants [post]
func (h *GrantHandler) CreateGrant(c *gin.Context) {
	var req services.CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	grant, err := h.grantService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, grant)
}

// GetGrant retrieves a grant by ID
// @Summary Get grant
// @Tags grants
// @Produce json
// @Param id path string true "Grant ID"
// @Success 200 {object} services.GrantResponse
// @Failure 404 {object} ErrorResponse
// @Router /grants/{id} [get]
func (h *GrantHandler) GetGrant(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	grant, err := h.grantService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grant)
}

// GetGrantWithDetails retrieves a grant with linked organizations
// @Summary Get grant with details
// @Tags grants
// @Produce json
// @Param id path string true "Grant ID"
// @Success 200 {object} services.GrantResponse
// @Failure 404 {object} ErrorResponse
// @Router /grants/{id}/details [get]
func (h *GrantHandler) GetGrantWithDetails(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	grant, err := h.grantService.GetByIDWithDetails(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grant)
}

// UpdateGrant updates an existing grant
// @Summary Update grant
// @Tags grants
// @Accept json
// @Produce json
// @Param id path string true "Grant ID"
// @Param grant body services.UpdateGrantRequest true "Grant update data"
// @Success 200 {object} services.GrantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grants/{id} [put]
func (h *GrantHandler) UpdateGrant(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating grant", "grant_id", id)

	var req services.UpdateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	grant, err := h.grantService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grant)
}

// UpdateGrantStatus moves a grant through its lifecycle
// @Summary Update grant status
// @Tags grants
// @Accept json
// @Produce json
// @Param id path string true "Grant ID"
// @Param status body services.GrantStatusRequest true "New status"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grants/{id}/status [put]
func (h *GrantHandler) UpdateGrantStatus(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating grant status", "grant_id", id)

	var req services.GrantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.grantService.UpdateStatus(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Grant status updated successfully",
	})
}

// DeleteGrant deletes a grant
// @Summary Delete grant
// @Tags grants
// @Param id path string true "Grant ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grants/{id} [delete]
func (h *GrantHandler) DeleteGrant(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting grant", "grant_id", id)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.grantService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListGrants lists grants with filters
// @Summary List grants
// @Tags grants
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Param status query string false "Grant status"
// @Param scheme query string false "Grant scheme"
// @Param regency query string false "Regency"
// @Success 200 {object} services.GrantListResponse
// @Router /grants [get]
func (h *GrantHandler) ListGrants(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	filters := h.parseGrantFilters(c)
	grants, err := h.grantService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grants)
}

// SearchGrants searches grants by name or code
// @Summary Search grants
// @Tags grants
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} services.GrantListResponse
// @Failure 400 {object} ErrorResponse
// @Router /grants/search [get]
func (h *GrantHandler) SearchGrants(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Search query parameter 'q' is required", nil)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	filters := h.parseGrantFilters(c)
	grants, err := h.grantService.Search(c.Request.Context(), query, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grants)
}

func (h *GrantHandler) parseGrantFilters(c *gin.Context) repositories.GrantFilters {
	page := h.ParseIntQuery(c, "page", 1)
	size := h.ParseIntQuery(c, "size", 10)

	filters := repositories.GrantFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if status := c.Query("status"); status != "" {
		grantStatus := models.GrantStatus(status)
		filters.Status = &grantStatus
	}
	if scheme := c.Query("scheme"); scheme != "" {
		grantScheme := models.GrantScheme(scheme)
		filters.Scheme = &grantScheme
	}
	if regency := c.Query("regency"); regency != "" {
		filters.Regency = &regency
	}
	if creator := c.Query("created_by"); creator != "" {
		filters.CreatedBy = &creator
	}

	return filters
}
