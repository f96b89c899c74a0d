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

type CarbonHandler struct {
	BaseHandler
	carbonService services.CarbonService
	validator     *validator.Validator
}

func NewCarbonHandler(carbonService services.CarbonService, validator *validator.Validator, logger utils.Logger) *CarbonHandler {
	return &CarbonHandler{
		BaseHandler:   NewBaseHandler(logger),
		carbonService: carbonService,
		validator:     validator,
	}
}

// CreateCarbonProject creates a new carbon project
// @Summary Create carbon project
// @Tags carbon
// @Accept json
// @Produce json
// @Param project body services.CreateCarbonRequest true "Carbon project data"
// @Success 201 {object} services.CarbonResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /carbon-projects [post]
func (h *CarbonHandler) CreateCarbonProject(c *gin.Context) {
	var req services.CreateCarbonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	project, err := h.carbonService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// GetCarbonProject retrieves a carbon project by ID
// @Summary Get carbon project
// @Tags carbon
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} services.CarbonResponse
// @Failure 404 {object} ErrorResponse
// @Router /carbon-projects/{id} [get]
func (h *CarbonHandler) GetCarbonProject(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	project, err := h.carbonService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// GetCarbonProjectWithDetails retrieves a carbon project with estimate and schedule
// @Summary Get carbon project with details
// @Tags carbon
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} services.CarbonResponse
// @Failure 404 {object} ErrorResponse
// @Router /carbon-projects/{id}/details [get]
func (h *CarbonHandler) GetCarbonProjectWithDetails(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	project, err := h.carbonService.GetByIDWithDetails(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// UpdateCarbonProject updates an existing carbon project
// @Summary Update carbon project
// @Tags carbon
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param project body services.UpdateCarbonRequest true "Update data"
// @Success 200 {object} services.CarbonResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /carbon-projects/{id} [put]
func (h *CarbonHandler) UpdateCarbonProject(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating carbon project", "project_id", id)

	var req services.UpdateCarbonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	project, err := h.carbonService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// UpdateCarbonProjectStatus moves a carbon project through its registry lifecycle
// @Summary Update carbon project status
// @Tags carbon
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param status body services.CarbonStatusRequest true "New status"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /carbon-projects/{id}/status [put]
func (h *CarbonHandler) UpdateCarbonProjectStatus(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating carbon project status", "project_id", id)

	var req services.CarbonStatusRequest
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

	if err := h.carbonService.UpdateStatus(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Carbon project status updated successfully",
	})
}

// DeleteCarbonProject deletes a carbon project
// @Summary Delete carbon project
// @Tags carbon
// @Param id path string true "Project ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /carbon-projects/{id} [delete]
func (h *CarbonHandler) DeleteCarbonProject(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting carbon project", "project_id", id)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.carbonService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCarbonProjects lists carbon projects with filters
// @Summary List carbon projects
// @Tags carbon
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Param status query string false "Project status"
// @Param grant_id query string false "Linked grant ID"
// @Success 200 {object} services.CarbonListResponse
// @Router /carbon-projects [get]
func (h *CarbonHandler) ListCarbonProjects(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	filters := h.parseCarbonFilters(c)
	projects, err := h.carbonService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

// SetCarbonEstimate records the emission-reduction estimate
// @Summary Set carbon estimate
// @Tags carbon
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param estimate body services.CarbonEstimateRequest true "Estimate data"
// @Success 200 {object} models.CarbonEstimate
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /carbon-projects/{id}/estimate [put]
func (h *CarbonHandler) SetCarbonEstimate(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Setting carbon estimate", "project_id", id)

	var req services.CarbonEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	estimate, err := h.carbonService.SetEstimate(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// GetCarbonEstimate retrieves the emission-reduction estimate
// @Summary Get carbon estimate
// @Tags carbon
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.CarbonEstimate
// @Failure 404 {object} ErrorResponse
// @Router /carbon-projects/{id}/estimate [get]
func (h *CarbonHandler) GetCarbonEstimate(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	estimate, err := h.carbonService.GetEstimate(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// SetVerificationSchedule records the verification cadence
// @Summary Set verification schedule
// @Tags carbon
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param schedule body services.VerificationScheduleRequest true "Schedule data"
// @Success 200 {object} models.VerificationSchedule
// @Failure 400 {object} ErrorResponse
// @Router /carbon-projects/{id}/verification-schedule [put]
func (h *CarbonHandler) SetVerificationSchedule(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Setting verification schedule", "project_id", id)

	var req services.VerificationScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.carbonService.SetVerificationSchedule(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// GetVerificationSchedule retrieves the verification cadence
// @Summary Get verification schedule
// @Tags carbon
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.VerificationSchedule
// @Failure 404 {object} ErrorResponse
// @Router /carbon-projects/{id}/verification-schedule [get]
func (h *CarbonHandler) GetVerificationSchedule(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.carbonService.GetVerificationSchedule(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *CarbonHandler) parseCarbonFilters(c *gin.Context) repositories.CarbonFilters {
	page := h.ParseIntQuery(c, "page", 1)
	size := h.ParseIntQuery(c, "size", 10)

	filters := repositories.CarbonFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if status := c.Query("status"); status != "" {
		carbonStatus := models.CarbonProjectStatus(status)
		filters.Status = &carbonStatus
	}
	if regency := c.Query("regency"); regency != "" {
		filters.Regency = &regency
	}
	if grantID := c.Query("grant_id"); grantID != "" {
		filters.GrantID = &grantID
	}

	return filters
}
