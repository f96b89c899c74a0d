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

type OrganizationHandler struct {
	BaseHandler
	organizationService services.OrganizationService
	validator           *validator.Validator
}

func NewOrganizationHandler(organizationService services.OrganizationService, validator *validator.Validator, logger utils.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler:         NewBaseHandler(logger),
		organizationService: organizationService,
		validator:           validator,
	}
}

// CreateOrganization registers a community organization
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body services.CreateOrganizationRequest true "Organization data"
// @Success 201 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req services.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	org, err := h.organizationService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	org, err := h.organizationService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// UpdateOrganization updates an organization
// @Summary Update organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param organization body services.UpdateOrganizationRequest true "Update data"
// @Success 200 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id} [put]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating organization", "organization_id", id)

	var req services.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	org, err := h.organizationService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting organization", "organization_id", id)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.organizationService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListOrganizations lists organizations with filters
// @Summary List organizations
// @Tags organizations
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Param type query string false "Organization type"
// @Param regency query string false "Regency"
// @Param q query string false "Name or code search"
// @Success 200 {object} services.OrganizationListResponse
// @Router /organizations [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	page := h.ParseIntQuery(c, "page", 1)
	size := h.ParseIntQuery(c, "size", 10)

	filters := repositories.OrganizationFilters{
		Query:  c.Query("q"),
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if orgType := c.Query("type"); orgType != "" {
		t := models.OrganizationType(orgType)
		filters.Type = &t
	}
	if regency := c.Query("regency"); regency != "" {
		filters.Regency = &regency
	}

	orgs, err := h.organizationService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orgs)
}

// LinkOrganization links an organization to a project
// @Summary Link organization to project
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param link body services.LinkOrganizationRequest true "Link data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /projects/{id}/organizations [post]
func (h *OrganizationHandler) LinkOrganization(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.LinkOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.organizationService.LinkProject(c.Request.Context(), projectID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Organization linked to project successfully",
	})
}

func (h *OrganizationHandler) UnlinkOrganization(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}
	organizationID := h.ParseStringIDParam(c, "organization_id")
	if organizationID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.organizationService.UnlinkProject(c.Request.Context(), projectID, organizationID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrganizationHandler) ListProjectOrganizations(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	links, err := h.organizationService.ListProjectLinks(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}
