package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
)

type ComplianceHandler struct {
	BaseHandler
	complianceService services.ComplianceService
}

func NewComplianceHandler(complianceService services.ComplianceService, logger utils.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		BaseHandler:       NewBaseHandler(logger),
		complianceService: complianceService,
	}
}

// CheckProject runs the document compliance scorecard for a project
// @Summary Run compliance check
// @Description Runs all document checks for a project and returns the scorecard
// @Tags compliance
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} services.ComplianceReport
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id}/compliance [post]
func (h *ComplianceHandler) CheckProject(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	h.LogRequest(c, "Running compliance check", "project_id", projectID)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	report, err := h.complianceService.CheckProject(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// CheckCompliance runs the scorecard for the project named in query params
// @Summary Run compliance check by query
// @Description Runs all document checks for the project named by project_id and type
// @Tags compliance
// @Produce json
// @Param project_id query string true "Project ID"
// @Param type query string true "Project type" Enums(perhutanan_sosial, carbon_project)
// @Success 200 {object} services.ComplianceReport
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /compliance/check [get]
func (h *ComplianceHandler) CheckCompliance(c *gin.Context) {
	projectID := strings.TrimSpace(c.Query("project_id"))
	if projectID == "" {
		h.RespondWithError(c, http.StatusBadRequest, "project_id query parameter is required", nil)
		return
	}

	projectType := strings.TrimSpace(c.Query("type"))
	if projectType != services.ProjectTypeGrant && projectType != services.ProjectTypeCarbon {
		h.RespondWithError(c, http.StatusBadRequest,
			"type must be "+services.ProjectTypeGrant+" or "+services.ProjectTypeCarbon, nil)
		return
	}

	h.LogRequest(c, "Running compliance check", "project_id", projectID, "project_type", projectType)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	report, err := h.complianceService.CheckProjectOfType(c.Request.Context(), projectID, projectType, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
