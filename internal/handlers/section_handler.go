package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

// SectionHandler serves the per-project document sections the compliance
// scorer reads. All routes hang off /projects/:id.
type SectionHandler struct {
	BaseHandler
	sectionService services.SectionService
	validator      *validator.Validator
}

func NewSectionHandler(sectionService services.SectionService, validator *validator.Validator, logger utils.Logger) *SectionHandler {
	return &SectionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sectionService: sectionService,
		validator:      validator,
	}
}

// UpsertOrganizationalProfile creates or replaces the organizational profile section
// @Summary Upsert organizational profile
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param profile body services.OrganizationalProfileRequest true "Profile data"
// @Success 200 {object} models.OrganizationalProfile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id}/sections/organizational-profile [put]
func (h *SectionHandler) UpsertOrganizationalProfile(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.OrganizationalProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	profile, err := h.sectionService.UpsertOrganizationalProfile(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *SectionHandler) GetOrganizationalProfile(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	profile, err := h.sectionService.GetOrganizationalProfile(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpsertLandTenure creates or replaces the land tenure section
// @Summary Upsert land tenure
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param tenure body services.LandTenureRequest true "Tenure data"
// @Success 200 {object} models.LandTenure
// @Failure 400 {object} ErrorResponse
// @Router /projects/{id}/sections/land-tenure [put]
func (h *SectionHandler) UpsertLandTenure(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.LandTenureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	tenure, err := h.sectionService.UpsertLandTenure(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tenure)
}

func (h *SectionHandler) GetLandTenure(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	tenure, err := h.sectionService.GetLandTenure(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tenure)
}

// AddForestStatusRecord appends one year of forest-cover history
// @Summary Add forest status record
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param record body services.ForestStatusRecordRequest true "Record data"
// @Success 201 {object} models.ForestStatusRecord
// @Failure 400 {object} ErrorResponse
// @Router /projects/{id}/sections/forest-status [post]
func (h *SectionHandler) AddForestStatusRecord(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.ForestStatusRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	record, err := h.sectionService.AddForestStatusRecord(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *SectionHandler) ListForestStatusRecords(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	records, err := h.sectionService.ListForestStatusRecords(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// AddDeforestationDriver records one deforestation driver
// @Summary Add deforestation driver
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param driver body services.DeforestationDriverRequest true "Driver data"
// @Success 201 {object} models.DeforestationDriver
// @Failure 400 {object} ErrorResponse
// @Router /projects/{id}/sections/deforestation-drivers [post]
func (h *SectionHandler) AddDeforestationDriver(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.DeforestationDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	driver, err := h.sectionService.AddDeforestationDriver(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, driver)
}

func (h *SectionHandler) ListDeforestationDrivers(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	drivers, err := h.sectionService.ListDeforestationDrivers(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, drivers)
}

// UpsertModel creates or replaces the social, carbon or financial model
// @Summary Upsert project model
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param model body services.ProjectModelRequest true "Model data"
// @Success 200 {object} models.ProjectModel
// @Failure 400 {object} ErrorResponse
// @Router /projects/{id}/sections/models [put]
func (h *SectionHandler) UpsertModel(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.ProjectModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	model, err := h.sectionService.UpsertModel(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, model)
}

func (h *SectionHandler) GetModel(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}
	kind := h.ParseStringIDParam(c, "kind")
	if kind == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	model, err := h.sectionService.GetModel(c.Request.Context(), projectID, kind, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, model)
}

// AddMilestone appends one implementation milestone
// @Summary Add milestone
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param milestone body services.MilestoneRequest true "Milestone data"
// @Success 201 {object} models.TimelineMilestone
// @Failure 400 {object} ErrorResponse
// @Router /projects/{id}/sections/timeline [post]
func (h *SectionHandler) AddMilestone(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.MilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	milestone, err := h.sectionService.AddMilestone(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, milestone)
}

func (h *SectionHandler) ListMilestones(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	milestones, err := h.sectionService.ListMilestones(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, milestones)
}

// AddKMLFile registers an uploaded boundary file
// @Summary Add KML file
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param file body services.KMLFileRequest true "File metadata"
// @Success 201 {object} models.KMLFile
// @Failure 400 {object} ErrorResponse
// @Router /projects/{id}/sections/kml-files [post]
func (h *SectionHandler) AddKMLFile(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.KMLFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	file, err := h.sectionService.AddKMLFile(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, file)
}
