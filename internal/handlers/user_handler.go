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

type UserHandler struct {
	BaseHandler
	userService services.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService services.UserService, validator *validator.Validator, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
		validator:   validator,
	}
}

// GetCurrentUser returns the caller's own profile
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetCurrentUserPermissions returns the caller's permission names
// @Summary Get current user permissions
// @Tags users
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 401 {object} ErrorResponse
// @Router /users/me/permissions [get]
func (h *UserHandler) GetCurrentUserPermissions(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	perms, err := h.userService.GetPermissions(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListUsers lists user profiles
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param role query string false "Role filter"
// @Success 200 {object} services.ProfileListResponse
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	filters := h.parseProfileFilters(c)
	profiles, err := h.userService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Search query parameter 'q' is required", nil)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	filters := h.parseProfileFilters(c)
	profiles, err := h.userService.Search(c.Request.Context(), query, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

// UpdateUserRole assigns a role to a user
// @Summary Update user role
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body services.UpdateUserRoleRequest true "New role"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating user role", "target_user_id", id)

	var req services.UpdateUserRoleRequest
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

	if err := h.userService.UpdateRole(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "User role updated successfully",
	})
}

func (h *UserHandler) parseProfileFilters(c *gin.Context) repositories.ProfileFilters {
	page := h.ParseIntQuery(c, "page", 1)
	size := h.ParseIntQuery(c, "size", 20)

	filters := repositories.ProfileFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filters.Role = &r
	}
	return filters
}
