package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the envelope for operations with no resource body.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the shared pieces every handler needs: logging and
// service-error translation.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, append(args, "error", err)...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

// GetUserID returns the authenticated user ID, writing a 401 when the auth
// middleware did not run.
func (h *BaseHandler) GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "User not authenticated",
		})
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "User not authenticated",
		})
		return "", false
	}
	return id, true
}

// ParseStringIDParam reads a path parameter, writing a 400 when it is empty.
func (h *BaseHandler) ParseStringIDParam(c *gin.Context, param string) string {
	value := strings.TrimSpace(c.Param(param))
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + param,
			Details: "ID cannot be empty",
		})
	}
	return value
}

func (h *BaseHandler) ParseUintParam(c *gin.Context, param string) uint {
	value, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(value)
}

func (h *BaseHandler) ParseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError maps service-layer errors onto HTTP status codes. The
// default branch never leaks driver or SQL details to the client.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: validationErrors.FieldMap(),
		})
		return
	}

	// 403 bodies name the permission category, never the role table behind it.
	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: fmt.Sprintf("Forbidden: %s %s", permissionError.Action, permissionError.Resource),
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule": businessRuleError.Rule,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrGrantNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrCarbonNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrLedgerNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
		})
	case errors.Is(err, services.ErrDuplicateCode):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Code already in use",
		})
	case errors.Is(err, services.ErrLedgerClosed):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Ledger is closed",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Details: "unexpected error handling the request",
		})
	}
}
