package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportExportHandler struct {
	BaseHandler
	importExportService services.ImportExportService
	grantHandler        *GrantHandler
}

func NewImportExportHandler(importExportService services.ImportExportService, grantHandler *GrantHandler, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
		grantHandler:        grantHandler,
	}
}

// ExportGrants streams the filtered grant list as a spreadsheet
// @Summary Export grants
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Grant status"
// @Param scheme query string false "Grant scheme"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /export/grants [get]
func (h *ImportExportHandler) ExportGrants(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting grants")

	filters := h.grantHandler.parseGrantFilters(c)
	data, err := h.importExportService.ExportGrants(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="grants.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExportLedger streams a ledger's transactions and summary as a spreadsheet
// @Summary Export ledger
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Ledger ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /export/ledgers/{id} [get]
func (h *ImportExportHandler) ExportLedger(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting ledger", "ledger_id", ledgerID)

	data, err := h.importExportService.ExportLedger(c.Request.Context(), ledgerID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-%s.xlsx"`, ledgerID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ImportTransactions accepts an xlsx upload of transactions for a ledger
// @Summary Import transactions
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Ledger ID"
// @Param file formData file true "Transactions spreadsheet"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /ledgers/{id}/transactions/import [post]
func (h *ImportExportHandler) ImportTransactions(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Spreadsheet file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing transactions", "ledger_id", ledgerID, "file", fileHeader.Filename)

	result, err := h.importExportService.ImportTransactions(c.Request.Context(), ledgerID, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
