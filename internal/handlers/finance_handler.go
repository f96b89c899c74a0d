package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type FinanceHandler struct {
	BaseHandler
	financeService services.FinanceService
	validator      *validator.Validator
}

func NewFinanceHandler(financeService services.FinanceService, validator *validator.Validator, logger utils.Logger) *FinanceHandler {
	return &FinanceHandler{
		BaseHandler:    NewBaseHandler(logger),
		financeService: financeService,
		validator:      validator,
	}
}

// ===== LEDGERS =====

// CreateLedger opens a ledger for a project and fiscal year
// @Summary Create ledger
// @Tags finance
// @Accept json
// @Produce json
// @Param ledger body services.CreateLedgerRequest true "Ledger data"
// @Success 201 {object} models.Ledger
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /ledgers [post]
func (h *FinanceHandler) CreateLedger(c *gin.Context) {
	var req services.CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	ledger, err := h.financeService.CreateLedger(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ledger)
}

func (h *FinanceHandler) GetLedger(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	ledger, err := h.financeService.GetLedger(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

func (h *FinanceHandler) GetLedgerWithDetails(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	ledger, err := h.financeService.GetLedgerWithDetails(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

func (h *FinanceHandler) ListProjectLedgers(c *gin.Context) {
	projectID := h.ParseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	ledgers, err := h.financeService.ListLedgersByProject(c.Request.Context(), projectID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledgers)
}

// CloseLedger closes a ledger permanently
// @Summary Close ledger
// @Tags finance
// @Produce json
// @Param id path string true "Ledger ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /ledgers/{id}/close [post]
func (h *FinanceHandler) CloseLedger(c *gin.Context) {
	id := h.ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Closing ledger", "ledger_id", id)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.financeService.CloseLedger(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Ledger closed successfully",
	})
}

// ===== BUDGET LINES =====

// AddBudgetLine adds a planned allocation to a ledger
// @Summary Add budget line
// @Tags finance
// @Accept json
// @Produce json
// @Param id path string true "Ledger ID"
// @Param line body services.BudgetLineRequest true "Budget line data"
// @Success 201 {object} models.BudgetLine
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /ledgers/{id}/budget-lines [post]
func (h *FinanceHandler) AddBudgetLine(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	var req services.BudgetLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	line, err := h.financeService.AddBudgetLine(c.Request.Context(), ledgerID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

func (h *FinanceHandler) UpdateBudgetLine(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}
	lineID := h.ParseUintParam(c, "line_id")
	if lineID == 0 {
		return
	}

	var req services.BudgetLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	line, err := h.financeService.UpdateBudgetLine(c.Request.Context(), ledgerID, lineID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

func (h *FinanceHandler) DeleteBudgetLine(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}
	lineID := h.ParseUintParam(c, "line_id")
	if lineID == 0 {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.financeService.DeleteBudgetLine(c.Request.Context(), ledgerID, lineID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FinanceHandler) ListBudgetLines(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	lines, err := h.financeService.ListBudgetLines(c.Request.Context(), ledgerID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lines)
}

// ===== TRANSACTIONS =====

// RecordTransaction records one financial movement
// @Summary Record transaction
// @Tags finance
// @Accept json
// @Produce json
// @Param id path string true "Ledger ID"
// @Param transaction body services.CreateTransactionRequest true "Transaction data"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /ledgers/{id}/transactions [post]
func (h *FinanceHandler) RecordTransaction(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	var req services.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	tx, err := h.financeService.RecordTransaction(c.Request.Context(), ledgerID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// ListTransactions lists transactions in a ledger with filters
// @Summary List transactions
// @Tags finance
// @Produce json
// @Param id path string true "Ledger ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param direction query string false "debit or credit"
// @Param category query string false "Budget category"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} services.TransactionListResponse
// @Router /ledgers/{id}/transactions [get]
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	filters := h.parseTransactionFilters(c)
	txs, err := h.financeService.ListTransactions(c.Request.Context(), ledgerID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}

func (h *FinanceHandler) DeleteTransaction(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}
	txID := h.ParseStringIDParam(c, "tx_id")
	if txID == "" {
		return
	}

	h.LogRequest(c, "Deleting transaction", "ledger_id", ledgerID, "transaction_id", txID)

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.financeService.DeleteTransaction(c.Request.Context(), ledgerID, txID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetLedgerSummary returns the budget-versus-actual totals
// @Summary Get ledger summary
// @Tags finance
// @Produce json
// @Param id path string true "Ledger ID"
// @Success 200 {object} repositories.LedgerSummary
// @Failure 404 {object} ErrorResponse
// @Router /ledgers/{id}/summary [get]
func (h *FinanceHandler) GetLedgerSummary(c *gin.Context) {
	ledgerID := h.ParseStringIDParam(c, "id")
	if ledgerID == "" {
		return
	}

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	summary, err := h.financeService.GetLedgerSummary(c.Request.Context(), ledgerID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *FinanceHandler) parseTransactionFilters(c *gin.Context) repositories.TransactionFilters {
	page := h.ParseIntQuery(c, "page", 1)
	size := h.ParseIntQuery(c, "size", 20)

	filters := repositories.TransactionFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if direction := c.Query("direction"); direction != "" {
		d := models.TransactionDirection(direction)
		filters.Direction = &d
	}
	if category := c.Query("category"); category != "" {
		cat := models.BudgetCategory(category)
		filters.Category = &cat
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
}
