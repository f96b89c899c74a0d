package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

// Spreadsheet layouts. Import expects the transaction header row exactly.
var (
	grantExportHeader = []string{
		"Code", "Name", "Status", "Scheme", "Regency", "Province",
		"Area (ha)", "Permit Number", "Permit Date", "Valid Until", "Created At",
	}
	ledgerExportHeader = []string{
		"Date", "Direction", "Category", "Amount", "Description", "Reference", "Recorded By",
	}
	transactionImportHeader = []string{
		"direction", "category", "amount", "description", "reference", "tx_date",
	}
)

const exportDateLayout = "2006-01-02"

type importExportService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, evaluator *rbac.Evaluator, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== EXPORT =====

func (s *importExportService) ExportGrants(ctx context.Context, filters repositories.GrantFilters, userID string) ([]byte, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionExportReports, userID) {
		return nil, NewPermissionError(userID, "", "grant_export", "export", "insufficient role permissions")
	}

	s.logger.Info("Exporting grants", "user_id", userID)

	// Export ignores pagination and pulls the whole filtered set.
	filters.Limit = 0
	filters.Offset = 0

	grants, _, err := s.repo.Grant().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Grants"
	f.SetSheetName(f.GetSheetName(0), sheet)

	if err := s.writeHeaderRow(f, sheet, grantExportHeader); err != nil {
		return nil, err
	}

	for i, grant := range grants {
		row := []interface{}{
			grant.Code,
			grant.Name,
			string(grant.Status),
			string(grant.Scheme),
			grant.Regency,
			grant.Province,
			grant.AreaHa,
			strDeref(grant.PermitNumber),
			dateDeref(grant.PermitDate),
			dateDeref(grant.ValidUntil),
			grant.CreatedAt.Format(exportDateLayout),
		}
		if err := s.writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render grant export: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importExportService) ExportLedger(ctx context.Context, ledgerID string, userID string) ([]byte, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionExportReports, userID) {
		return nil, NewPermissionError(userID, ledgerID, "ledger_export", "export", "insufficient role permissions")
	}

	s.logger.Info("Exporting ledger", "ledger_id", ledgerID, "user_id", userID)

	ledger, err := s.repo.Finance().GetLedgerWithDetails(ctx, ledgerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to get ledger for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	f.SetSheetName(f.GetSheetName(0), sheet)

	if err := s.writeHeaderRow(f, sheet, ledgerExportHeader); err != nil {
		return nil, err
	}

	for i, tx := range ledger.Transactions {
		row := []interface{}{
			tx.TxDate.Format(exportDateLayout),
			string(tx.Direction),
			string(tx.Category),
			tx.Amount,
			tx.Description,
			strDeref(tx.Reference),
			tx.RecordedBy,
		}
		if err := s.writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to add summary sheet: %w", err)
	}
	summary, err := s.repo.Finance().GetLedgerSummary(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger summary for export: %w", err)
	}
	summaryRows := [][]interface{}{
		{"Ledger Code", ledger.Code},
		{"Fiscal Year", ledger.FiscalYear},
		{"Currency", ledger.Currency},
		{"Total Budget", summary.TotalBudget},
		{"Total Debit", summary.TotalDebit},
		{"Total Credit", summary.TotalCredit},
		{"Balance", summary.Balance},
		{"Utilization (%)", summary.Utilization},
	}
	for i, row := range summaryRows {
		if err := s.writeRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render ledger export: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== IMPORT =====

// ImportTransactions reads an xlsx of transactions and records them against
// the ledger in one batch. Bad rows are skipped and reported; a file with no
// usable rows still returns a result rather than an error.
func (s *importExportService) ImportTransactions(ctx context.Context, ledgerID string, file io.Reader, userID string) (*ImportResult, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionImportData, userID) {
		return nil, NewPermissionError(userID, ledgerID, "transaction_import", "import", "insufficient role permissions")
	}

	ledger, err := s.repo.Finance().GetLedger(ctx, ledgerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if ledger.Status == models.LedgerStatusClosed {
		return nil, ErrLedgerClosed
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, NewBusinessRuleError("import_empty", "spreadsheet has no rows")
	}
	if err := s.checkImportHeader(rows[0]); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	txs := make([]*models.Transaction, 0, len(rows)-1)

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		tx, err := s.parseTransactionRow(row, ledger, userID)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		txs = append(txs, tx)
	}

	if err := s.repo.Finance().CreateTransactionsBatch(ctx, txs); err != nil {
		return nil, fmt.Errorf("failed to persist imported transactions: %w", err)
	}
	result.Imported = len(txs)

	s.logger.Info("Imported transactions",
		"ledger_id", ledgerID,
		"user_id", userID,
		"imported", result.Imported,
		"skipped", result.Skipped)

	if result.Imported > 0 {
		event := events.NewEvent(events.EventTransactionsImported, map[string]interface{}{
			"ledger_id":   ledgerID,
			"imported":    result.Imported,
			"skipped":     result.Skipped,
			"imported_by": userID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish import event", "ledger_id", ledgerID, "error", err)
		}
	}

	return result, nil
}

func (s *importExportService) checkImportHeader(header []string) error {
	if len(header) < len(transactionImportHeader) {
		return NewBusinessRuleError("import_header", "spreadsheet header is incomplete")
	}
	for i, want := range transactionImportHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return NewBusinessRuleError("import_header",
				fmt.Sprintf("expected column %d to be %q, got %q", i+1, want, header[i]))
		}
	}
	return nil
}

func (s *importExportService) parseTransactionRow(row []string, ledger *models.Ledger, userID string) (*models.Transaction, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	amount, err := strconv.ParseFloat(cell(2), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", cell(2))
	}

	txDate, err := parseImportDate(cell(5))
	if err != nil {
		return nil, err
	}

	req := &validator.TransactionCreateRequest{
		Direction:   models.TransactionDirection(strings.ToLower(cell(0))),
		Category:    models.BudgetCategory(strings.ToLower(cell(1))),
		Amount:      amount,
		Description: cell(3),
		TxDate:      txDate,
	}
	if ref := cell(4); ref != "" {
		req.Reference = &ref
	}

	if errs := s.validator.GetBusinessValidator().ValidateTransactionCreate(req, ledger.Status); len(errs) > 0 {
		return nil, errs
	}

	return &models.Transaction{
		ID:          uuid.New().String(),
		LedgerID:    ledger.ID,
		Direction:   req.Direction,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		TxDate:      req.TxDate,
		RecordedBy:  userID,
	}, nil
}

// ===== HELPERS =====

func (s *importExportService) writeHeaderRow(f *excelize.File, sheet string, header []string) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return s.writeRow(f, sheet, 1, row)
}

func (s *importExportService) writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func parseImportDate(value string) (time.Time, error) {
	for _, layout := range []string{exportDateLayout, time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateDeref(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateLayout)
}
