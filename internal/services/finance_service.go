package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type financeService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	logger    *slog.Logger
	validator *validator.Validator
}

func NewFinanceService(repo repositories.Repository, evaluator *rbac.Evaluator, logger *slog.Logger, validator *validator.Validator) FinanceService {
	return &financeService{
		repo:      repo,
		evaluator: evaluator,
		logger:    logger,
		validator: validator,
	}
}

// ===== LEDGERS =====

func (s *financeService) CreateLedger(ctx context.Context, req *CreateLedgerRequest, userID string) (*models.Ledger, error) {
	s.logger.Info("Creating ledger", "user_id", userID, "code", req.Code, "project_id", req.ProjectID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageBudgets(ctx, userID) {
		return nil, NewPermissionError(userID, "", "ledger", "create", "insufficient role permissions")
	}

	if err := s.resolveProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	exists, err := s.repo.Finance().LedgerExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check ledger code uniqueness: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("ledger code %s: %w", req.Code, ErrDuplicateCode)
	}

	ledger := &models.Ledger{
		ID:         uuid.New().String(),
		Code:       req.Code,
		ProjectID:  req.ProjectID,
		FiscalYear: req.FiscalYear,
		Currency:   req.Currency,
		Status:     models.LedgerStatusOpen,
		CreatedBy:  userID,
	}
	if ledger.Currency == "" {
		ledger.Currency = "IDR"
	}

	if err := s.repo.Finance().CreateLedger(ctx, ledger); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("ledger code %s: %w", req.Code, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	return ledger, nil
}

func (s *financeService) GetLedger(ctx context.Context, id string, userID string) (*models.Ledger, error) {
	if !s.evaluator.CanViewFinancials(ctx, userID) {
		return nil, NewPermissionError(userID, id, "ledger", "read", "insufficient role permissions")
	}
	return s.fetchLedger(ctx, id)
}

func (s *financeService) GetLedgerWithDetails(ctx context.Context, id string, userID string) (*models.Ledger, error) {
	if !s.evaluator.CanViewFinancials(ctx, userID) {
		return nil, NewPermissionError(userID, id, "ledger", "read", "insufficient role permissions")
	}

	ledger, err := s.repo.Finance().GetLedgerWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return ledger, nil
}

func (s *financeService) ListLedgersByProject(ctx context.Context, projectID string, userID string) ([]*models.Ledger, error) {
	if !s.evaluator.CanViewFinancials(ctx, userID) {
		return nil, NewPermissionError(userID, projectID, "ledger", "list", "insufficient role permissions")
	}

	ledgers, err := s.repo.Finance().ListLedgersByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	return ledgers, nil
}

func (s *financeService) CloseLedger(ctx context.Context, id string, userID string) error {
	s.logger.Info("Closing ledger", "ledger_id", id, "user_id", userID)

	if !s.evaluator.CanManageBudgets(ctx, userID) {
		return NewPermissionError(userID, id, "ledger", "close", "insufficient role permissions")
	}

	ledger, err := s.fetchLedger(ctx, id)
	if err != nil {
		return err
	}
	if ledger.Status == models.LedgerStatusClosed {
		return ErrLedgerClosed
	}

	if err := s.repo.Finance().CloseLedger(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLedgerClosed
		}
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	return nil
}

// ===== BUDGET LINES =====

func (s *financeService) AddBudgetLine(ctx context.Context, ledgerID string, req *BudgetLineRequest, userID string) (*models.BudgetLine, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageBudgets(ctx, userID) {
		return nil, NewPermissionError(userID, ledgerID, "budget_line", "create", "insufficient role permissions")
	}

	ledger, err := s.fetchLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.Status == models.LedgerStatusClosed {
		return nil, ErrLedgerClosed
	}

	line := &models.BudgetLine{
		LedgerID:    ledgerID,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
	}

	if err := s.repo.Finance().CreateBudgetLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to create budget line: %w", err)
	}
	return line, nil
}

func (s *financeService) UpdateBudgetLine(ctx context.Context, ledgerID string, lineID uint, req *BudgetLineRequest, userID string) (*models.BudgetLine, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageBudgets(ctx, userID) {
		return nil, NewPermissionError(userID, ledgerID, "budget_line", "update", "insufficient role permissions")
	}

	ledger, err := s.fetchLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.Status == models.LedgerStatusClosed {
		return nil, ErrLedgerClosed
	}

	line := &models.BudgetLine{
		ID:          lineID,
		LedgerID:    ledgerID,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
	}

	if err := s.repo.Finance().UpdateBudgetLine(ctx, line); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to update budget line: %w", err)
	}
	return line, nil
}

func (s *financeService) DeleteBudgetLine(ctx context.Context, ledgerID string, lineID uint, userID string) error {
	if !s.evaluator.CanManageBudgets(ctx, userID) {
		return NewPermissionError(userID, ledgerID, "budget_line", "delete", "insufficient role permissions")
	}

	ledger, err := s.fetchLedger(ctx, ledgerID)
	if err != nil {
		return err
	}
	if ledger.Status == models.LedgerStatusClosed {
		return ErrLedgerClosed
	}

	if err := s.repo.Finance().DeleteBudgetLine(ctx, lineID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLedgerNotFound
		}
		return fmt.Errorf("failed to delete budget line: %w", err)
	}
	return nil
}

func (s *financeService) ListBudgetLines(ctx context.Context, ledgerID string, userID string) ([]*models.BudgetLine, error) {
	if !s.evaluator.CanViewFinancials(ctx, userID) {
		return nil, NewPermissionError(userID, ledgerID, "budget_line", "list", "insufficient role permissions")
	}

	if _, err := s.fetchLedger(ctx, ledgerID); err != nil {
		return nil, err
	}

	lines, err := s.repo.Finance().ListBudgetLines(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget lines: %w", err)
	}
	return lines, nil
}

// ===== TRANSACTIONS =====

func (s *financeService) RecordTransaction(ctx context.Context, ledgerID string, req *CreateTransactionRequest, userID string) (*models.Transaction, error) {
	s.logger.Info("Recording transaction",
		"ledger_id", ledgerID,
		"user_id", userID,
		"direction", req.Direction,
		"amount", req.Amount)

	if !s.evaluator.CanManageTransactions(ctx, userID) {
		return nil, NewPermissionError(userID, ledgerID, "transaction", "create", "insufficient role permissions")
	}

	ledger, err := s.fetchLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateTransactionCreate(req, ledger.Status); len(errs) > 0 {
		return nil, errs
	}

	tx := &models.Transaction{
		ID:          uuid.New().String(),
		LedgerID:    ledgerID,
		Direction:   req.Direction,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		TxDate:      req.TxDate,
		RecordedBy:  userID,
	}

	if err := s.repo.Finance().CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return tx, nil
}

func (s *financeService) ListTransactions(ctx context.Context, ledgerID string, filters repositories.TransactionFilters, userID string) (*TransactionListResponse, error) {
	if !s.evaluator.CanViewFinancials(ctx, userID) {
		return nil, NewPermissionError(userID, ledgerID, "transaction", "list", "insufficient role permissions")
	}

	if _, err := s.fetchLedger(ctx, ledgerID); err != nil {
		return nil, err
	}

	txs, total, err := s.repo.Finance().ListTransactions(ctx, ledgerID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &TransactionListResponse{
		Transactions: txs,
		Total:        total,
		Page:         page,
		Size:         len(txs),
	}, nil
}

func (s *financeService) DeleteTransaction(ctx context.Context, ledgerID, txID string, userID string) error {
	s.logger.Info("Deleting transaction", "ledger_id", ledgerID, "transaction_id", txID, "user_id", userID)

	if !s.evaluator.CanDelete(ctx, userID) {
		return NewPermissionError(userID, txID, "transaction", "delete", "insufficient role permissions")
	}

	ledger, err := s.fetchLedger(ctx, ledgerID)
	if err != nil {
		return err
	}
	if ledger.Status == models.LedgerStatusClosed {
		return ErrLedgerClosed
	}

	tx, err := s.repo.Finance().GetTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx.LedgerID != ledgerID {
		return ErrTransactionNotFound
	}

	if err := s.repo.Finance().DeleteTransaction(ctx, txID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ===== SUMMARY =====

func (s *financeService) GetLedgerSummary(ctx context.Context, ledgerID string, userID string) (*repositories.LedgerSummary, error) {
	if !s.evaluator.CanViewFinancials(ctx, userID) {
		return nil, NewPermissionError(userID, ledgerID, "ledger_summary", "read", "insufficient role permissions")
	}

	if _, err := s.fetchLedger(ctx, ledgerID); err != nil {
		return nil, err
	}

	summary, err := s.repo.Finance().GetLedgerSummary(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger summary: %w", err)
	}
	return summary, nil
}

// ===== HELPERS =====

func (s *financeService) fetchLedger(ctx context.Context, id string) (*models.Ledger, error) {
	ledger, err := s.repo.Finance().GetLedger(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return ledger, nil
}

func (s *financeService) resolveProject(ctx context.Context, projectID string) error {
	if _, err := s.repo.Grant().GetByID(ctx, projectID); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to resolve project: %w", err)
	}

	if _, err := s.repo.Carbon().GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to resolve project: %w", err)
	}
	return nil
}
