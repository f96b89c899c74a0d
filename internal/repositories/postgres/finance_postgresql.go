package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type financeRepository struct {
	db *gorm.DB
}

func NewFinancePostgreSQL(db *gorm.DB) repositories.FinanceRepository {
	return &financeRepository{db: db}
}

// ===== LEDGERS =====

func (r *financeRepository) CreateLedger(ctx context.Context, ledger *models.Ledger) error {
	if err := r.db.WithContext(ctx).Create(ledger).Error; err != nil {
		return handleDBError(err, "create ledger")
	}
	return nil
}

func (r *financeRepository) GetLedger(ctx context.Context, id string) (*models.Ledger, error) {
	var ledger models.Ledger
	if err := r.db.WithContext(ctx).First(&ledger, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get ledger")
	}
	return &ledger, nil
}

func (r *financeRepository) GetLedgerWithDetails(ctx context.Context, id string) (*models.Ledger, error) {
	var ledger models.Ledger
	err := r.db.WithContext(ctx).
		Preload("Budgets").
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("tx_date DESC")
		}).
		First(&ledger, "id = ?", id).Error
	if err != nil {
		return nil, handleDBError(err, "get ledger with details")
	}
	return &ledger, nil
}

func (r *financeRepository) ListLedgersByProject(ctx context.Context, projectID string) ([]*models.Ledger, error) {
	var ledgers []*models.Ledger
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("fiscal_year DESC").
		Find(&ledgers).Error
	if err != nil {
		return nil, handleDBError(err, "list ledgers by project")
	}
	return ledgers, nil
}

func (r *financeRepository) LedgerExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ledger{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "ledger exists by code")
	}
	return count > 0, nil
}

func (r *financeRepository) CloseLedger(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Ledger{}).
		Where("id = ? AND status = ?", id, models.LedgerStatusOpen).
		Update("status", models.LedgerStatusClosed)
	if result.Error != nil {
		return handleDBError(result.Error, "close ledger")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("close ledger: %w", repositories.ErrNotFound)
	}
	return nil
}

// ===== BUDGET LINES =====

func (r *financeRepository) CreateBudgetLine(ctx context.Context, line *models.BudgetLine) error {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return handleDBError(err, "create budget line")
	}
	return nil
}

func (r *financeRepository) UpdateBudgetLine(ctx context.Context, line *models.BudgetLine) error {
	if err := r.db.WithContext(ctx).Save(line).Error; err != nil {
		return handleDBError(err, "update budget line")
	}
	return nil
}

func (r *financeRepository) DeleteBudgetLine(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.BudgetLine{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete budget line")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete budget line: %w", repositories.ErrNotFound)
	}
	return nil
}

func (r *financeRepository) ListBudgetLines(ctx context.Context, ledgerID string) ([]*models.BudgetLine, error) {
	var lines []*models.BudgetLine
	err := r.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("category ASC").
		Find(&lines).Error
	if err != nil {
		return nil, handleDBError(err, "list budget lines")
	}
	return lines, nil
}

// ===== TRANSACTIONS =====

func (r *financeRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return handleDBError(err, "create transaction")
	}
	return nil
}

func (r *financeRepository) CreateTransactionsBatch(ctx context.Context, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(txs, 100).Error; err != nil {
		return handleDBError(err, "create transactions batch")
	}
	return nil
}

func (r *financeRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get transaction")
	}
	return &tx, nil
}

func (r *financeRepository) ListTransactions(ctx context.Context, ledgerID string, filters repositories.TransactionFilters) ([]*models.Transaction, int64, error) {
	var txs []*models.Transaction
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("ledger_id = ?", ledgerID)
	if filters.Direction != nil {
		query = query.Where("direction = ?", *filters.Direction)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.DateFrom != nil {
		query = query.Where("tx_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("tx_date <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count transactions")
	}

	query = applyPaginationAndSort(query, "tx_date", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&txs).Error; err != nil {
		return nil, 0, handleDBError(err, "list transactions")
	}

	return txs, total, nil
}

func (r *financeRepository) DeleteTransaction(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete transaction")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete transaction: %w", repositories.ErrNotFound)
	}
	return nil
}

// ===== SUMMARY =====

func (r *financeRepository) GetLedgerSummary(ctx context.Context, ledgerID string) (*repositories.LedgerSummary, error) {
	summary := &repositories.LedgerSummary{LedgerID: ledgerID}

	err := r.db.WithContext(ctx).
		Model(&models.BudgetLine{}).
		Where("ledger_id = ?", ledgerID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&summary.TotalBudget).Error
	if err != nil {
		return nil, handleDBError(err, "ledger summary budget total")
	}

	var totals struct {
		TotalDebit  float64
		TotalCredit float64
		TxCount     int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("ledger_id = ?", ledgerID).
		Select(
			"COALESCE(SUM(amount) FILTER (WHERE direction = ?), 0) AS total_debit, "+
				"COALESCE(SUM(amount) FILTER (WHERE direction = ?), 0) AS total_credit, "+
				"COUNT(*) AS tx_count",
			models.TransactionDebit, models.TransactionCredit,
		).
		Scan(&totals).Error
	if err != nil {
		return nil, handleDBError(err, "ledger summary transaction totals")
	}

	summary.TotalDebit = totals.TotalDebit
	summary.TotalCredit = totals.TotalCredit
	summary.TxCount = totals.TxCount
	summary.Balance = summary.TotalCredit - summary.TotalDebit
	if summary.TotalBudget > 0 {
		summary.Utilization = summary.TotalDebit / summary.TotalBudget * 100
	}

	return summary, nil
}
