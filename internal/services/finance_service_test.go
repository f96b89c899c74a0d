package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

// ===== FAKES =====

type fakeFinanceRepo struct {
	ledgers    map[string]*models.Ledger
	lines      map[uint]*models.BudgetLine
	txs        map[string]*models.Transaction
	nextLineID uint
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{
		ledgers: make(map[string]*models.Ledger),
		lines:   make(map[uint]*models.BudgetLine),
		txs:     make(map[string]*models.Transaction),
	}
}

func (f *fakeFinanceRepo) CreateLedger(ctx context.Context, ledger *models.Ledger) error {
	for _, l := range f.ledgers {
		if l.Code == ledger.Code {
			return repositories.ErrDuplicate
		}
	}
	f.ledgers[ledger.ID] = ledger
	return nil
}

func (f *fakeFinanceRepo) GetLedger(ctx context.Context, id string) (*models.Ledger, error) {
	if l, ok := f.ledgers[id]; ok {
		return l, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeFinanceRepo) GetLedgerWithDetails(ctx context.Context, id string) (*models.Ledger, error) {
	return f.GetLedger(ctx, id)
}

func (f *fakeFinanceRepo) ListLedgersByProject(ctx context.Context, projectID string) ([]*models.Ledger, error) {
	var out []*models.Ledger
	for _, l := range f.ledgers {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeFinanceRepo) LedgerExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, l := range f.ledgers {
		if l.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFinanceRepo) CloseLedger(ctx context.Context, id string) error {
	l, ok := f.ledgers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	l.Status = models.LedgerStatusClosed
	return nil
}

func (f *fakeFinanceRepo) CreateBudgetLine(ctx context.Context, line *models.BudgetLine) error {
	f.nextLineID++
	line.ID = f.nextLineID
	f.lines[line.ID] = line
	return nil
}

func (f *fakeFinanceRepo) UpdateBudgetLine(ctx context.Context, line *models.BudgetLine) error {
	if _, ok := f.lines[line.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.lines[line.ID] = line
	return nil
}

func (f *fakeFinanceRepo) DeleteBudgetLine(ctx context.Context, id uint) error {
	if _, ok := f.lines[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.lines, id)
	return nil
}

func (f *fakeFinanceRepo) ListBudgetLines(ctx context.Context, ledgerID string) ([]*models.BudgetLine, error) {
	var out []*models.BudgetLine
	for _, line := range f.lines {
		if line.LedgerID == ledgerID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeFinanceRepo) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	f.txs[tx.ID] = tx
	return nil
}

func (f *fakeFinanceRepo) CreateTransactionsBatch(ctx context.Context, txs []*models.Transaction) error {
	for _, tx := range txs {
		f.txs[tx.ID] = tx
	}
	return nil
}

func (f *fakeFinanceRepo) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	if tx, ok := f.txs[id]; ok {
		return tx, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeFinanceRepo) ListTransactions(ctx context.Context, ledgerID string, filters repositories.TransactionFilters) ([]*models.Transaction, int64, error) {
	var out []*models.Transaction
	for _, tx := range f.txs {
		if tx.LedgerID == ledgerID {
			out = append(out, tx)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeFinanceRepo) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := f.txs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeFinanceRepo) GetLedgerSummary(ctx context.Context, ledgerID string) (*repositories.LedgerSummary, error) {
	summary := &repositories.LedgerSummary{LedgerID: ledgerID}
	for _, line := range f.lines {
		if line.LedgerID == ledgerID {
			summary.TotalBudget += line.Amount
		}
	}
	for _, tx := range f.txs {
		if tx.LedgerID != ledgerID {
			continue
		}
		summary.TxCount++
		if tx.Direction == models.TransactionDebit {
			summary.TotalDebit += tx.Amount
		} else {
			summary.TotalCredit += tx.Amount
		}
	}
	summary.Balance = summary.TotalCredit - summary.TotalDebit
	return summary, nil
}

type financeFakeRepo struct {
	*fakeRepo
	finance *fakeFinanceRepo
}

func (f *financeFakeRepo) Finance() repositories.FinanceRepository { return f.finance }

// ===== HELPERS =====

func newFinanceTestRepo() *financeFakeRepo {
	return &financeFakeRepo{
		fakeRepo: &fakeRepo{
			grant: &fakeGrantRepo{grants: map[string]*models.Grant{
				testProjectID: {ID: testProjectID, Code: "PS-001", Status: models.GrantStatusActive},
			}},
			carbon: &fakeCarbonRepo{projects: map[string]*models.CarbonProject{}},
		},
		finance: newFakeFinanceRepo(),
	}
}

func newFinanceTestService(repo *financeFakeRepo, role models.UserRole) FinanceService {
	return NewFinanceService(repo, testEvaluator(role), testLogger(), validator.New())
}

func openLedger(repo *financeFakeRepo) *models.Ledger {
	ledger := &models.Ledger{
		ID:         "ledger-1",
		Code:       "LED-2025-001",
		ProjectID:  testProjectID,
		FiscalYear: 2025,
		Currency:   "IDR",
		Status:     models.LedgerStatusOpen,
	}
	repo.finance.ledgers[ledger.ID] = ledger
	return ledger
}

func txRequest() *CreateTransactionRequest {
	return &CreateTransactionRequest{
		Direction:   models.TransactionDebit,
		Category:    models.BudgetCategoryOperational,
		Amount:      1500000,
		Description: "Seedling purchase",
		TxDate:      time.Now().Add(-24 * time.Hour),
	}
}

// ===== TESTS =====

func TestCreateLedger_DefaultsCurrencyAndStatus(t *testing.T) {
	repo := newFinanceTestRepo()
	svc := newFinanceTestService(repo, models.RoleFinanceManager)

	ledger, err := svc.CreateLedger(context.Background(), &CreateLedgerRequest{
		Code:       "LED-2025-001",
		ProjectID:  testProjectID,
		FiscalYear: 2025,
	}, "user-1")
	if err != nil {
		t.Fatalf("CreateLedger returned error: %v", err)
	}

	if ledger.Currency != "IDR" {
		t.Errorf("expected IDR default currency, got %s", ledger.Currency)
	}
	if ledger.Status != models.LedgerStatusOpen {
		t.Errorf("expected open status, got %s", ledger.Status)
	}
	if _, ok := repo.finance.ledgers[ledger.ID]; !ok {
		t.Error("ledger was not persisted")
	}
}

func TestCreateLedger_DuplicateCode(t *testing.T) {
	repo := newFinanceTestRepo()
	openLedger(repo)
	svc := newFinanceTestService(repo, models.RoleFinanceManager)

	_, err := svc.CreateLedger(context.Background(), &CreateLedgerRequest{
		Code:       "LED-2025-001",
		ProjectID:  testProjectID,
		FiscalYear: 2025,
	}, "user-1")
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestCreateLedger_UnknownProject(t *testing.T) {
	repo := newFinanceTestRepo()
	svc := newFinanceTestService(repo, models.RoleFinanceManager)

	_, err := svc.CreateLedger(context.Background(), &CreateLedgerRequest{
		Code:       "LED-2025-002",
		ProjectID:  "22222222-2222-2222-2222-222222222222",
		FiscalYear: 2025,
	}, "user-1")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestCreateLedger_OperationalRoleDenied(t *testing.T) {
	repo := newFinanceTestRepo()
	svc := newFinanceTestService(repo, models.RoleFinanceOperational)

	_, err := svc.CreateLedger(context.Background(), &CreateLedgerRequest{
		Code:       "LED-2025-003",
		ProjectID:  testProjectID,
		FiscalYear: 2025,
	}, "user-1")
	if !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}

func TestCloseLedger_Persists(t *testing.T) {
	repo := newFinanceTestRepo()
	ledger := openLedger(repo)
	svc := newFinanceTestService(repo, models.RoleFinanceManager)

	if err := svc.CloseLedger(context.Background(), ledger.ID, "user-1"); err != nil {
		t.Fatalf("CloseLedger returned error: %v", err)
	}
	if repo.finance.ledgers[ledger.ID].Status != models.LedgerStatusClosed {
		t.Error("ledger status was not persisted as closed")
	}

	// Closing twice is an error
	if err := svc.CloseLedger(context.Background(), ledger.ID, "user-1"); !errors.Is(err, ErrLedgerClosed) {
		t.Fatalf("expected ErrLedgerClosed on second close, got %v", err)
	}
}

func TestAddBudgetLine_ClosedLedgerRejected(t *testing.T) {
	repo := newFinanceTestRepo()
	ledger := openLedger(repo)
	ledger.Status = models.LedgerStatusClosed
	svc := newFinanceTestService(repo, models.RoleFinanceManager)

	_, err := svc.AddBudgetLine(context.Background(), ledger.ID, &BudgetLineRequest{
		Category: models.BudgetCategoryOperational,
		Amount:   5000000,
	}, "user-1")
	if !errors.Is(err, ErrLedgerClosed) {
		t.Fatalf("expected ErrLedgerClosed, got %v", err)
	}
}

func TestRecordTransaction_Persists(t *testing.T) {
	repo := newFinanceTestRepo()
	ledger := openLedger(repo)
	svc := newFinanceTestService(repo, models.RoleFinanceOperational)

	tx, err := svc.RecordTransaction(context.Background(), ledger.ID, txRequest(), "user-1")
	if err != nil {
		t.Fatalf("RecordTransaction returned error: %v", err)
	}

	stored, ok := repo.finance.txs[tx.ID]
	if !ok {
		t.Fatal("transaction was not persisted")
	}
	if stored.LedgerID != ledger.ID {
		t.Errorf("expected ledger %s, got %s", ledger.ID, stored.LedgerID)
	}
	if stored.RecordedBy != "user-1" {
		t.Errorf("expected recorded_by user-1, got %s", stored.RecordedBy)
	}
}

func TestRecordTransaction_ClosedLedgerRejected(t *testing.T) {
	repo := newFinanceTestRepo()
	ledger := openLedger(repo)
	ledger.Status = models.LedgerStatusClosed
	svc := newFinanceTestService(repo, models.RoleFinanceManager)

	_, err := svc.RecordTransaction(context.Background(), ledger.ID, txRequest(), "user-1")
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if _, ok := verrs.FieldMap()["ledger_status"]; !ok {
		t.Errorf("expected ledger_status violation, got %v", verrs.FieldMap())
	}
	if len(repo.finance.txs) != 0 {
		t.Error("no transaction should be persisted on a closed ledger")
	}
}

func TestDeleteTransaction_WrongLedger(t *testing.T) {
	repo := newFinanceTestRepo()
	ledger := openLedger(repo)
	other := &models.Ledger{
		ID:         "ledger-2",
		Code:       "LED-2025-002",
		ProjectID:  testProjectID,
		FiscalYear: 2025,
		Status:     models.LedgerStatusOpen,
	}
	repo.finance.ledgers[other.ID] = other
	repo.finance.txs["tx-1"] = &models.Transaction{ID: "tx-1", LedgerID: other.ID}

	svc := newFinanceTestService(repo, models.RoleAdmin)

	err := svc.DeleteTransaction(context.Background(), ledger.ID, "tx-1", "user-1")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if _, ok := repo.finance.txs["tx-1"]; !ok {
		t.Error("transaction in the other ledger must survive")
	}
}

func TestGetLedgerSummary_Totals(t *testing.T) {
	repo := newFinanceTestRepo()
	ledger := openLedger(repo)
	repo.finance.lines[1] = &models.BudgetLine{ID: 1, LedgerID: ledger.ID, Category: models.BudgetCategoryOperational, Amount: 10000000}
	for i, amount := range []float64{2500000, 1500000} {
		id := fmt.Sprintf("tx-%d", i)
		repo.finance.txs[id] = &models.Transaction{ID: id, LedgerID: ledger.ID, Direction: models.TransactionDebit, Amount: amount}
	}
	repo.finance.txs["tx-credit"] = &models.Transaction{ID: "tx-credit", LedgerID: ledger.ID, Direction: models.TransactionCredit, Amount: 5000000}

	svc := newFinanceTestService(repo, models.RoleInvestor)

	summary, err := svc.GetLedgerSummary(context.Background(), ledger.ID, "user-1")
	if err != nil {
		t.Fatalf("GetLedgerSummary returned error: %v", err)
	}
	if summary.TotalBudget != 10000000 {
		t.Errorf("expected budget 10000000, got %f", summary.TotalBudget)
	}
	if summary.TotalDebit != 4000000 || summary.TotalCredit != 5000000 {
		t.Errorf("unexpected totals: debit %f credit %f", summary.TotalDebit, summary.TotalCredit)
	}
	if summary.TxCount != 3 {
		t.Errorf("expected 3 transactions, got %d", summary.TxCount)
	}
}

func TestListLedgersByProject_ViewerDenied(t *testing.T) {
	repo := newFinanceTestRepo()
	openLedger(repo)
	svc := newFinanceTestService(repo, models.RoleViewer)

	_, err := svc.ListLedgersByProject(context.Background(), testProjectID, "user-1")
	if !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}
