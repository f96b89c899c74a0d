package models

import (
	"time"

	"gorm.io/gorm"
)

type LedgerStatus string

const (
	LedgerStatusOpen   LedgerStatus = "open"
	LedgerStatusClosed LedgerStatus = "closed"
)

// Ledger is the financial book for a single project and fiscal year.
type Ledger struct {
	ID         string       `json:"id" gorm:"primaryKey;size:36"`
	Code       string       `json:"code" gorm:"uniqueIndex;not null;size:50"`
	ProjectID  string       `json:"project_id" gorm:"not null;size:36;index"`
	FiscalYear int          `json:"fiscal_year" gorm:"not null;index"`
	Currency   string       `json:"currency" gorm:"size:3;default:IDR"`
	Status     LedgerStatus `json:"status" gorm:"size:10;default:open"`

	CreatedBy string `json:"created_by" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Budgets      []BudgetLine  `json:"budgets,omitempty" gorm:"foreignKey:LedgerID"`
	Transactions []Transaction `json:"transactions,omitempty" gorm:"foreignKey:LedgerID"`
}

func (Ledger) TableName() string {
	return "ledgers"
}

type BudgetCategory string

const (
	BudgetCategoryOperational    BudgetCategory = "operational"
	BudgetCategoryImplementation BudgetCategory = "implementation"
	BudgetCategoryCarbon         BudgetCategory = "carbon"
	BudgetCategorySocial         BudgetCategory = "social"
	BudgetCategoryMonitoring     BudgetCategory = "monitoring"
)

// BudgetLine is one planned allocation within a ledger.
type BudgetLine struct {
	ID       uint           `json:"id" gorm:"primaryKey"`
	LedgerID string         `json:"ledger_id" gorm:"not null;size:36;index"`
	Category BudgetCategory `json:"category" gorm:"not null;size:30"`

	Description string  `json:"description" gorm:"size:500"`
	Amount      float64 `json:"amount" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BudgetLine) TableName() string {
	return "budget_lines"
}

type TransactionDirection string

const (
	TransactionDebit  TransactionDirection = "debit"
	TransactionCredit TransactionDirection = "credit"
)

// Transaction is one recorded financial movement in a ledger.
type Transaction struct {
	ID        string               `json:"id" gorm:"primaryKey;size:36"`
	LedgerID  string               `json:"ledger_id" gorm:"not null;size:36;index"`
	Direction TransactionDirection `json:"direction" gorm:"not null;size:6"`

	Category    BudgetCategory `json:"category" gorm:"not null;size:30"`
	Amount      float64        `json:"amount" gorm:"not null"`
	Description string         `json:"description" gorm:"size:500"`
	Reference   *string        `json:"reference" gorm:"size:100"`
	TxDate      time.Time      `json:"tx_date" gorm:"not null;index"`

	RecordedBy string `json:"recorded_by" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Transaction) TableName() string {
	return "transactions"
}
