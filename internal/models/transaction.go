package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurrenceFrequency is how often a recurrent transaction repeats.
type RecurrenceFrequency string

const (
	RecurrenceMonthly RecurrenceFrequency = "monthly"
	RecurrenceYearly  RecurrenceFrequency = "yearly"
)

// Valid reports whether f is a supported frequency.
func (f RecurrenceFrequency) Valid() bool {
	return f == RecurrenceMonthly || f == RecurrenceYearly
}

// Transaction is a single journal entry. Positive amounts are income,
// negative amounts are expenses.
type Transaction struct {
	Base
	UserID              string               `gorm:"type:uuid;not null;index" json:"userId"`
	Description         string               `gorm:"not null" json:"description"`
	Amount              decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date                time.Time            `gorm:"not null;index" json:"date"`
	CategoryID          *string              `gorm:"type:uuid;index" json:"categoryId"`
	IsRecurrent         bool                 `gorm:"not null;default:false" json:"isRecurrent"`
	RecurrenceFrequency *RecurrenceFrequency `gorm:"size:16" json:"recurrenceFrequency"`
	Installments        int                  `gorm:"not null;default:1" json:"installments"`
	InstallmentsPaid    int                  `gorm:"not null;default:0" json:"installmentsPaid"`
}

// OwnerID returns the owning user's ID.
func (t *Transaction) OwnerID() string { return t.UserID }

// IsIncome reports whether the amount is positive.
func (t *Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// IsExpense reports whether the amount is negative.
func (t *Transaction) IsExpense() bool { return t.Amount.IsNegative() }
