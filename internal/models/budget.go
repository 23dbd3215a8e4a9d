package models

import "github.com/shopspring/decimal"

// Budget is a monthly plan of expected income and expense. A user has at
// most one active budget; the partial unique index enforces it in storage.
type Budget struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_budgets_single_active,where:is_active" json:"userId"`
	Month           int             `gorm:"not null" json:"month"`
	Year            int             `gorm:"not null" json:"year"`
	Description     string          `gorm:"not null" json:"description"`
	ExpectedIncome  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"expectedIncome"`
	ExpectedExpense decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"expectedExpense"`
	IsActive        bool            `gorm:"not null;default:false" json:"isActive"`
}

// OwnerID returns the owning user's ID.
func (b *Budget) OwnerID() string { return b.UserID }
