package models

import "github.com/shopspring/decimal"

// MonthlyReport is an immutable summary of one user's calendar month.
// BudgetID may outlive the budget it points to.
type MonthlyReport struct {
	Base
	UserID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_reports_user_period" json:"userId"`
	Month        int             `gorm:"not null;uniqueIndex:idx_reports_user_period" json:"month"`
	Year         int             `gorm:"not null;uniqueIndex:idx_reports_user_period" json:"year"`
	TotalIncome  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalIncome"`
	TotalExpense decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalExpense"`
	Margin       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"margin"`
	BudgetID     string          `gorm:"type:uuid;not null" json:"budgetId"`

	Budget *Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
}

// OwnerID returns the owning user's ID.
func (r *MonthlyReport) OwnerID() string { return r.UserID }
