package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingGoal tracks progress towards a target amount.
type SavingGoal struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;index" json:"userId"`
	Name               string          `gorm:"not null" json:"name"`
	TargetAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"targetAmount"`
	MonthlySavingGoal  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"monthlySavingGoal"`
	CurrentSavedAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"currentSavedAmount"`
	StartDate          time.Time       `gorm:"not null" json:"startDate"`
	TargetDate         time.Time       `gorm:"not null" json:"targetDate"`
}

// OwnerID returns the owning user's ID.
func (g *SavingGoal) OwnerID() string { return g.UserID }

// IsCompleted reports whether the saved amount reached the target.
func (g *SavingGoal) IsCompleted() bool {
	return g.CurrentSavedAmount.GreaterThanOrEqual(g.TargetAmount)
}

// RemainingAmount is the amount still to save, never negative.
func (g *SavingGoal) RemainingAmount() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentSavedAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ProgressPercentage is current/target*100 rounded to two decimals.
func (g *SavingGoal) ProgressPercentage() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	return g.CurrentSavedAmount.
		Div(g.TargetAmount).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

// SavingGoalView is a saving goal decorated with derived fields. The derived
// fields are computed on read and never stored.
type SavingGoalView struct {
	SavingGoal
	IsCompleted        bool            `json:"isCompleted"`
	ProgressPercentage float64         `json:"progressPercentage"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
}

// NewSavingGoalView computes the derived fields of g.
func NewSavingGoalView(g SavingGoal) SavingGoalView {
	return SavingGoalView{
		SavingGoal:         g,
		IsCompleted:        g.IsCompleted(),
		ProgressPercentage: g.ProgressPercentage(),
		RemainingAmount:    g.RemainingAmount(),
	}
}
