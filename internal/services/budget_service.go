package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"pocketbook/internal/authz"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
)

const (
	minBudgetDescription = 5
	maxBudgetDescription = 100
	minBudgetYear        = 2000
	maxBudgetYear        = 9999
)

// budgetService handles budget-related business logic. Every write that
// activates a budget first deactivates the user's other budgets inside the
// same database transaction; the partial unique index on active budgets
// rejects whichever of two concurrent activations commits second.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a budget and makes it the user's only active one.
func (s *budgetService) CreateBudget(userID string, in BudgetInput) (*models.Budget, error) {
	budget := &models.Budget{
		UserID:          userID,
		Month:           in.Month,
		Year:            in.Year,
		Description:     in.Description,
		ExpectedIncome:  in.ExpectedIncome,
		ExpectedExpense: in.ExpectedExpense,
		IsActive:        true,
	}
	if err := normalizeBudget(budget); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := deactivateBudgets(tx, userID); err != nil {
			return err
		}
		return tx.Create(budget).Error
	})
	if err != nil {
		return nil, activationError(err)
	}

	return budget, nil
}

// SearchBudgets returns the user's budgets matching filter, newest period first.
func (s *budgetService) SearchBudgets(userID string, filter BudgetFilter) ([]models.Budget, error) {
	q := s.db.Where("user_id = ?", userID)

	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", filter.CreatedTo.UTC())
	}
	if desc := strings.TrimSpace(filter.Description); desc != "" {
		q = q.Where(`LOWER(description) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(desc))+"%")
	}
	if filter.MinIncome != nil {
		q = q.Where("expected_income >= ?", *filter.MinIncome)
	}
	if filter.MaxIncome != nil {
		q = q.Where("expected_income <= ?", *filter.MaxIncome)
	}
	if filter.MinExpense != nil {
		q = q.Where("expected_expense >= ?", *filter.MinExpense)
	}
	if filter.MaxExpense != nil {
		q = q.Where("expected_expense <= ?", *filter.MaxExpense)
	}

	budgets := []models.Budget{}
	if err := q.Order("year DESC").Order("month DESC").Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetBudgetByID returns a budget owned by userID.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	return authz.LoadOwned[models.Budget](s.db, budgetID, userID, apperrors.ErrBudgetNotFound)
}

// GetActiveBudget returns the user's active budget.
func (s *budgetService) GetActiveBudget(userID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget never edits a budget in place: it deactivates the original
// and inserts a new active budget carrying the merged fields.
func (s *budgetService) UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error) {
	original, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	next := &models.Budget{
		UserID:          userID,
		Month:           original.Month,
		Year:            original.Year,
		Description:     original.Description,
		ExpectedIncome:  original.ExpectedIncome,
		ExpectedExpense: original.ExpectedExpense,
		IsActive:        true,
	}
	if in.Month != nil {
		next.Month = *in.Month
	}
	if in.Year != nil {
		next.Year = *in.Year
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.ExpectedIncome != nil {
		next.ExpectedIncome = *in.ExpectedIncome
	}
	if in.ExpectedExpense != nil {
		next.ExpectedExpense = *in.ExpectedExpense
	}
	if err := normalizeBudget(next); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deactivateBudgets(tx, userID); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
	if err != nil {
		return nil, activationError(err)
	}

	return next, nil
}

// ActivateBudget makes the budget the user's only active one.
func (s *budgetService) ActivateBudget(userID, budgetID string) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.IsActive {
		return budget, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deactivateBudgets(tx, userID); err != nil {
			return err
		}
		return tx.Model(budget).Update("is_active", true).Error
	})
	if err != nil {
		return nil, activationError(err)
	}

	budget.IsActive = true
	return budget, nil
}

// DeleteBudget hard-deletes a budget. Reports that reference it are kept.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func deactivateBudgets(tx *gorm.DB, userID string) error {
	return tx.Model(&models.Budget{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}

func activationError(err error) error {
	if isUniqueViolation(err) {
		return apperrors.Wrap(apperrors.ErrActiveBudgetConflict, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// normalizeBudget validates b and stores its description lowercased.
func normalizeBudget(b *models.Budget) error {
	if b.Month < 1 || b.Month > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if b.Year < minBudgetYear || b.Year > maxBudgetYear {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 2000 and 9999")
	}

	b.Description = strings.ToLower(strings.TrimSpace(b.Description))
	if n := len([]rune(b.Description)); n < minBudgetDescription || n > maxBudgetDescription {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be between 5 and 100 characters")
	}

	if b.ExpectedIncome.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "expected income cannot be negative")
	}
	if b.ExpectedExpense.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "expected expense cannot be negative")
	}
	b.ExpectedIncome = b.ExpectedIncome.Round(2)
	b.ExpectedExpense = b.ExpectedExpense.Round(2)
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
