package services

import (
	"strings"

	"gorm.io/gorm"

	"pocketbook/internal/authz"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
)

const (
	minGoalName = 3
	maxGoalName = 100
)

// savingGoalService handles saving goal business logic. Derived progress
// fields are computed on every read and never stored.
type savingGoalService struct {
	db *gorm.DB
}

// NewSavingGoalService creates a new SavingGoalServicer.
func NewSavingGoalService(db *gorm.DB) SavingGoalServicer {
	return &savingGoalService{db: db}
}

// CreateSavingGoal validates and stores a new goal.
func (s *savingGoalService) CreateSavingGoal(userID string, in SavingGoalInput) (*models.SavingGoalView, error) {
	goal := &models.SavingGoal{
		UserID:             userID,
		Name:               in.Name,
		TargetAmount:       in.TargetAmount,
		MonthlySavingGoal:  in.MonthlySavingGoal,
		CurrentSavedAmount: in.CurrentSavedAmount,
		StartDate:          in.StartDate,
		TargetDate:         in.TargetDate,
	}
	if err := validateSavingGoal(goal, false); err != nil {
		return nil, err
	}

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	view := models.NewSavingGoalView(*goal)
	return &view, nil
}

// GetUserSavingGoals lists the user's goals, newest first. The status filter
// runs on the computed completion state, so pagination happens after it.
func (s *savingGoalService) GetUserSavingGoals(userID string, status GoalStatus, page pagination.PageRequest) (*pagination.PageResponse[models.SavingGoalView], error) {
	var goals []models.SavingGoal
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]models.SavingGoalView, 0, len(goals))
	for _, g := range goals {
		view := models.NewSavingGoalView(g)
		switch status {
		case GoalCompleted:
			if !view.IsCompleted {
				continue
			}
		case GoalActive:
			if view.IsCompleted {
				continue
			}
		}
		views = append(views, view)
	}

	result := pagination.Slice(views, page)
	return &result, nil
}

// GetSavingGoalByID retrieves a goal owned by userID.
func (s *savingGoalService) GetSavingGoalByID(userID, goalID string) (*models.SavingGoalView, error) {
	goal, err := authz.LoadOwned[models.SavingGoal](s.db, goalID, userID, apperrors.ErrSavingGoalNotFound)
	if err != nil {
		return nil, err
	}

	view := models.NewSavingGoalView(*goal)
	return &view, nil
}

// UpdateSavingGoal merges the given fields and re-validates the result. The
// saved amount may reach or pass the target here, completing the goal.
func (s *savingGoalService) UpdateSavingGoal(userID, goalID string, in SavingGoalUpdate) (*models.SavingGoalView, error) {
	goal, err := authz.LoadOwned[models.SavingGoal](s.db, goalID, userID, apperrors.ErrSavingGoalNotFound)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		goal.Name = *in.Name
	}
	if in.TargetAmount != nil {
		goal.TargetAmount = *in.TargetAmount
	}
	if in.MonthlySavingGoal != nil {
		goal.MonthlySavingGoal = *in.MonthlySavingGoal
	}
	if in.CurrentSavedAmount != nil {
		goal.CurrentSavedAmount = *in.CurrentSavedAmount
	}
	if in.StartDate != nil {
		goal.StartDate = *in.StartDate
	}
	if in.TargetDate != nil {
		goal.TargetDate = *in.TargetDate
	}

	if err := validateSavingGoal(goal, true); err != nil {
		return nil, err
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	view := models.NewSavingGoalView(*goal)
	return &view, nil
}

// DeleteSavingGoal hard-deletes a goal and returns the deleted record.
func (s *savingGoalService) DeleteSavingGoal(userID, goalID string) (*models.SavingGoal, error) {
	goal, err := authz.LoadOwned[models.SavingGoal](s.db, goalID, userID, apperrors.ErrSavingGoalNotFound)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// validateSavingGoal checks a goal against its invariants. With allowComplete
// the saved amount may reach the target and the monthly amount is only
// bounded by the remainder while something remains to be saved.
func validateSavingGoal(g *models.SavingGoal, allowComplete bool) error {
	invalid := func(msg string) error {
		return apperrors.WithMessage(apperrors.ErrInvalidSavingGoal, msg)
	}

	g.Name = strings.TrimSpace(g.Name)
	if n := len([]rune(g.Name)); n < minGoalName || n > maxGoalName {
		return invalid("name must be between 3 and 100 characters")
	}

	g.TargetAmount = g.TargetAmount.Round(2)
	g.MonthlySavingGoal = g.MonthlySavingGoal.Round(2)
	g.CurrentSavedAmount = g.CurrentSavedAmount.Round(2)

	if !g.TargetAmount.IsPositive() {
		return invalid("target amount must be greater than zero")
	}
	if !g.MonthlySavingGoal.IsPositive() {
		return invalid("monthly saving goal must be greater than zero")
	}
	if g.CurrentSavedAmount.IsNegative() {
		return invalid("current saved amount cannot be negative")
	}
	if !allowComplete && !g.CurrentSavedAmount.LessThan(g.TargetAmount) {
		return invalid("current saved amount must be less than the target amount")
	}

	g.StartDate = g.StartDate.UTC()
	g.TargetDate = g.TargetDate.UTC()
	if g.StartDate.IsZero() || g.TargetDate.IsZero() {
		return invalid("start date and target date are required")
	}
	if !g.StartDate.Before(g.TargetDate) {
		return invalid("start date must be before the target date")
	}

	if g.MonthlySavingGoal.GreaterThan(g.TargetAmount) {
		return invalid("monthly saving goal cannot exceed the target amount")
	}
	remaining := g.RemainingAmount()
	if (!allowComplete || remaining.IsPositive()) && g.MonthlySavingGoal.GreaterThan(remaining) {
		return invalid("monthly saving goal cannot exceed the remaining amount")
	}
	return nil
}
