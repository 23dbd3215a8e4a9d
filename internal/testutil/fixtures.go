package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pocketbook/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal and fails the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// CreateTestUser creates a verified user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a verified user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Roles:        models.Roles{"user"},
		IsVerified:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category, as a child of parentID when it is non-nil.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, parentID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:           userID,
		Name:             fmt.Sprintf("Test Category %d", nextID()),
		ParentCategoryID: parentID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates a budget for the given period. Only one active
// budget per user can exist, so callers pass active=false for extras.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, month, year int, active bool) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:          userID,
		Month:           month,
		Year:            year,
		Description:     fmt.Sprintf("test budget %d", nextID()),
		ExpectedIncome:  decimal.NewFromInt(3000),
		ExpectedExpense: decimal.NewFromInt(2000),
		IsActive:        active,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestTransaction creates a one-off transaction. Positive amounts are income.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, amount string, date time.Time, categoryID *string) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:       userID,
		Description:  fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:       Dec(t, amount),
		Date:         date.UTC(),
		CategoryID:   categoryID,
		Installments: 1,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// CreateTestSavingGoal creates a goal running for a year from now.
func CreateTestSavingGoal(t *testing.T, db *gorm.DB, userID string, target, monthly, current string) *models.SavingGoal {
	t.Helper()

	start := time.Now().UTC().Truncate(time.Second)
	goal := &models.SavingGoal{
		UserID:             userID,
		Name:               fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:       Dec(t, target),
		MonthlySavingGoal:  Dec(t, monthly),
		CurrentSavedAmount: Dec(t, current),
		StartDate:          start,
		TargetDate:         start.AddDate(1, 0, 0),
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test saving goal: %v", err)
	}
	return goal
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
