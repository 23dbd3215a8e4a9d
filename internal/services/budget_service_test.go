package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pocketbook/internal/models"
	"pocketbook/internal/testutil"
	"pocketbook/internal/uuid"
)

func validBudgetInput() BudgetInput {
	return BudgetInput{
		Month:           3,
		Year:            2024,
		Description:     "March Household",
		ExpectedIncome:  decimal.NewFromInt(5000),
		ExpectedExpense: decimal.NewFromInt(3500),
	}
}

func countActiveBudgets(t *testing.T, svc BudgetServicer, userID string) int {
	t.Helper()
	budgets, err := svc.SearchBudgets(userID, BudgetFilter{})
	require.NoError(t, err)
	n := 0
	for _, b := range budgets {
		if b.IsActive {
			n++
		}
	}
	return n
}

func countBudgetRows(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Budget{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, validBudgetInput())
		testutil.AssertNoError(t, err)

		assert.NotEmpty(t, budget.ID)
		assert.True(t, budget.IsActive)
		assert.Equal(t, "march household", budget.Description)
		assert.True(t, budget.ExpectedIncome.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("deactivates_previous", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		old := testutil.CreateTestBudget(t, db, user.ID, 2, 2024, true)

		created, err := svc.CreateBudget(user.ID, validBudgetInput())
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetBudgetByID(user.ID, old.ID)
		testutil.AssertNoError(t, err)
		assert.False(t, reloaded.IsActive)

		active, err := svc.GetActiveBudget(user.ID)
		testutil.AssertNoError(t, err)
		assert.Equal(t, created.ID, active.ID)
		assert.Equal(t, 1, countActiveBudgets(t, svc, user.ID))
	})

	t.Run("other_users_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		theirs := testutil.CreateTestBudget(t, db, other.ID, 3, 2024, true)

		_, err := svc.CreateBudget(user.ID, validBudgetInput())
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetBudgetByID(other.ID, theirs.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, reloaded.IsActive)
	})

	cases := []struct {
		name   string
		mutate func(*BudgetInput)
	}{
		{"month_zero", func(in *BudgetInput) { in.Month = 0 }},
		{"month_thirteen", func(in *BudgetInput) { in.Month = 13 }},
		{"year_too_small", func(in *BudgetInput) { in.Year = 1999 }},
		{"short_description", func(in *BudgetInput) { in.Description = " abc " }},
		{"negative_income", func(in *BudgetInput) { in.ExpectedIncome = decimal.NewFromInt(-1) }},
		{"negative_expense", func(in *BudgetInput) { in.ExpectedExpense = decimal.NewFromInt(-1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc := NewBudgetService(db)
			user := testutil.CreateTestUser(t, db)

			in := validBudgetInput()
			tc.mutate(&in)
			_, err := svc.CreateBudget(user.ID, in)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		})
	}
}

func TestGetActiveBudget(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestBudget(t, db, user.ID, 1, 2024, false)

		_, err := svc.GetActiveBudget(user.ID)
		testutil.AssertAppError(t, err, "NO_ACTIVE_BUDGET")
	})
}

func TestGetBudgetByID(t *testing.T) {
	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetBudgetByID(user.ID, uuid.New())
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID, 1, 2024, true)

		_, err := svc.GetBudgetByID(other.ID, budget.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("inserts_merged_copy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		original := testutil.CreateTestBudget(t, db, user.ID, 3, 2024, true)

		expense := decimal.NewFromInt(2500)
		updated, err := svc.UpdateBudget(user.ID, original.ID, BudgetUpdate{
			Description:     testutil.Ptr("Revised March"),
			ExpectedExpense: &expense,
		})
		testutil.AssertNoError(t, err)

		assert.NotEqual(t, original.ID, updated.ID)
		assert.True(t, updated.IsActive)
		assert.Equal(t, "revised march", updated.Description)
		assert.Equal(t, original.Month, updated.Month)
		assert.Equal(t, original.Year, updated.Year)
		assert.True(t, updated.ExpectedIncome.Equal(original.ExpectedIncome))
		assert.True(t, updated.ExpectedExpense.Equal(expense))

		reloaded, err := svc.GetBudgetByID(user.ID, original.ID)
		testutil.AssertNoError(t, err)
		assert.False(t, reloaded.IsActive)
		assert.Equal(t, original.Description, reloaded.Description)
		assert.Equal(t, 1, countActiveBudgets(t, svc, user.ID))
	})

	t.Run("inactive_source_becomes_active_copy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		active := testutil.CreateTestBudget(t, db, user.ID, 4, 2024, true)
		inactive := testutil.CreateTestBudget(t, db, user.ID, 1, 2024, false)

		updated, err := svc.UpdateBudget(user.ID, inactive.ID, BudgetUpdate{Month: testutil.Ptr(2)})
		testutil.AssertNoError(t, err)
		assert.Equal(t, 2, updated.Month)

		reloaded, err := svc.GetBudgetByID(user.ID, active.ID)
		testutil.AssertNoError(t, err)
		assert.False(t, reloaded.IsActive)
		assert.Equal(t, 1, countActiveBudgets(t, svc, user.ID))
	})

	t.Run("invalid_merge", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		original := testutil.CreateTestBudget(t, db, user.ID, 3, 2024, true)

		_, err := svc.UpdateBudget(user.ID, original.ID, BudgetUpdate{Month: testutil.Ptr(14)})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		reloaded, err := svc.GetBudgetByID(user.ID, original.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, reloaded.IsActive)
	})

	t.Run("forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID, 3, 2024, true)

		_, err := svc.UpdateBudget(other.ID, budget.ID, BudgetUpdate{Month: testutil.Ptr(5)})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("rolls_back_on_failed_insert", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		original := testutil.CreateTestBudget(t, db, user.ID, 3, 2024, true)

		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_budget_insert", func(tx *gorm.DB) {
			if tx.Statement.Table == "budgets" {
				_ = tx.AddError(errors.New("simulated storage failure"))
			}
		}))

		_, err := svc.UpdateBudget(user.ID, original.ID, BudgetUpdate{Month: testutil.Ptr(5)})
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")

		reloaded, err := svc.GetBudgetByID(user.ID, original.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, reloaded.IsActive, "deactivation must roll back with the failed insert")
		assert.Equal(t, 3, reloaded.Month)
		assert.EqualValues(t, 1, countBudgetRows(t, db, user.ID))
	})
}

func TestActivateBudget(t *testing.T) {
	t.Run("switches_active_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestBudget(t, db, user.ID, 1, 2024, true)
		second := testutil.CreateTestBudget(t, db, user.ID, 2, 2024, false)

		activated, err := svc.ActivateBudget(user.ID, second.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, activated.IsActive)

		reloaded, err := svc.GetBudgetByID(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		assert.False(t, reloaded.IsActive)

		again, err := svc.ActivateBudget(user.ID, second.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, again.IsActive)
		assert.Equal(t, 1, countActiveBudgets(t, svc, user.ID))
	})

	t.Run("rolls_back_on_failed_activate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		current := testutil.CreateTestBudget(t, db, user.ID, 1, 2024, true)
		target := testutil.CreateTestBudget(t, db, user.ID, 2, 2024, false)

		// Only the flip to active fails; the preceding deactivation succeeds.
		require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_budget_activate", func(tx *gorm.DB) {
			values, ok := tx.Statement.Dest.(map[string]interface{})
			if ok && tx.Statement.Table == "budgets" && values["is_active"] == true {
				_ = tx.AddError(errors.New("simulated storage failure"))
			}
		}))

		_, err := svc.ActivateBudget(user.ID, target.ID)
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")

		reloaded, err := svc.GetBudgetByID(user.ID, current.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, reloaded.IsActive, "deactivation must roll back with the failed activation")

		untouched, err := svc.GetBudgetByID(user.ID, target.ID)
		testutil.AssertNoError(t, err)
		assert.False(t, untouched.IsActive)
		assert.EqualValues(t, 2, countBudgetRows(t, db, user.ID))
	})
}

func TestActiveBudgetIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestBudget(t, db, user.ID, 1, 2024, true)

	dup := &models.Budget{
		UserID:      user.ID,
		Month:       2,
		Year:        2024,
		Description: "second active",
		IsActive:    true,
	}
	err := db.Create(dup).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
	testutil.AssertAppError(t, activationError(err), "ACTIVE_BUDGET_CONFLICT")
}

func TestSearchBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	mk := func(month, year int, desc string, income, expense int64) {
		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Month:           month,
			Year:            year,
			Description:     desc,
			ExpectedIncome:  decimal.NewFromInt(income),
			ExpectedExpense: decimal.NewFromInt(expense),
		})
		require.NoError(t, err)
	}
	mk(1, 2024, "January plan", 4000, 3000)
	mk(6, 2023, "Summer Vacation", 4000, 6000)
	mk(11, 2024, "November plan", 5000, 2000)
	testutil.CreateTestBudget(t, db, other.ID, 1, 2024, true)

	t.Run("sorted_newest_period_first", func(t *testing.T) {
		budgets, err := svc.SearchBudgets(user.ID, BudgetFilter{})
		testutil.AssertNoError(t, err)
		require.Len(t, budgets, 3)
		assert.Equal(t, 11, budgets[0].Month)
		assert.Equal(t, 1, budgets[1].Month)
		assert.Equal(t, 2023, budgets[2].Year)
	})

	t.Run("description_case_insensitive", func(t *testing.T) {
		budgets, err := svc.SearchBudgets(user.ID, BudgetFilter{Description: "PLAN"})
		testutil.AssertNoError(t, err)
		assert.Len(t, budgets, 2)
	})

	t.Run("income_range", func(t *testing.T) {
		min := decimal.NewFromInt(4500)
		budgets, err := svc.SearchBudgets(user.ID, BudgetFilter{MinIncome: &min})
		testutil.AssertNoError(t, err)
		require.Len(t, budgets, 1)
		assert.Equal(t, 11, budgets[0].Month)
	})

	t.Run("expense_range", func(t *testing.T) {
		min := decimal.NewFromInt(2500)
		max := decimal.NewFromInt(6000)
		budgets, err := svc.SearchBudgets(user.ID, BudgetFilter{MinExpense: &min, MaxExpense: &max})
		testutil.AssertNoError(t, err)
		assert.Len(t, budgets, 2)
	})

	t.Run("created_window", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		budgets, err := svc.SearchBudgets(user.ID, BudgetFilter{CreatedFrom: &future})
		testutil.AssertNoError(t, err)
		assert.Empty(t, budgets)

		past := time.Now().Add(-time.Hour)
		budgets, err = svc.SearchBudgets(user.ID, BudgetFilter{CreatedFrom: &past, CreatedTo: &future})
		testutil.AssertNoError(t, err)
		assert.Len(t, budgets, 3)
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("keeps_reports", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 3, 2024, true)

		report := &models.MonthlyReport{
			UserID:   user.ID,
			Month:    3,
			Year:     2024,
			BudgetID: budget.ID,
		}
		require.NoError(t, db.Create(report).Error)

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))

		_, err := svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

		var count int64
		require.NoError(t, db.Model(&models.MonthlyReport{}).Where("id = ?", report.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID, 3, 2024, true)

		err := svc.DeleteBudget(other.ID, budget.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
