package services

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/models"
	"pocketbook/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	t.Run("records_changes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 3, 2024, true)

		svc.Log(user.ID, "ACTIVATE_BUDGET", "budget", budget.ID, "10.0.0.7",
			map[string]interface{}{"month": 3, "year": 2024})

		var entry models.AuditLog
		require.NoError(t, db.Where("user_id = ?", user.ID).First(&entry).Error)
		assert.Equal(t, "ACTIVATE_BUDGET", entry.Action)
		assert.Equal(t, "budget", entry.ResourceType)
		assert.Equal(t, budget.ID, entry.ResourceID)
		assert.Equal(t, "10.0.0.7", entry.IPAddress)

		var changes map[string]float64
		require.NoError(t, json.Unmarshal([]byte(entry.Changes), &changes))
		assert.Equal(t, map[string]float64{"month": 3, "year": 2024}, changes)
	})

	t.Run("no_changes_payload", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, "DELETE_REPORT", "report", "r-1", "", nil)

		var entry models.AuditLog
		require.NoError(t, db.Where("action = ?", "DELETE_REPORT").First(&entry).Error)
		assert.Empty(t, entry.Changes)
	})

	t.Run("unencodable_changes_still_recorded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, "UPDATE_SAVING_GOAL", "saving_goal", "g-1", "",
			map[string]interface{}{"progress": math.Inf(1)})

		var entry models.AuditLog
		require.NoError(t, db.Where("action = ?", "UPDATE_SAVING_GOAL").First(&entry).Error)
		assert.Equal(t, "{}", entry.Changes)
	})

	t.Run("storage_failure_is_swallowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

		assert.NotPanics(t, func() {
			svc.Log("0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", "LOGIN", "user", "u-1", "", nil)
		})
	})
}
