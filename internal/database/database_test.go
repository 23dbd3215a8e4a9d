package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/config"
	"pocketbook/internal/logger"
	"pocketbook/internal/models"
)

func init() {
	logger.Init("test")
}

func TestSQLiteManagerMigrates(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}

	m, err := NewManager(cfg)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Migrate())

	for _, model := range models.All() {
		assert.True(t, m.DB().Migrator().HasTable(model), "missing table for %T", model)
	}
	assert.True(t, m.DB().Migrator().HasIndex(&models.Budget{}, "idx_budgets_single_active"))
	assert.True(t, m.DB().Migrator().HasIndex(&models.MonthlyReport{}, "idx_reports_user_period"))
}

func TestGormConfigUsesUTC(t *testing.T) {
	cfg := GormConfig()

	assert.True(t, cfg.TranslateError)
	assert.Equal(t, "UTC", cfg.NowFunc().Location().String())
}
