package kanban_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crm-backend/internal/database"
	"crm-backend/internal/kanban"
	"crm-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedLead(t *testing.T, db *gorm.DB, orgID uint, status string, order int64, stageID *uint) models.Lead {
	t.Helper()
	lead := models.Lead{
		OrgID:       orgID,
		Title:       fmt.Sprintf("lead-%d", order),
		Status:      status,
		StageID:     stageID,
		KanbanOrder: decimal.NewFromInt(order),
		CreatedByID: 1,
	}
	require.NoError(t, db.Create(&lead).Error)
	return lead
}

func leadColumn(db *gorm.DB, orgID uint, ref kanban.ColumnRef) (kanban.QueryFn, kanban.QueryFn) {
	cards := func() *gorm.DB {
		return db.Table("leads").Where("org_id = ? AND is_deleted = ?", orgID, false)
	}
	column := func() *gorm.DB { return ref.Apply(cards()) }
	return cards, column
}
