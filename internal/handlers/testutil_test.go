package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crm-backend/internal/database"
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

// setupAPI swaps the global DB for an in-memory one and returns the full
// router, so tests exercise the same middleware chain production runs.
func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database.DB = openTestDB(t)
	return SetupRouter()
}

func seedOrg(t *testing.T) (models.Organization, models.User, models.User) {
	t.Helper()
	org := models.Organization{Name: "Acme", IsActive: true}
	require.NoError(t, database.DB.Create(&org).Error)
	admin := models.User{OrgID: org.ID, Username: "alice", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, database.DB.Create(&admin).Error)
	member := models.User{OrgID: org.ID, Username: "bob", Role: models.RoleUser, IsActive: true}
	require.NoError(t, database.DB.Create(&member).Error)
	return org, admin, member
}

func seedOtherOrg(t *testing.T) (models.Organization, models.User) {
	t.Helper()
	org := models.Organization{Name: "Rival", IsActive: true}
	require.NoError(t, database.DB.Create(&org).Error)
	user := models.User{OrgID: org.ID, Username: "eve", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, database.DB.Create(&user).Error)
	return org, user
}

func seedLead(t *testing.T, orgID uint, createdBy uint, status string, order int64, stageID *uint) models.Lead {
	t.Helper()
	lead := models.Lead{
		OrgID:       orgID,
		Title:       fmt.Sprintf("lead-%d", order),
		Status:      status,
		StageID:     stageID,
		KanbanOrder: decimal.NewFromInt(order),
		CreatedByID: createdBy,
	}
	require.NoError(t, database.DB.Create(&lead).Error)
	return lead
}

func seedLeadPipeline(t *testing.T, orgID uint) models.Pipeline {
	t.Helper()
	pipeline := models.Pipeline{OrgID: orgID, Name: "Sales", TargetType: models.PipelineTargetLead, IsActive: true}
	require.NoError(t, database.DB.Create(&pipeline).Error)
	return pipeline
}

func seedStage(t *testing.T, pipelineID uint, name string, order int, mutate func(*models.Stage)) models.Stage {
	t.Helper()
	stage := models.Stage{PipelineID: pipelineID, Name: name, Order: order, StageType: models.StageTypeOpen}
	if mutate != nil {
		mutate(&stage)
	}
	require.NoError(t, database.DB.Create(&stage).Error)
	return stage
}

// doJSON drives the router as the given user. A nil body sends no payload.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Org-ID", strconv.FormatUint(uint64(user.OrgID), 10))
		req.Header.Set("X-User-ID", strconv.FormatUint(uint64(user.ID), 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func reloadLead(t *testing.T, id uint) models.Lead {
	t.Helper()
	var lead models.Lead
	require.NoError(t, database.DB.First(&lead, id).Error)
	return lead
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
