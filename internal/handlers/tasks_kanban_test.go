package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-backend/internal/database"
	"crm-backend/internal/models"
)

func seedTask(t *testing.T, orgID, createdBy uint, status string, order int64, stageID *uint) models.Task {
	t.Helper()
	task := models.Task{
		OrgID:       orgID,
		Title:       fmt.Sprintf("task-%d", order),
		Status:      status,
		Priority:    models.TaskPriorityMedium,
		StageID:     stageID,
		KanbanOrder: decimal.NewFromInt(order),
		CreatedByID: createdBy,
	}
	require.NoError(t, database.DB.Create(&task).Error)
	return task
}

func TestTaskKanbanStatusMode(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 1000, nil)
	seedTask(t, org.ID, admin.ID, models.TaskStatusCompleted, 1000, nil)

	w := doJSON(t, r, "GET", "/api/kanban/tasks", nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, "status", body["mode"])
	assert.Len(t, body["columns"].([]any), 3)
	assert.Equal(t, float64(2), body["total_tasks"])
}

func TestMoveTaskIntoMappedStage(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	pipeline := models.Pipeline{OrgID: org.ID, Name: "Work", TargetType: models.PipelineTargetTask, IsActive: true}
	require.NoError(t, database.DB.Create(&pipeline).Error)
	done := seedStage(t, pipeline.ID, "Done", 0, func(s *models.Stage) {
		s.StageType = models.StageTypeCompleted
		s.MapsToStatus = strp(models.TaskStatusCompleted)
	})

	task := seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 1000, nil)
	w := doJSON(t, r, "POST", fmt.Sprintf("/api/tasks/%d/move", task.ID), map[string]any{"stage_id": done.ID}, &admin)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Task
	require.NoError(t, database.DB.First(&got, task.ID).Error)
	require.NotNil(t, got.StageID)
	assert.Equal(t, done.ID, *got.StageID)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
}

// A lead stage is not a valid move target for a task.
func TestMoveTaskRejectsLeadStage(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	leadPipeline := seedLeadPipeline(t, org.ID)
	leadStage := seedStage(t, leadPipeline.ID, "New", 0, nil)
	task := seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 1000, nil)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/tasks/%d/move", task.ID), map[string]any{"stage_id": leadStage.ID}, &admin)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, parseBody(t, w)["error"], "lead pipeline")
}

func TestTaskKanbanSearchIgnoresCase(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	match := seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 1000, nil)
	require.NoError(t, database.DB.Model(&match).Update("title", "Quarterly Review").Error)
	seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 2000, nil)

	w := doJSON(t, r, "GET", "/api/kanban/tasks?search=qUaRtErLy", nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), parseBody(t, w)["total_tasks"])
}

func TestTaskKanbanLinkedEntityFilter(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	linked := seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 1000, nil)
	accountID := uint(77)
	require.NoError(t, database.DB.Model(&linked).Update("account_id", accountID).Error)
	seedTask(t, org.ID, admin.ID, models.TaskStatusNew, 2000, nil)

	w := doJSON(t, r, "GET", "/api/kanban/tasks?account_id=77", nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), parseBody(t, w)["total_tasks"])
}
