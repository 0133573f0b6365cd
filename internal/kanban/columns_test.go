package kanban_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-backend/internal/kanban"
	"crm-backend/internal/models"
)

func TestLeadStatusColumnsExcludeConverted(t *testing.T) {
	cols := kanban.LeadStatusColumns()
	require.Len(t, cols, 4)
	for _, col := range cols {
		assert.NotEqual(t, models.LeadStatusConverted, col.Status)
	}
	for i := 1; i < len(cols); i++ {
		assert.Greater(t, cols[i].Order, cols[i-1].Order)
	}
}

func TestTaskStatusColumns(t *testing.T) {
	cols := kanban.TaskStatusColumns()
	require.Len(t, cols, 3)
	assert.Equal(t, models.TaskStatusNew, cols[0].Status)
	assert.Equal(t, models.TaskStatusCompleted, cols[2].Status)
}

func TestDefaultStages(t *testing.T) {
	lead := kanban.DefaultStages(models.PipelineTargetLead)
	require.NotEmpty(t, lead)
	for i, s := range lead {
		assert.Equal(t, i, s.Order)
	}
	won := lead[len(lead)-2]
	require.Equal(t, "Won", won.Name)
	require.NotNil(t, won.WinProbability)
	assert.Equal(t, 100, *won.WinProbability)
	require.NotNil(t, won.MapsToStatus)
	assert.Equal(t, models.LeadStatusClosed, *won.MapsToStatus)

	task := kanban.DefaultStages(models.PipelineTargetTask)
	require.NotEmpty(t, task)
	done := task[len(task)-1]
	require.NotNil(t, done.MapsToStatus)
	assert.Equal(t, models.TaskStatusCompleted, *done.MapsToStatus)

	assert.Nil(t, kanban.DefaultStages("account"))
}

func TestCanMove(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	creator := &models.User{ID: 2, Role: models.RoleUser}
	assignee := &models.User{ID: 3, Role: models.RoleUser}
	stranger := &models.User{ID: 4, Role: models.RoleUser}
	assignees := []models.User{{ID: 3}}

	assert.True(t, kanban.CanMove(admin, 2, assignees))
	assert.True(t, kanban.CanMove(creator, 2, assignees))
	assert.True(t, kanban.CanMove(assignee, 2, assignees))
	assert.False(t, kanban.CanMove(stranger, 2, assignees))
}
