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

func TestLeadKanbanStatusMode(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)
	seedLead(t, org.ID, admin.ID, models.LeadStatusInProcess, 1000, nil)
	seedLead(t, org.ID, admin.ID, models.LeadStatusConverted, 1000, nil)

	w := doJSON(t, r, "GET", "/api/kanban/leads", nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)

	assert.Equal(t, "status", body["mode"])
	columns := body["columns"].([]any)
	require.Len(t, columns, 4)
	for _, raw := range columns {
		col := raw.(map[string]any)
		assert.NotEqual(t, models.LeadStatusConverted, col["id"])
		assert.Equal(t, true, col["is_status_column"])
	}
	// The converted lead is invisible to the board.
	assert.Equal(t, float64(2), body["total_leads"])
}

func TestLeadKanbanMemberScope(t *testing.T) {
	r := setupAPI(t)
	org, admin, member := seedOrg(t)
	seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)
	seedLead(t, org.ID, member.ID, models.LeadStatusAssigned, 2000, nil)
	assigned := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 3000, nil)
	require.NoError(t, database.DB.Model(&assigned).Association("Assignees").Append(&member))

	w := doJSON(t, r, "GET", "/api/kanban/leads", nil, &member)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), parseBody(t, w)["total_leads"])

	w = doJSON(t, r, "GET", "/api/kanban/leads", nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), parseBody(t, w)["total_leads"])
}

func TestLeadKanbanSearchIgnoresCase(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	match := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)
	require.NoError(t, database.DB.Model(&match).Update("title", "Acme Renewal").Error)
	seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 2000, nil)

	w := doJSON(t, r, "GET", "/api/kanban/leads?search=aCmE", nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), parseBody(t, w)["total_leads"])
}

func TestLeadKanbanPipelineMode(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	pipeline := seedLeadPipeline(t, org.ID)
	first := seedStage(t, pipeline.ID, "New", 0, nil)
	seedStage(t, pipeline.ID, "Qualified", 1, nil)

	seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, &first.ID)
	seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil) // status-only, not on this board

	w := doJSON(t, r, "GET", fmt.Sprintf("/api/kanban/leads?pipeline_id=%d", pipeline.ID), nil, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)

	assert.Equal(t, "pipeline", body["mode"])
	require.NotNil(t, body["pipeline"])
	columns := body["columns"].([]any)
	require.Len(t, columns, 2)
	newCol := columns[0].(map[string]any)
	assert.Equal(t, "New", newCol["name"])
	assert.Equal(t, float64(1), newCol["lead_count"])
	assert.Equal(t, float64(1), body["total_leads"])
}

func TestMoveLeadMidpoint(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	a := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)
	b := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 2000, nil)
	mover := seedLead(t, org.ID, admin.ID, models.LeadStatusInProcess, 1000, nil)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", mover.ID), map[string]any{
		"status":        models.LeadStatusAssigned,
		"above_lead_id": a.ID,
		"below_lead_id": b.ID,
	}, &admin)
	require.Equal(t, http.StatusOK, w.Code)

	got := reloadLead(t, mover.ID)
	assert.True(t, decimal.NewFromInt(1500).Equal(got.KanbanOrder))
	assert.Equal(t, models.LeadStatusAssigned, got.Status)
	assert.Nil(t, got.StageID)
}

func TestMoveLeadWIPLimitLeavesLeadUntouched(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	pipeline := seedLeadPipeline(t, org.ID)
	limited := seedStage(t, pipeline.ID, "Limited", 0, func(s *models.Stage) { s.WIPLimit = intp(1) })
	seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, &limited.ID)
	mover := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 2000, nil)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", mover.ID), map[string]any{
		"stage_id": limited.ID,
	}, &admin)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, parseBody(t, w)["error"], "WIP limit")

	got := reloadLead(t, mover.ID)
	assert.Nil(t, got.StageID)
	assert.Equal(t, models.LeadStatusAssigned, got.Status)
	assert.True(t, decimal.NewFromInt(2000).Equal(got.KanbanOrder))
}

func TestMoveLeadStageEffects(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	pipeline := seedLeadPipeline(t, org.ID)
	won := seedStage(t, pipeline.ID, "Won", 0, func(s *models.Stage) {
		s.StageType = models.StageTypeWon
		s.MapsToStatus = strp(models.LeadStatusClosed)
		s.WinProbability = intp(100)
	})

	fresh := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)
	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", fresh.ID), map[string]any{"stage_id": won.ID}, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	got := reloadLead(t, fresh.ID)
	require.NotNil(t, got.StageID)
	assert.Equal(t, won.ID, *got.StageID)
	assert.Equal(t, models.LeadStatusClosed, got.Status)
	assert.Equal(t, 100, got.Probability)

	// A probability someone already set survives the stage hint.
	seeded := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 2000, nil)
	seeded.Probability = 40
	require.NoError(t, database.DB.Omit("Assignees").Save(&seeded).Error)
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", seeded.ID), map[string]any{"stage_id": won.ID}, &admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 40, reloadLead(t, seeded.ID).Probability)
}

func TestMoveLeadClearStage(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	pipeline := seedLeadPipeline(t, org.ID)
	stage := seedStage(t, pipeline.ID, "New", 0, nil)
	lead := seedLead(t, org.ID, admin.ID, models.LeadStatusInProcess, 1000, &stage.ID)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", lead.ID), map[string]any{"stage_id": nil}, &admin)
	require.Equal(t, http.StatusOK, w.Code)

	got := reloadLead(t, lead.ID)
	assert.Nil(t, got.StageID)
	// Clearing the stage leaves the legacy status alone.
	assert.Equal(t, models.LeadStatusInProcess, got.Status)
}

func TestMoveLeadRequiresTarget(t *testing.T) {
	r := setupAPI(t)
	org, admin, _ := seedOrg(t)
	lead := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", lead.ID), map[string]any{
		"above_lead_id": 12,
	}, &admin)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, parseBody(t, w)["error"], "stage_id or status")
}

func TestMoveLeadPermission(t *testing.T) {
	r := setupAPI(t)
	org, admin, member := seedOrg(t)
	lead := seedLead(t, org.ID, admin.ID, models.LeadStatusAssigned, 1000, nil)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", lead.ID), map[string]any{
		"status": models.LeadStatusInProcess,
	}, &member)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.LeadStatusAssigned, reloadLead(t, lead.ID).Status)

	// Assignment grants standing.
	require.NoError(t, database.DB.Model(&lead).Association("Assignees").Append(&member))
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", lead.ID), map[string]any{
		"status": models.LeadStatusInProcess,
	}, &member)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMoveLeadCrossOrg(t *testing.T) {
	r := setupAPI(t)
	_, admin, _ := seedOrg(t)
	otherOrg, otherUser := seedOtherOrg(t)
	foreign := seedLead(t, otherOrg.ID, otherUser.ID, models.LeadStatusAssigned, 1000, nil)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/leads/%d/move", foreign.ID), map[string]any{
		"status": models.LeadStatusInProcess,
	}, &admin)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestKanbanRequiresOrgHeaders(t *testing.T) {
	r := setupAPI(t)
	seedOrg(t)

	w := doJSON(t, r, "GET", "/api/kanban/leads", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
