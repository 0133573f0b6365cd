package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm-backend/internal/database"
	"crm-backend/internal/kanban"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

type MoveLeadRequest struct {
	StageID     OptionalUint `json:"stage_id"`
	Status      *string      `json:"status"`
	KanbanOrder *string      `json:"kanban_order"`
	AboveLeadID *uint        `json:"above_lead_id"`
	BelowLeadID *uint        `json:"below_lead_id"`
}

// applyLeadFilters narrows a lead query from board query parameters.
func applyLeadFilters(c *gin.Context, q *gorm.DB) *gorm.DB {
	if raw := c.Query("assigned_to"); raw != "" {
		if ids := parseIDList(raw); len(ids) > 0 {
			assigned := database.DB.Table("lead_assignees").Select("lead_id").Where("user_id IN ?", ids)
			q = q.Where("id IN (?)", assigned)
		}
	}
	if raw := c.Query("rating"); raw != "" {
		if rating, err := strconv.Atoi(raw); err == nil {
			q = q.Where("rating = ?", rating)
		}
	}
	if search := c.Query("search"); search != "" {
		// LOWER on both sides keeps the match case-insensitive on postgres;
		// bare LIKE only behaves that way on sqlite.
		pattern := "%" + search + "%"
		q = q.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if from, ok := parseDateQuery(c, "created_after"); ok {
		q = q.Where("created_at >= ?", from)
	}
	if to, ok := parseDateQuery(c, "created_before"); ok {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}
	return q
}

// LeadKanban renders the lead board. Without pipeline_id it groups by the
// fixed legacy statuses; with one, the pipeline's stages become the columns.
func LeadKanban(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	// Fresh query per column: gorm chains accumulate conditions.
	baseQuery := func() *gorm.DB {
		q := database.DB.Model(&models.Lead{}).
			Where("org_id = ? AND is_deleted = ?", org.ID, false)
		q = applyLeadFilters(c, q)
		return kanban.VisibleTo(database.DB, q, user, "lead_assignees", "lead_id")
	}

	if raw := c.Query("pipeline_id"); raw != "" {
		pipelineID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pipeline_id"})
			return
		}
		leadPipelineKanban(c, baseQuery, uint(pipelineID))
		return
	}

	columns := make([]gin.H, 0, len(kanban.LeadStatusColumns()))
	total := 0
	for _, col := range kanban.LeadStatusColumns() {
		ref := kanban.ColumnRef{Status: col.Status}
		var leads []models.Lead
		err := ref.Apply(baseQuery()).
			Preload("Assignees").
			Order("kanban_order, created_at DESC, id DESC").
			Limit(columnCap).
			Find(&leads).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
			return
		}
		var count int64
		if err := ref.Apply(baseQuery()).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
			return
		}
		columns = append(columns, gin.H{
			"id":               col.Status,
			"name":             col.Name,
			"order":            col.Order,
			"color":            col.Color,
			"stage_type":       col.StageType,
			"wip_limit":        nil,
			"is_status_column": true,
			"lead_count":       count,
			"leads":            leads,
		})
		total += int(count)
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":        "status",
		"pipeline":    nil,
		"columns":     columns,
		"total_leads": total,
	})
}

func leadPipelineKanban(c *gin.Context, baseQuery func() *gorm.DB, pipelineID uint) {
	org := middleware.CurrentOrg(c)
	var pipeline models.Pipeline
	err := database.DB.Preload("Stages", stagesInOrder).
		Where("id = ? AND org_id = ? AND is_active = ?", pipelineID, org.ID, true).
		First(&pipeline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return
	}
	if pipeline.TargetType != models.PipelineTargetLead {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pipeline does not target leads"})
		return
	}

	columns := make([]gin.H, 0, len(pipeline.Stages))
	total := 0
	for _, stage := range pipeline.Stages {
		ref := kanban.ColumnRef{StageID: &stage.ID}
		var leads []models.Lead
		err := ref.Apply(baseQuery()).
			Preload("Assignees").
			Order("kanban_order, created_at DESC, id DESC").
			Limit(columnCap).
			Find(&leads).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
			return
		}
		var count int64
		if err := ref.Apply(baseQuery()).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
			return
		}
		columns = append(columns, gin.H{
			"id":               stage.ID,
			"name":             stage.Name,
			"order":            stage.Order,
			"color":            stage.Color,
			"stage_type":       stage.StageType,
			"wip_limit":        stage.WIPLimit,
			"is_status_column": false,
			"lead_count":       count,
			"leads":            leads,
		})
		total += int(count)
	}
	c.JSON(http.StatusOK, gin.H{
		"mode": "pipeline",
		"pipeline": gin.H{
			"id":          pipeline.ID,
			"name":        pipeline.Name,
			"target_type": pipeline.TargetType,
		},
		"columns":     columns,
		"total_leads": total,
	})
}

// MoveLead changes a lead's column (stage or status) and/or position. The
// whole move is one transaction: a rejected move leaves the lead untouched.
func MoveLead(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	leadID, ok := parseUintParam(c, "lead_id")
	if !ok {
		return
	}
	var req MoveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.StageID.Present && req.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage_id or status is required"})
		return
	}
	if req.Status != nil && !validStatus(*req.Status, models.LeadStatuses) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var hints kanban.OrderHints
	if req.KanbanOrder != nil {
		d, err := decimal.NewFromString(*req.KanbanOrder)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kanban_order"})
			return
		}
		hints.Explicit = &d
	}
	if req.AboveLeadID != nil {
		hints.AboveID = *req.AboveLeadID
	}
	if req.BelowLeadID != nil {
		hints.BelowID = *req.BelowLeadID
	}

	var moved models.Lead
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var lead models.Lead
		err := tx.Preload("Assignees").
			Where("id = ? AND org_id = ? AND is_deleted = ?", leadID, org.ID, false).
			First(&lead).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &kanban.NotFoundError{Resource: "lead"}
			}
			return err
		}
		if !kanban.CanMove(user, lead.CreatedByID, lead.Assignees) {
			return &kanban.PermissionError{Reason: "only admins, the creator or assignees may move this lead"}
		}

		if req.StageID.Present {
			if req.StageID.Value != nil {
				stage, err := resolveStage(tx, org.ID, *req.StageID.Value, models.PipelineTargetLead)
				if err != nil {
					return err
				}
				if err := kanban.CheckWIP(tx, "leads", stage, lead.ID); err != nil {
					return err
				}
				kanban.EnterStage(&lead, stage)
			} else {
				lead.StageID = nil
			}
		}
		if req.Status != nil {
			lead.Status = *req.Status
		}

		ref := kanban.ColumnRef{StageID: lead.StageID, Status: lead.Status}
		cards := func() *gorm.DB {
			return tx.Table("leads").Where("org_id = ? AND is_deleted = ?", org.ID, false)
		}
		column := func() *gorm.DB { return ref.Apply(cards()) }
		order, err := kanban.ComputeOrder(cards, column, lead.ID, hints)
		if err != nil {
			return err
		}
		lead.KanbanOrder = order

		if err := tx.Omit("Assignees").Save(&lead).Error; err != nil {
			return err
		}
		moved = lead
		return nil
	})
	if err != nil {
		respondKanbanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lead moved", "lead": moved})
}
