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

type MoveTaskRequest struct {
	StageID     OptionalUint `json:"stage_id"`
	Status      *string      `json:"status"`
	KanbanOrder *string      `json:"kanban_order"`
	AboveTaskID *uint        `json:"above_task_id"`
	BelowTaskID *uint        `json:"below_task_id"`
}

func applyTaskFilters(c *gin.Context, q *gorm.DB) *gorm.DB {
	if raw := c.Query("assigned_to"); raw != "" {
		if ids := parseIDList(raw); len(ids) > 0 {
			assigned := database.DB.Table("task_assignees").Select("task_id").Where("user_id IN ?", ids)
			q = q.Where("id IN (?)", assigned)
		}
	}
	if priority := c.Query("priority"); priority != "" {
		q = q.Where("priority = ?", priority)
	}
	if search := c.Query("search"); search != "" {
		q = q.Where("LOWER(title) LIKE LOWER(?)", "%"+search+"%")
	}
	if raw := c.Query("account_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			q = q.Where("account_id = ?", uint(id))
		}
	}
	if raw := c.Query("contact_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			q = q.Where("contact_id = ?", uint(id))
		}
	}
	if from, ok := parseDateQuery(c, "created_after"); ok {
		q = q.Where("created_at >= ?", from)
	}
	if to, ok := parseDateQuery(c, "created_before"); ok {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}
	return q
}

// TaskKanban renders the task board, status or pipeline mode.
func TaskKanban(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	baseQuery := func() *gorm.DB {
		q := database.DB.Model(&models.Task{}).
			Where("org_id = ? AND is_deleted = ?", org.ID, false)
		q = applyTaskFilters(c, q)
		return kanban.VisibleTo(database.DB, q, user, "task_assignees", "task_id")
	}

	if raw := c.Query("pipeline_id"); raw != "" {
		pipelineID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pipeline_id"})
			return
		}
		taskPipelineKanban(c, baseQuery, uint(pipelineID))
		return
	}

	columns := make([]gin.H, 0, len(kanban.TaskStatusColumns()))
	total := 0
	for _, col := range kanban.TaskStatusColumns() {
		ref := kanban.ColumnRef{Status: col.Status}
		var tasks []models.Task
		err := ref.Apply(baseQuery()).
			Preload("Assignees").
			Order("kanban_order, created_at DESC, id DESC").
			Limit(columnCap).
			Find(&tasks).Error
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
			"task_count":       count,
			"tasks":            tasks,
		})
		total += int(count)
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":        "status",
		"pipeline":    nil,
		"columns":     columns,
		"total_tasks": total,
	})
}

func taskPipelineKanban(c *gin.Context, baseQuery func() *gorm.DB, pipelineID uint) {
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
	if pipeline.TargetType != models.PipelineTargetTask {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pipeline does not target tasks"})
		return
	}

	columns := make([]gin.H, 0, len(pipeline.Stages))
	total := 0
	for _, stage := range pipeline.Stages {
		ref := kanban.ColumnRef{StageID: &stage.ID}
		var tasks []models.Task
		err := ref.Apply(baseQuery()).
			Preload("Assignees").
			Order("kanban_order, created_at DESC, id DESC").
			Limit(columnCap).
			Find(&tasks).Error
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
			"task_count":       count,
			"tasks":            tasks,
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
		"total_tasks": total,
	})
}

// MoveTask changes a task's column (stage or status) and/or position in one
// transaction.
func MoveTask(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	taskID, ok := parseUintParam(c, "task_id")
	if !ok {
		return
	}
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.StageID.Present && req.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage_id or status is required"})
		return
	}
	if req.Status != nil && !validStatus(*req.Status, models.TaskStatuses) {
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
	if req.AboveTaskID != nil {
		hints.AboveID = *req.AboveTaskID
	}
	if req.BelowTaskID != nil {
		hints.BelowID = *req.BelowTaskID
	}

	var moved models.Task
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		err := tx.Preload("Assignees").
			Where("id = ? AND org_id = ? AND is_deleted = ?", taskID, org.ID, false).
			First(&task).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &kanban.NotFoundError{Resource: "task"}
			}
			return err
		}
		if !kanban.CanMove(user, task.CreatedByID, task.Assignees) {
			return &kanban.PermissionError{Reason: "only admins, the creator or assignees may move this task"}
		}

		if req.StageID.Present {
			if req.StageID.Value != nil {
				stage, err := resolveStage(tx, org.ID, *req.StageID.Value, models.PipelineTargetTask)
				if err != nil {
					return err
				}
				if err := kanban.CheckWIP(tx, "tasks", stage, task.ID); err != nil {
					return err
				}
				kanban.EnterTaskStage(&task, stage)
			} else {
				task.StageID = nil
			}
		}
		if req.Status != nil {
			task.Status = *req.Status
		}

		ref := kanban.ColumnRef{StageID: task.StageID, Status: task.Status}
		cards := func() *gorm.DB {
			return tx.Table("tasks").Where("org_id = ? AND is_deleted = ?", org.ID, false)
		}
		column := func() *gorm.DB { return ref.Apply(cards()) }
		order, err := kanban.ComputeOrder(cards, column, task.ID, hints)
		if err != nil {
			return err
		}
		task.KanbanOrder = order

		if err := tx.Omit("Assignees").Save(&task).Error; err != nil {
			return err
		}
		moved = task
		return nil
	})
	if err != nil {
		respondKanbanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task moved", "task": moved})
}
