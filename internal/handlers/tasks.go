package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-backend/internal/database"
	"crm-backend/internal/kanban"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AccountID   *uint      `json:"account_id"`
	ContactID   *uint      `json:"contact_id"`
	AssigneeIDs []uint     `json:"assignee_ids"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	AccountID   *uint      `json:"account_id"`
	ContactID   *uint      `json:"contact_id"`
	AssigneeIDs []uint     `json:"assignee_ids"`
}

func CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	if req.Priority == "" {
		req.Priority = models.TaskPriorityMedium
	}
	assignees, err := orgUsers(org.ID, req.AssigneeIDs)
	if err != nil {
		respondKanbanError(c, err)
		return
	}

	task := models.Task{
		OrgID:       org.ID,
		Title:       req.Title,
		Status:      models.TaskStatusNew,
		Priority:    req.Priority,
		KanbanOrder: kanban.OrderBaseline,
		DueDate:     req.DueDate,
		AccountID:   req.AccountID,
		ContactID:   req.ContactID,
		CreatedByID: user.ID,
		Assignees:   assignees,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func ListTasks(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	query := database.DB.Model(&models.Task{}).
		Where("org_id = ? AND is_deleted = ?", org.ID, false)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	query = kanban.VisibleTo(database.DB, query, user, "task_assignees", "task_id")

	var tasks []models.Task
	if err := query.Preload("Assignees").Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func loadVisibleTask(c *gin.Context, id uint) (*models.Task, bool) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	var task models.Task
	err := database.DB.Preload("Assignees").
		Where("id = ? AND org_id = ? AND is_deleted = ?", id, org.ID, false).
		First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return nil, false
	}
	if !kanban.CanMove(user, task.CreatedByID, task.Assignees) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this task"})
		return nil, false
	}
	return &task, true
}

func GetTask(c *gin.Context) {
	id, ok := parseUintParam(c, "task_id")
	if !ok {
		return
	}
	task, ok := loadVisibleTask(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

func UpdateTask(c *gin.Context) {
	id, ok := parseUintParam(c, "task_id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, ok := loadVisibleTask(c, id)
	if !ok {
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		if !validStatus(*req.Status, models.TaskStatuses) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		task.Status = *req.Status
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AccountID != nil {
		task.AccountID = req.AccountID
	}
	if req.ContactID != nil {
		task.ContactID = req.ContactID
	}
	if req.AssigneeIDs != nil {
		org := middleware.CurrentOrg(c)
		assignees, err := orgUsers(org.ID, req.AssigneeIDs)
		if err != nil {
			respondKanbanError(c, err)
			return
		}
		if err := database.DB.Model(task).Association("Assignees").Replace(assignees); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update assignees", "details": err.Error()})
			return
		}
		task.Assignees = assignees
	}

	if err := database.DB.Omit("Assignees").Save(task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context) {
	id, ok := parseUintParam(c, "task_id")
	if !ok {
		return
	}
	task, ok := loadVisibleTask(c, id)
	if !ok {
		return
	}
	task.IsDeleted = true
	if err := database.DB.Omit("Assignees").Save(task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
