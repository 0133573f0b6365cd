package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-backend/internal/database"
	"crm-backend/internal/kanban"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

type CreatePipelineRequest struct {
	Name              string `json:"name" binding:"required"`
	TargetType        string `json:"target_type"`
	WithDefaultStages bool   `json:"with_default_stages"`
}

type UpdatePipelineRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// stagesInOrder preloads a pipeline's stages in display order.
func stagesInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("stage_order, id")
}

// entityTable returns the card table a pipeline's stages govern.
func entityTable(targetType string) string {
	if targetType == models.PipelineTargetTask {
		return "tasks"
	}
	return "leads"
}

// referencingCards counts live cards sitting in any of the pipeline's
// stages.
func referencingCards(db *gorm.DB, p *models.Pipeline) (int64, error) {
	stageIDs := db.Model(&models.Stage{}).Select("id").Where("pipeline_id = ?", p.ID)
	var n int64
	err := db.Table(entityTable(p.TargetType)).
		Where("stage_id IN (?) AND is_deleted = ?", stageIDs, false).
		Count(&n).Error
	return n, err
}

func CreatePipeline(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var req CreatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TargetType == "" {
		req.TargetType = models.PipelineTargetLead
	}
	if req.TargetType != models.PipelineTargetLead && req.TargetType != models.PipelineTargetTask {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_type must be lead or task"})
		return
	}

	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	pipeline := models.Pipeline{
		OrgID:       org.ID,
		Name:        req.Name,
		TargetType:  req.TargetType,
		IsActive:    true,
		CreatedByID: user.ID,
	}
	if req.WithDefaultStages {
		pipeline.Stages = kanban.DefaultStages(req.TargetType)
	}
	if err := database.DB.Create(&pipeline).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create pipeline", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, pipeline)
}

func ListPipelines(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	query := database.DB.Preload("Stages", stagesInOrder).Where("org_id = ?", org.ID)
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if target := c.Query("target_type"); target != "" {
		query = query.Where("target_type = ?", target)
	}
	var pipelines []models.Pipeline
	if err := query.Order("id").Find(&pipelines).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pipelines", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": pipelines})
}

func GetPipeline(c *gin.Context) {
	id, ok := parseUintParam(c, "pipeline_id")
	if !ok {
		return
	}
	org := middleware.CurrentOrg(c)
	var pipeline models.Pipeline
	if err := database.DB.Preload("Stages", stagesInOrder).
		Where("id = ? AND org_id = ?", id, org.ID).First(&pipeline).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pipeline)
}

func UpdatePipeline(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := parseUintParam(c, "pipeline_id")
	if !ok {
		return
	}
	var req UpdatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org := middleware.CurrentOrg(c)
	var pipeline models.Pipeline
	if err := database.DB.Where("id = ? AND org_id = ?", id, org.ID).First(&pipeline).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	if req.Name != nil {
		pipeline.Name = *req.Name
	}
	if req.IsActive != nil {
		// Deactivating through an update follows the same rule as
		// DeletePipeline: no cards may still sit in the stages.
		if pipeline.IsActive && !*req.IsActive {
			n, err := referencingCards(database.DB, &pipeline)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
				return
			}
			if n > 0 {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("cannot deactivate pipeline %q: %d %s(s) still reference its stages", pipeline.Name, n, pipeline.TargetType),
				})
				return
			}
		}
		pipeline.IsActive = *req.IsActive
	}
	if err := database.DB.Save(&pipeline).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update pipeline", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pipeline)
}

// DeletePipeline deactivates a pipeline. Deactivation is blocked while any
// card still sits in one of its stages.
func DeletePipeline(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := parseUintParam(c, "pipeline_id")
	if !ok {
		return
	}
	org := middleware.CurrentOrg(c)
	var pipeline models.Pipeline
	if err := database.DB.Where("id = ? AND org_id = ?", id, org.ID).First(&pipeline).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}

	n, err := referencingCards(database.DB, &pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	if n > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("cannot deactivate pipeline %q: %d %s(s) still reference its stages", pipeline.Name, n, pipeline.TargetType),
		})
		return
	}

	pipeline.IsActive = false
	if err := database.DB.Save(&pipeline).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate pipeline", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pipeline deactivated"})
}
