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

type CreateStageRequest struct {
	Name           string  `json:"name" binding:"required"`
	Color          string  `json:"color"`
	StageType      string  `json:"stage_type"`
	WIPLimit       *int    `json:"wip_limit"`
	MapsToStatus   *string `json:"maps_to_status"`
	WinProbability *int    `json:"win_probability"`
}

type UpdateStageRequest struct {
	Name           *string `json:"name"`
	Color          *string `json:"color"`
	StageType      *string `json:"stage_type"`
	WIPLimit       *int    `json:"wip_limit"`
	MapsToStatus   *string `json:"maps_to_status"`
	WinProbability *int    `json:"win_probability"`
}

type ReorderStagesRequest struct {
	StageIDs []uint `json:"stage_ids" binding:"required"`
}

func validStageType(t string) bool {
	switch t {
	case models.StageTypeOpen, models.StageTypeInProgress, models.StageTypeWon,
		models.StageTypeLost, models.StageTypeCompleted:
		return true
	}
	return false
}

// loadOrgPipeline fetches a pipeline scoped to the caller's org.
func loadOrgPipeline(c *gin.Context, id uint) (*models.Pipeline, bool) {
	org := middleware.CurrentOrg(c)
	var pipeline models.Pipeline
	if err := database.DB.Where("id = ? AND org_id = ?", id, org.ID).First(&pipeline).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return nil, false
	}
	return &pipeline, true
}

// loadOrgStage fetches a stage whose pipeline belongs to the caller's org.
func loadOrgStage(c *gin.Context, id uint) (*models.Stage, *models.Pipeline, bool) {
	var stage models.Stage
	if err := database.DB.Where("id = ?", id).First(&stage).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "stage not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return nil, nil, false
	}
	org := middleware.CurrentOrg(c)
	var pipeline models.Pipeline
	if err := database.DB.Where("id = ? AND org_id = ?", stage.PipelineID, org.ID).First(&pipeline).Error; err != nil {
		// A stage outside the org is indistinguishable from a missing one.
		c.JSON(http.StatusNotFound, gin.H{"error": "stage not found"})
		return nil, nil, false
	}
	return &stage, &pipeline, true
}

func CreateStage(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	pipelineID, ok := parseUintParam(c, "pipeline_id")
	if !ok {
		return
	}
	var req CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pipeline, ok := loadOrgPipeline(c, pipelineID)
	if !ok {
		return
	}

	if req.StageType == "" {
		req.StageType = models.StageTypeOpen
	}
	if !validStageType(req.StageType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid stage_type %q", req.StageType)})
		return
	}
	if req.WIPLimit != nil && *req.WIPLimit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wip_limit must be a positive integer"})
		return
	}
	if req.WinProbability != nil && (*req.WinProbability < 0 || *req.WinProbability > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "win_probability must be between 0 and 100"})
		return
	}

	// New stages append to the end of the pipeline.
	var maxOrder *int
	if err := database.DB.Model(&models.Stage{}).Where("pipeline_id = ?", pipeline.ID).
		Select("max(stage_order)").Scan(&maxOrder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	order := 0
	if maxOrder != nil {
		order = *maxOrder + 1
	}

	stage := models.Stage{
		PipelineID:     pipeline.ID,
		Name:           req.Name,
		Order:          order,
		Color:          req.Color,
		StageType:      req.StageType,
		WIPLimit:       req.WIPLimit,
		MapsToStatus:   req.MapsToStatus,
		WinProbability: req.WinProbability,
	}
	if err := database.DB.Create(&stage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create stage", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, stage)
}

func UpdateStage(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	stageID, ok := parseUintParam(c, "stage_id")
	if !ok {
		return
	}
	var req UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stage, _, ok := loadOrgStage(c, stageID)
	if !ok {
		return
	}

	if req.Name != nil {
		stage.Name = *req.Name
	}
	if req.Color != nil {
		stage.Color = *req.Color
	}
	if req.StageType != nil {
		if !validStageType(*req.StageType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid stage_type %q", *req.StageType)})
			return
		}
		stage.StageType = *req.StageType
	}
	if req.WIPLimit != nil {
		if *req.WIPLimit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "wip_limit must be a positive integer"})
			return
		}
		stage.WIPLimit = req.WIPLimit
	}
	if req.MapsToStatus != nil {
		stage.MapsToStatus = req.MapsToStatus
	}
	if req.WinProbability != nil {
		if *req.WinProbability < 0 || *req.WinProbability > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "win_probability must be between 0 and 100"})
			return
		}
		stage.WinProbability = req.WinProbability
	}
	if err := database.DB.Save(stage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update stage", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stage)
}

// DeleteStage hard-deletes a stage. Blocked while any live card still sits
// in it.
func DeleteStage(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	stageID, ok := parseUintParam(c, "stage_id")
	if !ok {
		return
	}
	stage, pipeline, ok := loadOrgStage(c, stageID)
	if !ok {
		return
	}

	var n int64
	err := database.DB.Table(entityTable(pipeline.TargetType)).
		Where("stage_id = ? AND is_deleted = ?", stage.ID, false).
		Count(&n).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	if n > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("cannot delete stage %q: %d %s(s) still reference it", stage.Name, n, pipeline.TargetType),
		})
		return
	}

	if err := database.DB.Delete(stage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete stage", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stage deleted"})
}

// ReorderStages rewrites the display order of a pipeline's stages from an
// ordered id list. The list must cover the pipeline's stages exactly; any
// foreign, missing or duplicate id fails the whole operation.
func ReorderStages(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	pipelineID, ok := parseUintParam(c, "pipeline_id")
	if !ok {
		return
	}
	var req ReorderStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pipeline, ok := loadOrgPipeline(c, pipelineID)
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var stages []models.Stage
		if err := tx.Where("pipeline_id = ?", pipeline.ID).Find(&stages).Error; err != nil {
			return err
		}
		if len(req.StageIDs) != len(stages) {
			return &kanban.ValidationError{
				Msg: fmt.Sprintf("reorder must list all %d stages of the pipeline, got %d ids", len(stages), len(req.StageIDs)),
			}
		}
		owned := make(map[uint]bool, len(stages))
		for _, s := range stages {
			owned[s.ID] = true
		}
		seen := make(map[uint]bool, len(req.StageIDs))
		for _, id := range req.StageIDs {
			if !owned[id] {
				return &kanban.ValidationError{Msg: fmt.Sprintf("stage %d does not belong to the pipeline", id)}
			}
			if seen[id] {
				return &kanban.ValidationError{Msg: fmt.Sprintf("stage %d listed twice", id)}
			}
			seen[id] = true
		}
		for idx, id := range req.StageIDs {
			if err := tx.Model(&models.Stage{}).Where("id = ?", id).Update("stage_order", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondKanbanError(c, err)
		return
	}

	var stages []models.Stage
	if err := database.DB.Where("pipeline_id = ?", pipeline.ID).Order("stage_order, id").Find(&stages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stages reordered", "stages": stages})
}
