package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-backend/internal/kanban"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

// columnCap bounds how many cards a single kanban column returns per
// render. Not pagination, just a board-render guard.
const columnCap = 100

// OptionalUint distinguishes an absent JSON field from an explicit null.
// A move request with "stage_id": null clears the stage; a request without
// the field leaves it alone.
type OptionalUint struct {
	Present bool
	Value   *uint
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalUint) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// respondKanbanError maps engine error kinds onto HTTP statuses.
func respondKanbanError(c *gin.Context, err error) {
	var (
		notFound   *kanban.NotFoundError
		permission *kanban.PermissionError
		wip        *kanban.WIPLimitError
		validation *kanban.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &permission):
		c.JSON(http.StatusForbidden, gin.H{"error": permission.Error()})
	case errors.As(err, &wip):
		c.JSON(http.StatusBadRequest, gin.H{"error": wip.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}

// requireAdmin aborts with 403 unless the acting user is an org admin.
func requireAdmin(c *gin.Context) bool {
	if middleware.CurrentUser(c).IsAdmin() {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
	return false
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// parseIDList splits a comma-separated id query parameter. Malformed
// entries are skipped.
func parseIDList(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v, err := strconv.ParseUint(part, 10, 32); err == nil {
			ids = append(ids, uint(v))
		}
	}
	return ids
}

// parseDateQuery reads a YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// resolveStage loads a stage scoped to the org and checks that its pipeline
// serves the given target type. Cross-tenant stages resolve to not-found.
func resolveStage(tx *gorm.DB, orgID, stageID uint, target string) (*models.Stage, error) {
	var stage models.Stage
	if err := tx.Where("id = ?", stageID).First(&stage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &kanban.NotFoundError{Resource: "stage"}
		}
		return nil, err
	}
	var pipeline models.Pipeline
	if err := tx.Where("id = ? AND org_id = ?", stage.PipelineID, orgID).First(&pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &kanban.NotFoundError{Resource: "stage"}
		}
		return nil, err
	}
	if pipeline.TargetType != target {
		return nil, &kanban.ValidationError{Msg: fmt.Sprintf("stage %q belongs to a %s pipeline", stage.Name, pipeline.TargetType)}
	}
	return &stage, nil
}

func validStatus(status string, allowed []string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
