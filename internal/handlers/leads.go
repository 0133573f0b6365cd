package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-backend/internal/database"
	"crm-backend/internal/kanban"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

type CreateLeadRequest struct {
	Title       string `json:"title" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Rating      int    `json:"rating"`
	AssigneeIDs []uint `json:"assignee_ids"`
}

type UpdateLeadRequest struct {
	Title       *string `json:"title"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Rating      *int    `json:"rating"`
	Status      *string `json:"status"`
	AssigneeIDs []uint  `json:"assignee_ids"`
}

// orgUsers resolves assignee ids within the org. Unknown ids fail.
func orgUsers(orgID uint, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := database.DB.Where("org_id = ? AND id IN ? AND is_active = ?", orgID, ids, true).Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, &kanban.ValidationError{Msg: "one or more assignee ids do not resolve in this organization"}
	}
	return users, nil
}

func CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	assignees, err := orgUsers(org.ID, req.AssigneeIDs)
	if err != nil {
		respondKanbanError(c, err)
		return
	}

	lead := models.Lead{
		OrgID:       org.ID,
		Title:       req.Title,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Rating:      req.Rating,
		Status:      models.LeadStatusAssigned,
		KanbanOrder: kanban.OrderBaseline,
		CreatedByID: user.ID,
		Assignees:   assignees,
	}
	if err := database.DB.Create(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lead", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func ListLeads(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	query := database.DB.Model(&models.Lead{}).
		Where("org_id = ? AND is_deleted = ?", org.ID, false)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query = kanban.VisibleTo(database.DB, query, user, "lead_assignees", "lead_id")

	var leads []models.Lead
	if err := query.Preload("Assignees").Order("created_at DESC, id DESC").Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leads", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": len(leads)})
}

// loadVisibleLead fetches a lead the viewer may act on: admins any org
// lead, others only what they created or are assigned to.
func loadVisibleLead(c *gin.Context, id uint) (*models.Lead, bool) {
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	var lead models.Lead
	err := database.DB.Preload("Assignees").
		Where("id = ? AND org_id = ? AND is_deleted = ?", id, org.ID, false).
		First(&lead).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return nil, false
	}
	if !kanban.CanMove(user, lead.CreatedByID, lead.Assignees) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this lead"})
		return nil, false
	}
	return &lead, true
}

func GetLead(c *gin.Context) {
	id, ok := parseUintParam(c, "lead_id")
	if !ok {
		return
	}
	lead, ok := loadVisibleLead(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, lead)
}

// UpdateLead is the plain entity edit: it may rewrite the status but never
// touches the stage or the kanban order, those go through the move endpoint.
func UpdateLead(c *gin.Context) {
	id, ok := parseUintParam(c, "lead_id")
	if !ok {
		return
	}
	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, ok := loadVisibleLead(c, id)
	if !ok {
		return
	}

	if req.Title != nil {
		lead.Title = *req.Title
	}
	if req.FirstName != nil {
		lead.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		lead.LastName = *req.LastName
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Rating != nil {
		lead.Rating = *req.Rating
	}
	if req.Status != nil {
		if !validStatus(*req.Status, models.LeadStatuses) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		lead.Status = *req.Status
	}
	if req.AssigneeIDs != nil {
		org := middleware.CurrentOrg(c)
		assignees, err := orgUsers(org.ID, req.AssigneeIDs)
		if err != nil {
			respondKanbanError(c, err)
			return
		}
		if err := database.DB.Model(lead).Association("Assignees").Replace(assignees); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update assignees", "details": err.Error()})
			return
		}
		lead.Assignees = assignees
	}

	if err := database.DB.Omit("Assignees").Save(lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lead", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lead)
}

func DeleteLead(c *gin.Context) {
	id, ok := parseUintParam(c, "lead_id")
	if !ok {
		return
	}
	lead, ok := loadVisibleLead(c, id)
	if !ok {
		return
	}
	lead.IsDeleted = true
	if err := database.DB.Omit("Assignees").Save(lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete lead", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lead deleted"})
}
