package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/database"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
	"crm-backend/internal/utils"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// CreateUser adds a member to the org. Admin only; the auth gateway issues
// credentials from the same table.
func CreateUser(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be ADMIN or USER"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	org := middleware.CurrentOrg(c)
	user := models.User{
		OrgID:        org.ID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers returns the org's active members.
func ListUsers(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	var users []models.User
	err := database.DB.Where("org_id = ? AND is_active = ?", org.ID, true).Order("id").Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
