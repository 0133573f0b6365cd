package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm-backend/internal/database"
	"crm-backend/internal/models"
)

// Context keys set by the middleware below.
const (
	ContextOrg       = "org"
	ContextUser      = "currentUser"
	ContextRequestID = "requestID"
)

// RequestID tags every request with an id echoed in the response headers so
// failures can be correlated with gateway logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(ContextRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// OrgContext resolves the tenant and acting user from the X-Org-ID and
// X-User-ID headers set by the auth gateway. The gateway owns session
// validation; here the ids are only resolved and scoped to active rows.
func OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, errO := strconv.ParseUint(c.GetHeader("X-Org-ID"), 10, 32)
		userID, errU := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 32)
		if errO != nil || errU != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid org/user headers"})
			return
		}

		var org models.Organization
		if err := database.DB.Where("id = ? AND is_active = ?", uint(orgID), true).First(&org).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "organization not found"})
			return
		}

		var user models.User
		if err := database.DB.Where("id = ? AND org_id = ? AND is_active = ?", uint(userID), org.ID, true).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found in organization"})
			return
		}

		c.Set(ContextOrg, &org)
		c.Set(ContextUser, &user)
		c.Next()
	}
}

// CurrentOrg returns the organization resolved by OrgContext.
func CurrentOrg(c *gin.Context) *models.Organization {
	return c.MustGet(ContextOrg).(*models.Organization)
}

// CurrentUser returns the acting user resolved by OrgContext.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}
