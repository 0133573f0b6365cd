package models

import "time"

// User roles. Admins may mutate pipelines/stages and see every card in the
// org; plain users only see what they created or are assigned to.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is an org member. Authentication happens upstream; this service only
// resolves the acting user from the gateway headers.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OrgID        uint      `json:"org_id" gorm:"index;not null"`
	Username     string    `json:"username" gorm:"index;not null"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role" gorm:"size:20;default:'USER'"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user may perform org-wide mutations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
