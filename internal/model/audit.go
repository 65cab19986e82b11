package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionRegister         = "REGISTER"
	ActionCreateAdmin      = "CREATE_ADMIN"
	ActionUpdateProfile    = "UPDATE_PROFILE"
	ActionDeleteProfile    = "DELETE_PROFILE"
	ActionCreateAttendance = "CREATE_ATTENDANCE"
)

// AuditLog tracks Who, What, and When for profile and attendance changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for self-registration
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
