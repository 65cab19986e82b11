package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// EmailDomain is appended to the employee number to form the login identity
const EmailDomain = "absensi.com"

// Profile is the per-employee record. Its ID equals the owning Account ID.
type Profile struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeNumber  string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"employee_number"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Role            string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Position        string    `gorm:"type:varchar(255)" json:"position"`
	Address         string    `gorm:"type:text" json:"address"`
	Phone           string    `gorm:"type:varchar(30)" json:"phone"`
	Region          string    `gorm:"type:varchar(255)" json:"region"`
	Email           string    `gorm:"type:varchar(255);not null" json:"email"`
	PasswordDisplay string    `gorm:"type:varchar(255)" json:"password_display"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoginEmail derives the login identity for an employee number
func LoginEmail(employeeNumber string) string {
	return employeeNumber + "@" + EmailDomain
}
