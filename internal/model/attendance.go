package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOnTime = "Hadir"
	StatusLate   = "Terlambat"
)

const (
	// DateLayout is the calendar-day key of an attendance record
	DateLayout = "2006-01-02"
	// TimeLayout is the wall clock shown next to a record
	TimeLayout = "15.04.05"
)

// Attendance is one check-in of an employee on a calendar day.
// (user_id, date) is unique; CreatedAt is assigned by the database.
type Attendance struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_day,priority:1" json:"user_id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_user_day,priority:2;index" json:"date"`
	Time      string    `gorm:"type:varchar(16);not null" json:"time"`
	Shift     string    `gorm:"type:varchar(50);not null" json:"shift"`
	Area      string    `gorm:"type:varchar(100);not null" json:"area"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	PhotoURL  string    `gorm:"type:text;not null" json:"photo_url"`
	Status    string    `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime:false;index" json:"created_at"`
}

// TableName keeps the collection name of the check-in log
func (Attendance) TableName() string {
	return "attendance"
}

// AttendanceWithProfile is a record joined with the owning employee's identity
type AttendanceWithProfile struct {
	Attendance
	EmployeeNumber string `json:"employee_number"`
	Name           string `json:"name"`
}
