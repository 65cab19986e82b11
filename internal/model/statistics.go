package model

import (
	"time"
)

// AssumedWorkingDaysInMonth is the fixed denominator of the attendance percentage
const AssumedWorkingDaysInMonth = 22

// StatusCounts is the reduction of a set of attendance records
type StatusCounts struct {
	Present int64 `json:"present"`
	Late    int64 `json:"late"`
	Total   int64 `json:"total"`
}

// UserSummary is the employee dashboard for one time window
type UserSummary struct {
	StatusCounts
	Percentage         int       `json:"percentage"`
	TimeRangeStartDate time.Time `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time `json:"time_range_end_date"`
}

// AdminSummary is the admin dashboard for one calendar day
type AdminSummary struct {
	StatusCounts
	TotalEmployees int64  `json:"total_employees"`
	Date           string `json:"date"`
}
