package repository

import (
	"context"
	"fmt"
	"time"

	"absensi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceFilter narrows the records an aggregate is computed over.
// Zero fields do not filter.
type AttendanceFilter struct {
	UserID *uuid.UUID
	Date   string
	Start  time.Time
	End    time.Time
}

type StatisticsRepository interface {
	CountByStatus(ctx context.Context, filter AttendanceFilter) (model.StatusCounts, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, filter AttendanceFilter) (model.StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	q := GetDB(ctx, r.db).Model(&model.Attendance{}).Select("status, COUNT(*) as count")
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if !filter.Start.IsZero() {
		q = q.Where("created_at >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		q = q.Where("created_at <= ?", filter.End)
	}

	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return model.StatusCounts{}, fmt.Errorf("failed to count attendance: %w", err)
	}

	var counts model.StatusCounts
	for _, row := range rows {
		switch row.Status {
		case model.StatusOnTime:
			counts.Present += row.Count
		case model.StatusLate:
			counts.Late += row.Count
		}
		counts.Total += row.Count
	}
	return counts, nil
}
