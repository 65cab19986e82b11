package repository

import (
	"context"
	"time"

	"absensi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceRepository is the append-only check-in log
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.Attendance) error
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*model.Attendance, error)
	ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Attendance, error)
	ListRecentWithProfile(ctx context.Context, since time.Time, limit int) ([]model.AttendanceWithProfile, error)
	ListWithProfile(ctx context.Context, page, limit int) ([]model.AttendanceWithProfile, int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository returns a new instance of AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, record *model.Attendance) error {
	return translate(GetDB(ctx, r.db).Create(record).Error)
}

func (r *attendanceRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*model.Attendance, error) {
	var record model.Attendance
	if err := GetDB(ctx, r.db).First(&record, "user_id = ? AND date = ?", userID, date).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at desc").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepository) withProfile(db *gorm.DB) *gorm.DB {
	return db.Table("attendance").
		Select("attendance.*, COALESCE(profiles.employee_number, 'N/A') as employee_number, COALESCE(profiles.name, 'Unknown') as name").
		Joins("LEFT JOIN profiles ON profiles.id = attendance.user_id")
}

func (r *attendanceRepository) ListRecentWithProfile(ctx context.Context, since time.Time, limit int) ([]model.AttendanceWithProfile, error) {
	var rows []model.AttendanceWithProfile
	err := r.withProfile(GetDB(ctx, r.db)).
		Where("attendance.created_at >= ?", since).
		Order("attendance.created_at desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *attendanceRepository) ListWithProfile(ctx context.Context, page, limit int) ([]model.AttendanceWithProfile, int64, error) {
	var rows []model.AttendanceWithProfile
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Attendance{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.withProfile(db).Order("attendance.created_at desc").Offset(offset).Limit(limit).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DeleteByUser removes every record of a user in a single statement
func (r *attendanceRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.Attendance{})
	return res.RowsAffected, res.Error
}
