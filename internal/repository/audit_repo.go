package repository

import (
	"context"

	"absensi/internal/model"

	"gorm.io/gorm"
)

// AuditEntry is an audit row with the acting employee's name resolved
type AuditEntry struct {
	model.AuditLog
	ActorName string
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, page, limit int) ([]AuditEntry, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, page, limit int) ([]AuditEntry, int64, error) {
	var entries []AuditEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Table("audit_logs").
		Select("audit_logs.*, COALESCE(profiles.name, '') as actor_name").
		Joins("LEFT JOIN profiles ON profiles.id = audit_logs.user_id").
		Order("audit_logs.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
