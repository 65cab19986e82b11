package repository

import (
	"context"

	"absensi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository defines the interface for data access of Profile entities
type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByEmployeeNumber(ctx context.Context, employeeNumber string) (*model.Profile, error)
	ListByRole(ctx context.Context, role string, page, limit int) ([]model.Profile, int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Update(ctx context.Context, profile *model.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new instance of ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return translate(GetDB(ctx, r.db).Create(profile).Error)
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := GetDB(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmployeeNumber(ctx context.Context, employeeNumber string) (*model.Profile, error) {
	var profile model.Profile
	if err := GetDB(ctx, r.db).First(&profile, "employee_number = ?", employeeNumber).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role string, page, limit int) ([]model.Profile, int64, error) {
	var profiles []model.Profile
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Profile{}).Where("role = ?", role).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("role = ?", role).Order("created_at desc").Offset(offset).Limit(limit).Find(&profiles).Error; err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *profileRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Profile{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// Update writes the editable columns only; role is never part of an update.
func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	return translate(GetDB(ctx, r.db).Model(profile).
		Select("employee_number", "name", "position", "address", "phone", "region", "email", "password_display").
		Updates(profile).Error)
}

func (r *profileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Profile{}).Error
}
