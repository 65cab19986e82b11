package repository

import (
	"context"
	"time"

	"absensi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository is the credential and session store behind the identity provider
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RevokeAllSessions(ctx context.Context, accountID uuid.UUID, at time.Time) ([]uuid.UUID, error)
	CountActiveSessions(ctx context.Context, accountID uuid.UUID, at time.Time) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new instance of AccountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return translate(GetDB(ctx, r.db).Create(account).Error)
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return GetDB(ctx, r.db).Model(&model.Account{}).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *accountRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return translate(GetDB(ctx, r.db).Model(&model.Account{}).Where("id = ?", id).Update("email", email).Error)
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("account_id = ?", id).Delete(&model.Session{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Account{}).Error
}

func (r *accountRepository) CreateSession(ctx context.Context, session *model.Session) error {
	return GetDB(ctx, r.db).Create(session).Error
}

func (r *accountRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var session model.Session
	if err := GetDB(ctx, r.db).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// RevokeSession reports whether this call was the one that revoked the session
func (r *accountRepository) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	return res.RowsAffected > 0, res.Error
}

// RevokeAllSessions returns the ids of the sessions that were still unrevoked
func (r *accountRepository) RevokeAllSessions(ctx context.Context, accountID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	db := GetDB(ctx, r.db)
	var ids []uuid.UUID
	if err := db.Model(&model.Session{}).
		Where("account_id = ? AND revoked_at IS NULL AND expires_at > ?", accountID, at).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := db.Model(&model.Session{}).Where("id IN ?", ids).Update("revoked_at", at).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountActiveSessions counts the account's sessions that are unrevoked and unexpired at at
func (r *accountRepository) CountActiveSessions(ctx context.Context, accountID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Session{}).
		Where("account_id = ? AND revoked_at IS NULL AND expires_at > ?", accountID, at).
		Count(&n).Error
	return n, err
}
