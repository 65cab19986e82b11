package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"absensi/internal/metrics"
	"absensi/internal/model"
	"absensi/internal/repository"
	"absensi/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrIncomplete       = errors.New("shift, area, location and photo are required")
	ErrAlreadySubmitted = errors.New("attendance already submitted today")
	ErrInvalidPhoto     = errors.New("photo could not be read as an image")
)

// LateAfterHour is the last local hour that still counts as on time
const LateAfterHour = 8

// ClassifyStatus grades a check-in by its local hour. 08:59 is still on time.
func ClassifyStatus(t time.Time) string {
	if t.Hour() > LateAfterHour {
		return model.StatusLate
	}
	return model.StatusOnTime
}

// Photo is the raw upload attached to a check-in
type Photo struct {
	Filename string
	Data     []byte
}

type SubmitRequest struct {
	UserID    uuid.UUID
	Shift     string
	Area      string
	Latitude  *float64
	Longitude *float64
	Photo     *Photo
}

func (r SubmitRequest) complete() bool {
	return r.UserID != uuid.Nil &&
		strings.TrimSpace(r.Shift) != "" &&
		strings.TrimSpace(r.Area) != "" &&
		r.Latitude != nil && r.Longitude != nil &&
		r.Photo != nil && len(r.Photo.Data) > 0
}

// Recorded is the outcome of an accepted check-in
type Recorded struct {
	Record model.Attendance `json:"record"`
	Status string           `json:"status"`
}

// AttendanceService records daily check-ins and serves the employee's own history
type AttendanceService interface {
	Submit(ctx context.Context, req SubmitRequest) (*Recorded, error)
	Today(ctx context.Context, userID uuid.UUID) (*model.Attendance, error)
	Recent(ctx context.Context, userID uuid.UUID, days int) ([]model.Attendance, error)
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	blobs     storage.BlobStore
	publisher EventPublisher
	loc       *time.Location
	now       func() time.Time
}

// NewAttendanceService returns a new instance of AttendanceService. Days are
// cut in loc.
func NewAttendanceService(
	repo repository.AttendanceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	blobs storage.BlobStore,
	publisher EventPublisher,
	loc *time.Location,
) AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &attendanceService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		blobs:     blobs,
		publisher: publisherOrNop(publisher),
		loc:       loc,
		now:       time.Now,
	}
}

func (s *attendanceService) Submit(ctx context.Context, req SubmitRequest) (*Recorded, error) {
	if !req.complete() {
		metrics.ObserveSubmission("incomplete")
		return nil, ErrIncomplete
	}

	now := s.now().In(s.loc)
	day := now.Format(model.DateLayout)

	exists, err := s.exists(ctx, req.UserID, day)
	if err != nil {
		metrics.ObserveSubmission("error")
		return nil, err
	}
	if exists {
		metrics.ObserveSubmission("duplicate")
		return nil, ErrAlreadySubmitted
	}

	photo, err := storage.NormalizePhoto(req.Photo.Data)
	if err != nil {
		metrics.ObserveSubmission("error")
		if errors.Is(err, storage.ErrNotAnImage) {
			return nil, ErrInvalidPhoto
		}
		return nil, err
	}

	recordID := uuid.New()
	blobPath := storage.AttendancePhotoPath(req.UserID, recordID, now, req.Photo.Filename)
	url, err := s.blobs.Put(ctx, blobPath, photo)
	if err != nil {
		metrics.ObserveSubmission("error")
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	record := &model.Attendance{
		ID:        recordID,
		UserID:    req.UserID,
		Date:      day,
		Time:      now.Format(model.TimeLayout),
		Shift:     strings.TrimSpace(req.Shift),
		Area:      strings.TrimSpace(req.Area),
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		PhotoURL:  url,
		Status:    ClassifyStatus(now),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.exists(txCtx, req.UserID, day)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadySubmitted
		}
		if err := s.repo.Create(txCtx, record); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadySubmitted
			}
			return fmt.Errorf("failed to save attendance: %w", err)
		}
		actor := req.UserID
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionCreateAttendance, record.ID.String(), day, map[string]interface{}{
			"status": record.Status,
			"shift":  record.Shift,
			"area":   record.Area,
		})
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, blobPath); delErr != nil {
			slog.Warn("failed to remove orphaned photo", "path", blobPath, "error", delErr)
		}
		if errors.Is(err, ErrAlreadySubmitted) {
			metrics.ObserveSubmission("duplicate")
		} else {
			metrics.ObserveSubmission("error")
		}
		return nil, err
	}

	// The store assigns created_at; read it back so callers see the server time.
	if saved, err := s.repo.FindByUserAndDate(ctx, req.UserID, day); err == nil {
		record = saved
	}

	metrics.ObserveSubmission("recorded")
	s.publisher.Publish(EventAttendanceCreated, record)

	return &Recorded{Record: *record, Status: record.Status}, nil
}

func (s *attendanceService) exists(ctx context.Context, userID uuid.UUID, day string) (bool, error) {
	_, err := s.repo.FindByUserAndDate(ctx, userID, day)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check attendance: %w", err)
}

// Today returns the caller's record for the current local day, or nil
func (s *attendanceService) Today(ctx context.Context, userID uuid.UUID) (*model.Attendance, error) {
	day := s.now().In(s.loc).Format(model.DateLayout)
	record, err := s.repo.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	return record, nil
}

// Recent lists the caller's records created in the last days days, newest first
func (s *attendanceService) Recent(ctx context.Context, userID uuid.UUID, days int) ([]model.Attendance, error) {
	if days < 1 {
		days = 1
	}
	since := s.now().In(s.loc).AddDate(0, 0, -days)
	records, err := s.repo.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	return records, nil
}
