package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"absensi/internal/model"
	"absensi/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultActivityDays  = 7
	DefaultActivityLimit = 10
	DefaultLogLimit      = 50
)

// DashboardService reduces attendance records into dashboard figures
type DashboardService interface {
	UserSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*model.UserSummary, error)
	AdminSummary(ctx context.Context) (*model.AdminSummary, error)
	RecentActivity(ctx context.Context, days, limit int) ([]model.AttendanceWithProfile, error)
	AttendanceLog(ctx context.Context, page, limit int) ([]model.AttendanceWithProfile, int64, error)
}

type dashboardService struct {
	statsRepo      repository.StatisticsRepository
	attendanceRepo repository.AttendanceRepository
	profileRepo    repository.ProfileRepository
	loc            *time.Location
	now            func() time.Time
}

// NewDashboardService creates a new dashboard aggregator
func NewDashboardService(
	statsRepo repository.StatisticsRepository,
	attendanceRepo repository.AttendanceRepository,
	profileRepo repository.ProfileRepository,
	loc *time.Location,
) DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &dashboardService{
		statsRepo:      statsRepo,
		attendanceRepo: attendanceRepo,
		profileRepo:    profileRepo,
		loc:            loc,
		now:            time.Now,
	}
}

// MonthWindow spans the calendar month containing t, both ends inclusive
func MonthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// AttendancePercentage divides on-time check-ins by a fixed month of
// AssumedWorkingDaysInMonth days, not by the real calendar.
func AttendancePercentage(counts model.StatusCounts) int {
	if counts.Total == 0 {
		return 0
	}
	return int(math.Round(float64(counts.Present) / model.AssumedWorkingDaysInMonth * 100))
}

// UserSummary counts one employee's records in [start, end]. A zero window
// means the current month.
func (s *dashboardService) UserSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*model.UserSummary, error) {
	if start.IsZero() && end.IsZero() {
		start, end = MonthWindow(s.now().In(s.loc))
	}

	counts, err := s.statsRepo.CountByStatus(ctx, repository.AttendanceFilter{
		UserID: &userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return nil, err
	}

	return &model.UserSummary{
		StatusCounts:       counts,
		Percentage:         AttendancePercentage(counts),
		TimeRangeStartDate: start,
		TimeRangeEndDate:   end,
	}, nil
}

// AdminSummary reports today's check-ins against the number of employees
func (s *dashboardService) AdminSummary(ctx context.Context) (*model.AdminSummary, error) {
	day := s.now().In(s.loc).Format(model.DateLayout)

	employees, err := s.profileRepo.CountByRole(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}

	counts, err := s.statsRepo.CountByStatus(ctx, repository.AttendanceFilter{Date: day})
	if err != nil {
		return nil, err
	}

	return &model.AdminSummary{
		StatusCounts:   counts,
		TotalEmployees: employees,
		Date:           day,
	}, nil
}

func (s *dashboardService) RecentActivity(ctx context.Context, days, limit int) ([]model.AttendanceWithProfile, error) {
	if days < 1 {
		days = DefaultActivityDays
	}
	if limit < 1 {
		limit = DefaultActivityLimit
	}
	since := s.now().In(s.loc).AddDate(0, 0, -days)
	rows, err := s.attendanceRepo.ListRecentWithProfile(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return rows, nil
}

func (s *dashboardService) AttendanceLog(ctx context.Context, page, limit int) ([]model.AttendanceWithProfile, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLogLimit
	}
	rows, total, err := s.attendanceRepo.ListWithProfile(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load attendance log: %w", err)
	}
	return rows, total, nil
}
