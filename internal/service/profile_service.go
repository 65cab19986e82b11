package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"absensi/internal/identity"
	"absensi/internal/model"
	"absensi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmployeeNumber = errors.New("employee number must be 4 to 30 digits")
	ErrEmployeeNumberTaken   = errors.New("employee number already registered")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrCannotDeleteSelf      = errors.New("cannot delete your own account")
)

const (
	adminPosition = "Administrator"
	adminAddress  = "Kantor Pusat"
	adminPhone    = "-"
	adminRegion   = "Pusat"
)

var employeeNumberPattern = regexp.MustCompile(`^[0-9]{4,30}$`)

// ValidEmployeeNumber reports whether nip is a well-formed employee number
func ValidEmployeeNumber(nip string) bool {
	return employeeNumberPattern.MatchString(nip)
}

// GeneratePassword builds the initial password from the last four characters
// of the employee number and the last three of the name, upper-cased.
func GeneratePassword(nip, name string) string {
	nipPart := nip
	if len(nipPart) > 4 {
		nipPart = nipPart[len(nipPart)-4:]
	}
	nameRunes := []rune(strings.TrimSpace(name))
	if len(nameRunes) > 3 {
		nameRunes = nameRunes[len(nameRunes)-3:]
	}
	return nipPart + strings.ToUpper(string(nameRunes))
}

// AccountManager is the part of the identity provider that profile management drives
type AccountManager interface {
	CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error)
	SetPassword(ctx context.Context, id uuid.UUID, password string) error
	SetEmail(ctx context.Context, id uuid.UUID, email string) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// DTOs for Request validation
type RegisterRequest struct {
	EmployeeNumber string `json:"employee_number" binding:"required,employee_number"`
	Name           string `json:"name" binding:"required"`
	Position       string `json:"position" binding:"required"`
	Address        string `json:"address" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Region         string `json:"region" binding:"required"`
}

type CreateAdminRequest struct {
	EmployeeNumber string `json:"employee_number" binding:"required,employee_number"`
	Name           string `json:"name" binding:"required"`
	Password       string `json:"password" binding:"required,min=6"`
}

type UpdateProfileRequest struct {
	EmployeeNumber string `json:"employee_number" binding:"required,employee_number"`
	Name           string `json:"name" binding:"required"`
	Position       string `json:"position" binding:"required"`
	Password       string `json:"password" binding:"omitempty,min=6"`
}

type ProfileResponse struct {
	ID              uuid.UUID `json:"id"`
	EmployeeNumber  string    `json:"employee_number"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	Position        string    `json:"position"`
	Address         string    `json:"address"`
	Phone           string    `json:"phone"`
	Region          string    `json:"region"`
	Email           string    `json:"email"`
	PasswordDisplay string    `json:"password_display,omitempty"`
	CreatedAt       string    `json:"created_at"`
}

// RegisterResponse carries the generated credential so it can be shown once
type RegisterResponse struct {
	Profile  ProfileResponse `json:"profile"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
}

// ToProfileResponse maps a stored profile onto its API shape
func ToProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		EmployeeNumber:  p.EmployeeNumber,
		Name:            p.Name,
		Role:            p.Role,
		Position:        p.Position,
		Address:         p.Address,
		Phone:           p.Phone,
		Region:          p.Region,
		Email:           p.Email,
		PasswordDisplay: p.PasswordDisplay,
		CreatedAt:       p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ProfileService manages employee and admin profiles together with their accounts
type ProfileService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	CreateAdmin(ctx context.Context, actorID uuid.UUID, req CreateAdminRequest) (*ProfileResponse, error)
	List(ctx context.Context, page, limit int) ([]ProfileResponse, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*ProfileResponse, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateProfileRequest) (*ProfileResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type profileService struct {
	repo           repository.ProfileRepository
	attendanceRepo repository.AttendanceRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	accounts       AccountManager
	publisher      EventPublisher
}

// NewProfileService returns a new instance of ProfileService
func NewProfileService(
	repo repository.ProfileRepository,
	attendanceRepo repository.AttendanceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	accounts AccountManager,
	publisher EventPublisher,
) ProfileService {
	return &profileService{
		repo:           repo,
		attendanceRepo: attendanceRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		accounts:       accounts,
		publisher:      publisherOrNop(publisher),
	}
}

func (s *profileService) ensureNumberFree(ctx context.Context, nip string, self uuid.UUID) error {
	existing, err := s.repo.GetByEmployeeNumber(ctx, nip)
	if err == nil {
		if existing.ID != self {
			return ErrEmployeeNumberTaken
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check employee number: %w", err)
}

// create opens the account and writes its profile in one transaction
func (s *profileService) create(ctx context.Context, actor *uuid.UUID, action, password string, profile *model.Profile) error {
	if !ValidEmployeeNumber(profile.EmployeeNumber) {
		return ErrInvalidEmployeeNumber
	}
	if err := s.ensureNumberFree(ctx, profile.EmployeeNumber, uuid.Nil); err != nil {
		return err
	}
	profile.Email = model.LoginEmail(profile.EmployeeNumber)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		id, err := s.accounts.CreateAccount(txCtx, profile.Email, password)
		if err != nil {
			if errors.Is(err, identity.ErrEmailTaken) {
				return ErrEmployeeNumberTaken
			}
			return err
		}
		profile.ID = id
		if err := s.repo.Create(txCtx, profile); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmployeeNumberTaken
			}
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, action, id.String(), profile.Name, map[string]string{
			"employee_number": profile.EmployeeNumber,
			"role":            profile.Role,
		})
	})
}

// Register self-enrols an employee and returns the generated credential
func (s *profileService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	nip := strings.TrimSpace(req.EmployeeNumber)
	name := strings.TrimSpace(req.Name)
	password := GeneratePassword(nip, name)

	profile := &model.Profile{
		EmployeeNumber:  nip,
		Name:            name,
		Role:            model.RoleUser,
		Position:        strings.TrimSpace(req.Position),
		Address:         strings.TrimSpace(req.Address),
		Phone:           strings.TrimSpace(req.Phone),
		Region:          strings.TrimSpace(req.Region),
		PasswordDisplay: password,
	}
	if err := s.create(ctx, nil, model.ActionRegister, password, profile); err != nil {
		return nil, err
	}

	return &RegisterResponse{Profile: ToProfileResponse(profile), Email: profile.Email, Password: password}, nil
}

func (s *profileService) CreateAdmin(ctx context.Context, actorID uuid.UUID, req CreateAdminRequest) (*ProfileResponse, error) {
	profile := &model.Profile{
		EmployeeNumber:  strings.TrimSpace(req.EmployeeNumber),
		Name:            strings.TrimSpace(req.Name),
		Role:            model.RoleAdmin,
		Position:        adminPosition,
		Address:         adminAddress,
		Phone:           adminPhone,
		Region:          adminRegion,
		PasswordDisplay: req.Password,
	}
	if err := s.create(ctx, &actorID, model.ActionCreateAdmin, req.Password, profile); err != nil {
		return nil, err
	}
	res := ToProfileResponse(profile)
	return &res, nil
}

// List returns employee profiles, newest first
func (s *profileService) List(ctx context.Context, page, limit int) ([]ProfileResponse, int64, error) {
	profiles, total, err := s.repo.ListByRole(ctx, model.RoleUser, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	res := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		res = append(res, ToProfileResponse(&profiles[i]))
	}
	return res, total, nil
}

func (s *profileService) load(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*ProfileResponse, error) {
	profile, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res := ToProfileResponse(profile)
	return &res, nil
}

// Update edits the employee number, name, position and optionally the
// password. Role is never written.
func (s *profileService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateProfileRequest) (*ProfileResponse, error) {
	nip := strings.TrimSpace(req.EmployeeNumber)
	name := strings.TrimSpace(req.Name)
	position := strings.TrimSpace(req.Position)
	if nip == "" || name == "" || position == "" {
		return nil, ErrIncomplete
	}
	if !ValidEmployeeNumber(nip) {
		return nil, ErrInvalidEmployeeNumber
	}

	profile, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNumberFree(ctx, nip, id); err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	numberChanged := profile.EmployeeNumber != nip
	if numberChanged {
		changed["employee_number"] = map[string]string{"old": profile.EmployeeNumber, "new": nip}
		profile.EmployeeNumber = nip
		profile.Email = model.LoginEmail(nip)
	}
	if profile.Name != name {
		changed["name"] = map[string]string{"old": profile.Name, "new": name}
		profile.Name = name
	}
	if profile.Position != position {
		changed["position"] = map[string]string{"old": profile.Position, "new": position}
		profile.Position = position
	}
	if req.Password != "" {
		changed["password"] = "reset"
		profile.PasswordDisplay = req.Password
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, profile); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmployeeNumberTaken
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}
		if numberChanged {
			if err := s.accounts.SetEmail(txCtx, id, profile.Email); err != nil {
				if errors.Is(err, identity.ErrEmailTaken) {
					return ErrEmployeeNumberTaken
				}
				return err
			}
		}
		if req.Password != "" {
			if err := s.accounts.SetPassword(txCtx, id, req.Password); err != nil {
				return fmt.Errorf("failed to update password: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, &actorID, model.ActionUpdateProfile, id.String(), profile.Name, changed)
	})
	if err != nil {
		return nil, err
	}

	res := ToProfileResponse(profile)
	return &res, nil
}

// Delete removes the profile, its attendance history and its account together
func (s *profileService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return ErrCannotDeleteSelf
	}
	profile, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	var removed int64
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		n, err := s.attendanceRepo.DeleteByUser(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to delete attendance: %w", err)
		}
		removed = n
		if err := writeAudit(txCtx, s.auditRepo, &actorID, model.ActionDeleteProfile, id.String(), profile.Name, map[string]interface{}{
			"employee_number":    profile.EmployeeNumber,
			"attendance_removed": n,
		}); err != nil {
			return err
		}
		return s.accounts.DeleteAccount(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(EventProfileDeleted, map[string]interface{}{
		"id":                 id,
		"attendance_removed": removed,
	})
	return nil
}
