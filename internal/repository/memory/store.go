// Package memory keeps every repository in process memory. It backs the
// DB_DRIVER=memory mode and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"absensi/internal/model"
	"absensi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey struct{}

// Store holds all collections behind one lock
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	accounts   map[uuid.UUID]model.Account
	sessions   map[uuid.UUID]model.Session
	profiles   map[uuid.UUID]model.Profile
	attendance []model.Attendance
	audits     []model.AuditLog

	// Now assigns server timestamps
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts: map[uuid.UUID]model.Account{},
		sessions: map[uuid.UUID]model.Session{},
		profiles: map[uuid.UUID]model.Profile{},
		Now:      time.Now,
	}
}

func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }
func (s *Store) Attendance() repository.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Statistics() repository.StatisticsRepository { return statisticsRepo{s} }
func (s *Store) Audit() repository.AuditRepository { return auditRepo{s} }
func (s *Store) TxManager() repository.TransactionManager { return txManager{s} }

// AttendanceCount returns the number of stored check-ins
func (s *Store) AttendanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendance)
}

// AuditActions lists recorded audit actions oldest first
func (s *Store) AuditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		out = append(out, a.Action)
	}
	return out
}

type snapshot struct {
	accounts   map[uuid.UUID]model.Account
	sessions   map[uuid.UUID]model.Session
	profiles   map[uuid.UUID]model.Profile
	attendance []model.Attendance
	audits     []model.AuditLog
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		accounts:   make(map[uuid.UUID]model.Account, len(s.accounts)),
		sessions:   make(map[uuid.UUID]model.Session, len(s.sessions)),
		profiles:   make(map[uuid.UUID]model.Profile, len(s.profiles)),
		attendance: append([]model.Attendance(nil), s.attendance...),
		audits:     append([]model.AuditLog(nil), s.audits...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.sessions {
		snap.sessions[k] = v
	}
	for k, v := range s.profiles {
		snap.profiles[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.sessions = snap.sessions
	s.profiles = snap.profiles
	s.attendance = snap.attendance
	s.audits = snap.audits
}

// lockWrite takes the store lock for a write. A write outside a transaction
// also waits for the running transaction, so a rollback never discards it.
func (s *Store) lockWrite(ctx context.Context) func() {
	if ctx.Value(ctxKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

type txManager struct{ s *Store }

// RunInTx serialises transactions and rolls the store back when fn fails.
// Writes made from fn's own goroutine must use txCtx; a write with an outer
// context waits for the transaction to finish.
func (t txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(ctxKey{}) != nil {
		return fn(ctx)
	}
	ctx, commit := repository.TrackCommit(ctx)

	t.s.txMu.Lock()
	snap := t.s.snapshot()
	err := fn(context.WithValue(ctx, ctxKey{}, true))
	if err != nil {
		t.s.restore(snap)
	}
	t.s.txMu.Unlock()

	if err != nil {
		return err
	}
	commit()
	return nil
}

type accountRepo struct{ s *Store }

func (r accountRepo) Create(ctx context.Context, account *model.Account) error {
	defer r.s.lockWrite(ctx)()
	for _, a := range r.s.accounts {
		if a.Email == account.Email {
			return repository.ErrDuplicate
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = r.s.Now()
	account.UpdatedAt = account.CreatedAt
	r.s.accounts[account.ID] = *account
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r accountRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	defer r.s.lockWrite(ctx)()
	a, ok := r.s.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = r.s.Now()
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	defer r.s.lockWrite(ctx)()
	a, ok := r.s.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for other, acc := range r.s.accounts {
		if other != id && acc.Email == email {
			return repository.ErrDuplicate
		}
	}
	a.Email = email
	a.UpdatedAt = r.s.Now()
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lockWrite(ctx)()
	for sid, sess := range r.s.sessions {
		if sess.AccountID == id {
			delete(r.s.sessions, sid)
		}
	}
	delete(r.s.accounts, id)
	return nil
}

func (r accountRepo) CreateSession(ctx context.Context, session *model.Session) error {
	defer r.s.lockWrite(ctx)()
	session.CreatedAt = r.s.Now()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r accountRepo) GetSession(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sess, nil
}

func (r accountRepo) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	defer r.s.lockWrite(ctx)()
	sess, ok := r.s.sessions[id]
	if !ok || sess.RevokedAt != nil {
		return false, nil
	}
	sess.RevokedAt = &at
	r.s.sessions[id] = sess
	return true, nil
}

func (r accountRepo) RevokeAllSessions(ctx context.Context, accountID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	defer r.s.lockWrite(ctx)()
	var ids []uuid.UUID
	for sid, sess := range r.s.sessions {
		if sess.AccountID != accountID || !sess.Active(at) {
			continue
		}
		revokedAt := at
		sess.RevokedAt = &revokedAt
		r.s.sessions[sid] = sess
		ids = append(ids, sid)
	}
	return ids, nil
}

func (r accountRepo) CountActiveSessions(_ context.Context, accountID uuid.UUID, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sess := range r.s.sessions {
		if sess.AccountID == accountID && sess.Active(at) {
			n++
		}
	}
	return n, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) Create(ctx context.Context, profile *model.Profile) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.profiles[profile.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, p := range r.s.profiles {
		if p.EmployeeNumber == profile.EmployeeNumber {
			return repository.ErrDuplicate
		}
	}
	profile.CreatedAt = r.s.Now()
	profile.UpdatedAt = profile.CreatedAt
	r.s.profiles[profile.ID] = *profile
	return nil
}

func (r profileRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r profileRepo) GetByEmployeeNumber(_ context.Context, employeeNumber string) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if p.EmployeeNumber == employeeNumber {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r profileRepo) ListByRole(_ context.Context, role string, page, limit int) ([]model.Profile, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []model.Profile
	for _, p := range r.s.profiles {
		if p.Role == role {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (r profileRepo) CountByRole(_ context.Context, role string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.profiles {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (r profileRepo) Update(ctx context.Context, profile *model.Profile) error {
	defer r.s.lockWrite(ctx)()
	current, ok := r.s.profiles[profile.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for id, p := range r.s.profiles {
		if id != profile.ID && p.EmployeeNumber == profile.EmployeeNumber {
			return repository.ErrDuplicate
		}
	}
	current.EmployeeNumber = profile.EmployeeNumber
	current.Name = profile.Name
	current.Position = profile.Position
	current.Address = profile.Address
	current.Phone = profile.Phone
	current.Region = profile.Region
	current.Email = profile.Email
	current.PasswordDisplay = profile.PasswordDisplay
	current.UpdatedAt = r.s.Now()
	r.s.profiles[profile.ID] = current
	return nil
}

func (r profileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lockWrite(ctx)()
	delete(r.s.profiles, id)
	return nil
}

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) Create(ctx context.Context, record *model.Attendance) error {
	defer r.s.lockWrite(ctx)()
	for _, a := range r.s.attendance {
		if a.UserID == record.UserID && a.Date == record.Date {
			return repository.ErrDuplicate
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = r.s.Now()
	r.s.attendance = append(r.s.attendance, *record)
	return nil
}

func (r attendanceRepo) FindByUserAndDate(_ context.Context, userID uuid.UUID, date string) (*model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attendance {
		if a.UserID == userID && a.Date == date {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r attendanceRepo) ListByUserSince(_ context.Context, userID uuid.UUID, since time.Time) ([]model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Attendance
	for _, a := range r.s.attendance {
		if a.UserID == userID && !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r attendanceRepo) joined(records []model.Attendance) []model.AttendanceWithProfile {
	out := make([]model.AttendanceWithProfile, 0, len(records))
	for _, a := range records {
		row := model.AttendanceWithProfile{Attendance: a, EmployeeNumber: "N/A", Name: "Unknown"}
		if p, ok := r.s.profiles[a.UserID]; ok {
			row.EmployeeNumber = p.EmployeeNumber
			row.Name = p.Name
		}
		out = append(out, row)
	}
	return out
}

func (r attendanceRepo) ListRecentWithProfile(_ context.Context, since time.Time, limit int) ([]model.AttendanceWithProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []model.Attendance
	for _, a := range r.s.attendance {
		if !a.CreatedAt.Before(since) {
			matched = append(matched, a)
		}
	}
	sortNewestFirst(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return r.joined(matched), nil
}

func (r attendanceRepo) ListWithProfile(_ context.Context, page, limit int) ([]model.AttendanceWithProfile, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := append([]model.Attendance(nil), r.s.attendance...)
	sortNewestFirst(all)
	return r.joined(paginate(all, page, limit)), int64(len(all)), nil
}

func (r attendanceRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	defer r.s.lockWrite(ctx)()
	kept := r.s.attendance[:0]
	var removed int64
	for _, a := range r.s.attendance {
		if a.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.s.attendance = kept
	return removed, nil
}

type statisticsRepo struct{ s *Store }

func (r statisticsRepo) CountByStatus(_ context.Context, f repository.AttendanceFilter) (model.StatusCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var counts model.StatusCounts
	for _, a := range r.s.attendance {
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if !f.Start.IsZero() && a.CreatedAt.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && a.CreatedAt.After(f.End) {
			continue
		}
		switch a.Status {
		case model.StatusOnTime:
			counts.Present++
		case model.StatusLate:
			counts.Late++
		}
		counts.Total++
	}
	return counts, nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	defer r.s.lockWrite(ctx)()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = r.s.Now()
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

func (r auditRepo) List(_ context.Context, page, limit int) ([]repository.AuditEntry, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]repository.AuditEntry, 0, len(r.s.audits))
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		entry := repository.AuditEntry{AuditLog: r.s.audits[i]}
		if entry.UserID != nil {
			if p, ok := r.s.profiles[*entry.UserID]; ok {
				entry.ActorName = p.Name
			}
		}
		all = append(all, entry)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func sortNewestFirst(records []model.Attendance) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
