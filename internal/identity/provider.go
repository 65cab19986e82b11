package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"absensi/internal/model"
	"absensi/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrEmailTaken        = errors.New("email already registered")
)

// Principal is the authenticated identity behind one session token
type Principal struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// Provider authenticates accounts and issues revocable JWT sessions
type Provider struct {
	repo     repository.AccountRepository
	secret   []byte
	ttl      time.Duration
	notifier *Notifier
	now      func() time.Time

	// signedIn holds the accounts last announced as SignedIn
	mu       sync.Mutex
	signedIn map[uuid.UUID]bool
}

// NewProvider returns a new identity provider
func NewProvider(repo repository.AccountRepository, secret []byte, ttl time.Duration) *Provider {
	return &Provider{
		repo:     repo,
		secret:   secret,
		ttl:      ttl,
		notifier: NewNotifier(),
		now:      time.Now,
		signedIn: map[uuid.UUID]bool{},
	}
}

// TTL is the lifetime of an issued session
func (p *Provider) TTL() time.Duration {
	return p.ttl
}

// OnChange subscribes fn to session transitions
func (p *Provider) OnChange(fn func(Transition)) func() {
	return p.notifier.Subscribe(fn)
}

// Authenticate verifies the credential pair and opens a new session
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*Principal, string, error) {
	account, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredential
	}

	now := p.now()
	session := &model.Session{
		ID:        uuid.New(),
		AccountID: account.ID,
		ExpiresAt: now.Add(p.ttl),
	}
	if err := p.repo.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account.ID.String(),
		ID:        session.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, "", errors.New("failed to generate token")
	}

	principal := &Principal{ID: account.ID, SessionID: session.ID, Email: account.Email, ExpiresAt: session.ExpiresAt}
	p.settle(ctx, account.ID, session.ID)
	return principal, signed, nil
}

// CurrentPrincipal resolves a token to its principal while the session is active
func (p *Provider) CurrentPrincipal(ctx context.Context, tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := p.parse(tokenString)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	session, err := p.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.AccountID != accountID || !session.Active(p.now()) {
		return nil, ErrNotAuthenticated
	}

	return &Principal{ID: accountID, SessionID: sessionID, ExpiresAt: session.ExpiresAt}, nil
}

// SignOut revokes the session behind the principal. Signing out twice is a no-op.
func (p *Provider) SignOut(ctx context.Context, principal *Principal) error {
	revoked, err := p.repo.RevokeSession(ctx, principal.SessionID, p.now())
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if revoked {
		p.notifier.publish(Transition{Kind: SessionEnded, AccountID: principal.ID, SessionID: principal.SessionID})
		p.settle(ctx, principal.ID, principal.SessionID)
	}
	return nil
}

// settle compares the account's active session count with what was last
// announced and publishes SignedIn or SignedOut when the account crossed
// between zero and one or more active sessions.
func (p *Provider) settle(ctx context.Context, accountID, sessionID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.repo.CountActiveSessions(ctx, accountID, p.now())
	if err != nil {
		slog.Warn("failed to count active sessions", "account_id", accountID, "error", err)
		return
	}
	switch {
	case n > 0 && !p.signedIn[accountID]:
		p.signedIn[accountID] = true
		p.notifier.publish(Transition{Kind: SignedIn, AccountID: accountID, SessionID: sessionID})
	case n == 0 && p.signedIn[accountID]:
		delete(p.signedIn, accountID)
		p.notifier.publish(Transition{Kind: SignedOut, AccountID: accountID, SessionID: sessionID})
	}
}

// CreateAccount registers a credential and returns the new account id
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, errors.New("failed to hash password")
	}

	account := &model.Account{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
	if err := p.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return uuid.Nil, ErrEmailTaken
		}
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account.ID, nil
}

// SetPassword replaces the credential of an account
func (p *Provider) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}
	return p.repo.UpdatePassword(ctx, id, string(hash))
}

// SetEmail changes the login identity of an account
func (p *Provider) SetEmail(ctx context.Context, id uuid.UUID, email string) error {
	if err := p.repo.UpdateEmail(ctx, id, email); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update email: %w", err)
	}
	return nil
}

// DeleteAccount revokes every session of the account and removes it. Inside a
// transaction the session transitions are published once it commits.
func (p *Provider) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	revoked, err := p.repo.RevokeAllSessions(ctx, id, p.now())
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if len(revoked) > 0 {
		repository.AfterCommit(ctx, func(ctx context.Context) {
			for _, sid := range revoked {
				p.notifier.publish(Transition{Kind: SessionEnded, AccountID: id, SessionID: sid})
			}
			p.settle(ctx, id, revoked[len(revoked)-1])
		})
	}
	if err := p.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (p *Provider) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}
