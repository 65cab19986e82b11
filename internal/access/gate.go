package access

import (
	"context"
	"errors"
	"log/slog"

	"absensi/internal/identity"
	"absensi/internal/model"
	"absensi/internal/repository"
	"absensi/internal/session"

	"gorm.io/gorm"
)

// PageClass is the audience a protected surface is built for
type PageClass string

const (
	AdminPage PageClass = "admin"
	UserPage  PageClass = "user"
	// AnyPage admits every signed-in principal that has a profile
	AnyPage PageClass = ""
)

// ParsePageClass maps a client-supplied page name to its class
func ParsePageClass(name string) (PageClass, bool) {
	switch PageClass(name) {
	case AdminPage, UserPage:
		return PageClass(name), true
	case "any":
		return AnyPage, true
	}
	return "", false
}

// Reason explains a denial
type Reason string

const (
	NotAuthenticated Reason = "NotAuthenticated"
	ProfileMissing   Reason = "ProfileMissing"
	RoleMismatch     Reason = "RoleMismatch"
	RemoteFailure    Reason = "RemoteFailure"
)

// Redirect targets suggested to the presentation layer
const (
	LoginPage      = "/login"
	UserDashboard  = "/user/dashboard"
	AdminDashboard = "/admin/dashboard"
)

// Decision is the outcome of an access check
type Decision struct {
	Allowed   bool                `json:"allowed"`
	Reason    Reason              `json:"reason,omitempty"`
	Redirect  string              `json:"redirect,omitempty"`
	Principal *identity.Principal `json:"-"`
	Profile   *model.Profile      `json:"-"`
}

// landing is where a role is sent when it lands on a page class it may not use.
// Admins are kept off user pages even though they out-rank users.
var landing = map[string]map[PageClass]string{
	model.RoleUser:  {AdminPage: UserDashboard},
	model.RoleAdmin: {UserPage: AdminDashboard},
}

// Home is the landing page of a role after sign-in
func Home(role string) string {
	switch role {
	case model.RoleAdmin:
		return AdminDashboard
	case model.RoleUser:
		return UserDashboard
	}
	return LoginPage
}

// Decide is the pure access policy
func Decide(principal *identity.Principal, profile *model.Profile, required PageClass) Decision {
	if principal == nil {
		return Decision{Reason: NotAuthenticated, Redirect: LoginPage}
	}
	if profile == nil {
		return Decision{Reason: ProfileMissing, Redirect: LoginPage, Principal: principal}
	}
	if target, denied := landing[profile.Role][required]; denied {
		return Decision{Reason: RoleMismatch, Redirect: target, Principal: principal, Profile: profile}
	}
	if profile.Role != model.RoleAdmin && profile.Role != model.RoleUser {
		return Decision{Reason: RoleMismatch, Redirect: LoginPage, Principal: principal, Profile: profile}
	}
	return Decision{Allowed: true, Principal: principal, Profile: profile}
}

// Authenticator is the part of the identity provider the gate needs
type Authenticator interface {
	CurrentPrincipal(ctx context.Context, token string) (*identity.Principal, error)
	SignOut(ctx context.Context, principal *identity.Principal) error
}

// Gate resolves the principal and profile behind a token and applies Decide
type Gate struct {
	auth     Authenticator
	profiles repository.ProfileRepository
	cache    session.Cache
	logger   *slog.Logger
}

func NewGate(auth Authenticator, profiles repository.ProfileRepository, cache session.Cache, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{auth: auth, profiles: profiles, cache: cache, logger: logger}
}

// Check decides whether the bearer of token may open a page of the required class
func (g *Gate) Check(ctx context.Context, token string, required PageClass) Decision {
	principal, err := g.auth.CurrentPrincipal(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrNotAuthenticated) {
			g.logger.Error("failed to resolve principal", "error", err)
			return Decision{Reason: RemoteFailure, Redirect: LoginPage}
		}
		return Decide(nil, nil, required)
	}

	profile, err := g.Resolve(ctx, principal)
	if err != nil {
		g.logger.Error("failed to resolve profile", "account_id", principal.ID, "error", err)
		g.forceSignOut(ctx, principal)
		return Decision{Reason: RemoteFailure, Redirect: LoginPage, Principal: principal}
	}

	decision := Decide(principal, profile, required)
	if decision.Reason == ProfileMissing {
		g.logger.Warn("authenticated principal has no profile, signing out", "account_id", principal.ID)
		g.forceSignOut(ctx, principal)
	}
	return decision
}

// Resolve returns the principal's profile from the session cache, falling back
// to the profile store on a miss. A missing profile yields (nil, nil).
func (g *Gate) Resolve(ctx context.Context, principal *identity.Principal) (*model.Profile, error) {
	if cached, ok, err := g.cache.Get(ctx, principal.SessionID); err != nil {
		g.logger.Warn("session cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	profile, err := g.profiles.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := g.cache.Set(ctx, principal.SessionID, profile); err != nil {
		g.logger.Warn("session cache write failed", "error", err)
	}
	return profile, nil
}

func (g *Gate) forceSignOut(ctx context.Context, principal *identity.Principal) {
	if err := g.auth.SignOut(ctx, principal); err != nil {
		g.logger.Error("forced sign-out failed", "account_id", principal.ID, "error", err)
	}
	if err := g.cache.Clear(ctx, principal.SessionID); err != nil {
		g.logger.Warn("session cache clear failed", "error", err)
	}
}
