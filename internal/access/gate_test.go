package access

import (
	"context"
	"errors"
	"testing"

	"absensi/internal/identity"
	"absensi/internal/model"
	"absensi/internal/repository"
	"absensi/internal/repository/memory"
	"absensi/internal/session"

	"github.com/google/uuid"
)

type fakeAuth struct {
	principals map[string]*identity.Principal
	err        error
	signedOut  []uuid.UUID
}

func (f *fakeAuth) CurrentPrincipal(_ context.Context, token string) (*identity.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.principals[token]
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	return p, nil
}

func (f *fakeAuth) SignOut(_ context.Context, p *identity.Principal) error {
	f.signedOut = append(f.signedOut, p.SessionID)
	return nil
}

type countingProfiles struct {
	repository.ProfileRepository
	reads int
	err   error
}

func (c *countingProfiles) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	c.reads++
	if c.err != nil {
		return nil, c.err
	}
	return c.ProfileRepository.GetByID(ctx, id)
}

type fixture struct {
	gate     *Gate
	auth     *fakeAuth
	profiles *countingProfiles
	cache    *session.MemoryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		auth:     &fakeAuth{principals: map[string]*identity.Principal{}},
		profiles: &countingProfiles{ProfileRepository: store.Profiles()},
		cache:    session.NewMemoryCache(),
	}
	f.gate = NewGate(f.auth, f.profiles, f.cache, nil)
	return f
}

func (f *fixture) signIn(t *testing.T, token, role string) *identity.Principal {
	t.Helper()
	p := &identity.Principal{ID: uuid.New(), SessionID: uuid.New()}
	f.auth.principals[token] = p
	if role != "" {
		profile := &model.Profile{ID: p.ID, EmployeeNumber: token, Name: "Employee " + token, Role: role}
		if err := f.profiles.Create(context.Background(), profile); err != nil {
			t.Fatalf("create profile failed: %v", err)
		}
	}
	return p
}

func TestDecideAsymmetricPolicy(t *testing.T) {
	p := &identity.Principal{ID: uuid.New()}
	admin := &model.Profile{Role: model.RoleAdmin}
	user := &model.Profile{Role: model.RoleUser}

	cases := []struct {
		name     string
		profile  *model.Profile
		required PageClass
		allowed  bool
		reason   Reason
		redirect string
	}{
		{"admin on admin page", admin, AdminPage, true, "", ""},
		{"user on user page", user, UserPage, true, "", ""},
		{"admin on user page", admin, UserPage, false, RoleMismatch, AdminDashboard},
		{"user on admin page", user, AdminPage, false, RoleMismatch, UserDashboard},
		{"unknown role", &model.Profile{Role: "manager"}, UserPage, false, RoleMismatch, LoginPage},
		{"no profile", nil, UserPage, false, ProfileMissing, LoginPage},
		{"admin on any page", admin, AnyPage, true, "", ""},
		{"user on any page", user, AnyPage, true, "", ""},
		{"unknown role on any page", &model.Profile{Role: "manager"}, AnyPage, false, RoleMismatch, LoginPage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(p, tc.profile, tc.required)
			if d.Allowed != tc.allowed || d.Reason != tc.reason || d.Redirect != tc.redirect {
				t.Fatalf("got %+v", d)
			}
		})
	}

	if d := Decide(nil, nil, AdminPage); d.Reason != NotAuthenticated || d.Redirect != LoginPage {
		t.Fatalf("expected NotAuthenticated to login, got %+v", d)
	}
}

func TestCheckNotAuthenticated(t *testing.T) {
	f := newFixture(t)
	d := f.gate.Check(context.Background(), "unknown", UserPage)
	if d.Allowed || d.Reason != NotAuthenticated || d.Redirect != LoginPage {
		t.Fatalf("got %+v", d)
	}
}

func TestCheckProfileMissingForcesSignOut(t *testing.T) {
	f := newFixture(t)
	p := f.signIn(t, "orphan", "")

	for _, page := range []PageClass{AdminPage, UserPage} {
		d := f.gate.Check(context.Background(), "orphan", page)
		if d.Allowed || d.Reason != ProfileMissing || d.Redirect != LoginPage {
			t.Fatalf("page %s: got %+v", page, d)
		}
	}
	if len(f.auth.signedOut) != 2 || f.auth.signedOut[0] != p.SessionID {
		t.Fatalf("expected forced sign-out of session %s, got %v", p.SessionID, f.auth.signedOut)
	}
	if f.cache.Len() != 0 {
		t.Fatalf("expected empty cache after forced sign-out")
	}
}

func TestCheckRoleMismatch(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "1001", model.RoleAdmin)
	f.signIn(t, "2002", model.RoleUser)

	if d := f.gate.Check(context.Background(), "1001", UserPage); d.Reason != RoleMismatch || d.Redirect != AdminDashboard {
		t.Fatalf("admin on user page: got %+v", d)
	}
	if d := f.gate.Check(context.Background(), "2002", AdminPage); d.Reason != RoleMismatch || d.Redirect != UserDashboard {
		t.Fatalf("user on admin page: got %+v", d)
	}
	if len(f.auth.signedOut) != 0 {
		t.Fatalf("role mismatch must not sign out")
	}
}

func TestCheckAllowedUsesCache(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "2002", model.RoleUser)
	ctx := context.Background()

	first := f.gate.Check(ctx, "2002", UserPage)
	second := f.gate.Check(ctx, "2002", UserPage)
	if !first.Allowed || !second.Allowed {
		t.Fatalf("expected both checks allowed, got %+v / %+v", first, second)
	}
	if f.profiles.reads != 1 {
		t.Fatalf("expected a single store read, got %d", f.profiles.reads)
	}
	if first.Profile.ID != second.Profile.ID {
		t.Fatalf("expected the same profile from cache")
	}
}

func TestCheckStaleRoleIsServedFromCache(t *testing.T) {
	f := newFixture(t)
	p := f.signIn(t, "2002", model.RoleUser)
	ctx := context.Background()

	_ = f.gate.Check(ctx, "2002", UserPage)
	_ = f.cache.Set(ctx, p.SessionID, &model.Profile{ID: p.ID, Role: model.RoleAdmin})

	if d := f.gate.Check(ctx, "2002", AdminPage); !d.Allowed {
		t.Fatalf("expected cached role to be honoured until the session is cleared, got %+v", d)
	}
}

func TestCheckStoreFailureSignsOut(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "2002", model.RoleUser)
	f.profiles.err = errors.New("connection refused")

	d := f.gate.Check(context.Background(), "2002", UserPage)
	if d.Allowed || d.Reason != RemoteFailure || d.Redirect != LoginPage {
		t.Fatalf("got %+v", d)
	}
	if len(f.auth.signedOut) != 1 {
		t.Fatalf("expected forced sign-out on store failure")
	}
}

func TestCheckIdentityFailure(t *testing.T) {
	f := newFixture(t)
	f.auth.err = errors.New("db down")

	d := f.gate.Check(context.Background(), "any", AdminPage)
	if d.Reason != RemoteFailure || d.Redirect != LoginPage {
		t.Fatalf("got %+v", d)
	}
}

func TestParsePageClass(t *testing.T) {
	for name, want := range map[string]PageClass{"admin": AdminPage, "user": UserPage, "any": AnyPage} {
		got, ok := ParsePageClass(name)
		if !ok || got != want {
			t.Errorf("ParsePageClass(%q) = %q, %v", name, got, ok)
		}
	}
	if _, ok := ParsePageClass("manager"); ok {
		t.Error("unknown page class accepted")
	}
}

func TestHome(t *testing.T) {
	if Home(model.RoleAdmin) != AdminDashboard || Home(model.RoleUser) != UserDashboard || Home("x") != LoginPage {
		t.Fatal("unexpected landing pages")
	}
}
