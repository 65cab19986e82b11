package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"absensi/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
)

func kinds(events []Transition) []TransitionKind {
	out := make([]TransitionKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func sameKinds(got []Transition, want ...TransitionKind) bool {
	k := kinds(got)
	if len(k) != len(want) {
		return false
	}
	for i := range want {
		if k[i] != want[i] {
			return false
		}
	}
	return true
}

func newTestProvider(t *testing.T) (*Provider, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	p := NewProvider(store.Accounts(), []byte("test-secret"), time.Hour)
	return p, store
}

func TestAuthenticateAndResolve(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	id, err := p.CreateAccount(ctx, "1234@absensi.com", "1234DIA")
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	principal, token, err := p.Authenticate(ctx, "1234@absensi.com", "1234DIA")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if principal.ID != id || token == "" {
		t.Fatalf("expected principal %s with token, got %+v", id, principal)
	}

	current, err := p.CurrentPrincipal(ctx, token)
	if err != nil {
		t.Fatalf("current principal failed: %v", err)
	}
	if current.ID != id || current.SessionID != principal.SessionID {
		t.Fatalf("resolved principal mismatch: %+v", current)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "1@absensi.com", "secret"); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	if _, _, err := p.Authenticate(ctx, "missing@absensi.com", "secret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, _, err := p.Authenticate(ctx, "1@absensi.com", "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if _, err := p.CreateAccount(ctx, "1@absensi.com", "other"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCurrentPrincipalRejectsBadTokens(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-jwt"} {
		if _, err := p.CurrentPrincipal(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("token %q: expected ErrNotAuthenticated, got %v", token, err)
		}
	}

	other := NewProvider(p.repo, []byte("other-secret"), time.Hour)
	if _, err := other.CreateAccount(ctx, "x@absensi.com", "pw"); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	_, token, err := other.Authenticate(ctx, "x@absensi.com", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := p.CurrentPrincipal(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected foreign-signed token to be rejected, got %v", err)
	}
}

func TestExpiredSessionIsNotCurrent(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	if _, err := p.CreateAccount(ctx, "e@absensi.com", "pw"); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	_, token, err := p.Authenticate(ctx, "e@absensi.com", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := p.CurrentPrincipal(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
}

func TestSignOutFiresOncePerTransition(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	var events []Transition
	unsubscribe := p.OnChange(func(tr Transition) { events = append(events, tr) })
	defer unsubscribe()

	if _, err := p.CreateAccount(ctx, "s@absensi.com", "pw"); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	principal, token, err := p.Authenticate(ctx, "s@absensi.com", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if err := p.SignOut(ctx, principal); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if err := p.SignOut(ctx, principal); err != nil {
		t.Fatalf("second sign out failed: %v", err)
	}

	if !sameKinds(events, SignedIn, SessionEnded, SignedOut) {
		t.Fatalf("expected signed_in then a single session_ended and signed_out, got %v", kinds(events))
	}
	if _, err := p.CurrentPrincipal(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected revoked session to be rejected, got %v", err)
	}
}

func TestSecondSessionDoesNotRepeatTransitions(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	var events []Transition
	p.OnChange(func(tr Transition) { events = append(events, tr) })

	if _, err := p.CreateAccount(ctx, "m@absensi.com", "pw"); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	first, _, err := p.Authenticate(ctx, "m@absensi.com", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	second, _, err := p.Authenticate(ctx, "m@absensi.com", "pw")
	if err != nil {
		t.Fatalf("second authenticate failed: %v", err)
	}
	if !sameKinds(events, SignedIn) {
		t.Fatalf("expected a single signed_in for two sessions, got %v", kinds(events))
	}

	if err := p.SignOut(ctx, first); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if !sameKinds(events, SignedIn, SessionEnded) {
		t.Fatalf("expected no signed_out while a session remains, got %v", kinds(events))
	}

	if err := p.SignOut(ctx, second); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if !sameKinds(events, SignedIn, SessionEnded, SessionEnded, SignedOut) {
		t.Fatalf("expected signed_out after the last session, got %v", kinds(events))
	}
	if events[3].SessionID != second.SessionID {
		t.Fatalf("signed_out names session %s, want %s", events[3].SessionID, second.SessionID)
	}
}

func TestAuthenticateReportsSessionExpiry(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	if _, err := p.CreateAccount(ctx, "x@absensi.com", "pw"); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	principal, token, err := p.Authenticate(ctx, "x@absensi.com", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if !principal.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at = %v", principal.ExpiresAt)
	}

	session, err := store.Accounts().GetSession(ctx, principal.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if !session.ExpiresAt.Equal(principal.ExpiresAt) {
		t.Fatalf("session expires %v, principal %v", session.ExpiresAt, principal.ExpiresAt)
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.ExpiresAt.Unix() != principal.ExpiresAt.Unix() {
		t.Fatalf("token exp %v, principal %v", claims.ExpiresAt.Time, principal.ExpiresAt)
	}
}

func TestDeleteAccountEndsEverySession(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	id, err := p.CreateAccount(ctx, "d@absensi.com", "pw")
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := p.Authenticate(ctx, "d@absensi.com", "pw"); err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
	}

	var events []Transition
	p.OnChange(func(tr Transition) {
		if tr.AccountID == id {
			events = append(events, tr)
		}
	})

	if err := p.DeleteAccount(ctx, id); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}
	if !sameKinds(events, SessionEnded, SessionEnded, SignedOut) {
		t.Fatalf("expected both sessions ended and one signed_out, got %v", kinds(events))
	}
	if _, _, err := p.Authenticate(ctx, "d@absensi.com", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected deleted account to be gone, got %v", err)
	}
}

func TestDeleteAccountPublishesOnlyAfterCommit(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()

	id, err := p.CreateAccount(ctx, "r@absensi.com", "pw")
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	_, token, err := p.Authenticate(ctx, "r@absensi.com", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	var events []Transition
	p.OnChange(func(tr Transition) { events = append(events, tr) })

	rollback := errors.New("later step failed")
	err = store.TxManager().RunInTx(ctx, func(txCtx context.Context) error {
		if err := p.DeleteAccount(txCtx, id); err != nil {
			return err
		}
		if len(events) != 0 {
			t.Errorf("published inside the transaction: %v", kinds(events))
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("RunInTx err = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("rolled back delete published %v", kinds(events))
	}
	if _, err := p.CurrentPrincipal(ctx, token); err != nil {
		t.Fatalf("session should survive the rollback: %v", err)
	}

	err = store.TxManager().RunInTx(ctx, func(txCtx context.Context) error {
		return p.DeleteAccount(txCtx, id)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}
	if !sameKinds(events, SessionEnded, SignedOut) {
		t.Fatalf("committed delete published %v", kinds(events))
	}
}

func TestUnsubscribe(t *testing.T) {
	n := NewNotifier()
	calls := 0
	unsubscribe := n.Subscribe(func(Transition) { calls++ })
	n.publish(Transition{Kind: SignedIn})
	unsubscribe()
	unsubscribe()
	n.publish(Transition{Kind: SignedOut})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
