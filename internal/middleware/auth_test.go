package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"absensi/internal/access"
	"absensi/internal/identity"
	"absensi/internal/model"
	"absensi/internal/repository/memory"
	"absensi/internal/session"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	store    *memory.Store
	provider *identity.Provider
	cache    *session.MemoryCache
	router   *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	provider := identity.NewProvider(store.Accounts(), []byte("test-secret"), time.Hour)
	cache := session.NewMemoryCache()
	gate := access.NewGate(provider, store.Profiles(), cache, nil)

	r := gin.New()
	ok := func(c *gin.Context) {
		role := ""
		if p := CurrentProfile(c); p != nil {
			role = p.Role
		}
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("userID"), "role": role})
	}
	r.GET("/admin", RequirePage(gate, access.AdminPage), ok)
	r.GET("/user", RequirePage(gate, access.UserPage), ok)
	r.GET("/any", RequirePage(gate, access.AnyPage), ok)
	r.GET("/session", RequireSession(provider), ok)

	return &env{store: store, provider: provider, cache: cache, router: r}
}

func (e *env) signIn(t *testing.T, nip, role string) string {
	t.Helper()
	ctx := context.Background()
	email := model.LoginEmail(nip)
	id, err := e.provider.CreateAccount(ctx, email, "secret123")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if role != "" {
		if err := e.store.Profiles().Create(ctx, &model.Profile{ID: id, EmployeeNumber: nip, Name: "N", Role: role, Email: email}); err != nil {
			t.Fatalf("create profile: %v", err)
		}
	}
	_, token, err := e.provider.Authenticate(ctx, email, "secret123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return token
}

type denial struct {
	StatusCode int `json:"status_code"`
	Data       struct {
		Allowed  bool   `json:"allowed"`
		Reason   string `json:"reason"`
		Redirect string `json:"redirect"`
	} `json:"data"`
}

func (e *env) get(path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func decodeDenial(t *testing.T, w *httptest.ResponseRecorder) denial {
	t.Helper()
	var d denial
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return d
}

func TestRequirePageWithoutToken(t *testing.T) {
	e := newEnv(t)
	w := e.get("/user", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeDenial(t, w)
	if d.Data.Reason != string(access.NotAuthenticated) || d.Data.Redirect != access.LoginPage {
		t.Fatalf("denial = %+v", d.Data)
	}
}

func TestRequirePageRoleMismatchRedirects(t *testing.T) {
	e := newEnv(t)
	userToken := e.signIn(t, "1001", model.RoleUser)
	adminToken := e.signIn(t, "9001", model.RoleAdmin)

	w := e.get("/admin", bearer(userToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("user on admin page status = %d", w.Code)
	}
	if d := decodeDenial(t, w); d.Data.Redirect != access.UserDashboard {
		t.Fatalf("user redirect = %s", d.Data.Redirect)
	}

	w = e.get("/user", bearer(adminToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin on user page status = %d", w.Code)
	}
	if d := decodeDenial(t, w); d.Data.Redirect != access.AdminDashboard {
		t.Fatalf("admin redirect = %s", d.Data.Redirect)
	}
}

func TestRequirePageAllowsCookieToken(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "1001", model.RoleUser)

	w := e.get("/user", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["role"] != model.RoleUser || body["user"] == "" {
		t.Fatalf("context values = %v", body)
	}

	if w := e.get("/any", bearer(token)); w.Code != http.StatusOK {
		t.Fatalf("any page status = %d", w.Code)
	}
}

func TestRequirePageProfileMissingRevokesSession(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "1001", "")

	w := e.get("/user", bearer(token))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if d := decodeDenial(t, w); d.Data.Reason != string(access.ProfileMissing) {
		t.Fatalf("reason = %s", d.Data.Reason)
	}
	if _, err := e.provider.CurrentPrincipal(context.Background(), token); err == nil {
		t.Fatal("session survived a missing profile")
	}
	if w := e.get("/session", bearer(token)); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session status = %d", w.Code)
	}
}

func TestRequireSession(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "1001", "")

	if w := e.get("/session", bearer(token)); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w := e.get("/session", bearer("garbage")); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d", w.Code)
	}
	if w := e.get("/session", func(r *http.Request) { r.Header.Set("Authorization", "Token "+token) }); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong scheme status = %d", w.Code)
	}
}
