package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"absensi/internal/access"
	"absensi/internal/identity"
	"absensi/internal/model"
	"absensi/internal/repository"
	"absensi/internal/repository/memory"
	"absensi/internal/service"
	"absensi/internal/session"
	"absensi/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

var wib = time.FixedZone("WIB", 7*60*60)

type harness struct {
	store    *memory.Store
	provider *identity.Provider
	cache    *session.MemoryCache
	router   *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithAccounts(t, func(r repository.AccountRepository) repository.AccountRepository { return r })
}

// newHarnessWithAccounts lets a test wrap the account store the provider uses
func newHarnessWithAccounts(t *testing.T, wrap func(repository.AccountRepository) repository.AccountRepository) *harness {
	t.Helper()
	store := memory.NewStore()
	provider := identity.NewProvider(wrap(store.Accounts()), []byte("test-secret"), time.Hour)
	cache := session.NewMemoryCache()
	provider.OnChange(func(tr identity.Transition) {
		if tr.Kind == identity.SessionEnded {
			_ = cache.Clear(context.Background(), tr.SessionID)
		}
	})
	gate := access.NewGate(provider, store.Profiles(), cache, nil)

	blobs, err := storage.NewLocalStore(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	attendance := service.NewAttendanceService(store.Attendance(), store.Audit(), store.TxManager(), blobs, nil, wib)
	dashboard := service.NewDashboardService(store.Statistics(), store.Attendance(), store.Profiles(), wib)
	profiles := service.NewProfileService(store.Profiles(), store.Attendance(), store.Audit(), store.TxManager(), provider, nil)
	audit := service.NewAuditService(store.Audit())

	r := gin.New()
	r.MaxMultipartMemory = MaxPhotoUpload
	NewAuthHandler(provider, profiles, gate).RegisterRoutes(r.Group(""))
	NewAttendanceHandler(attendance, gate).RegisterRoutes(r.Group(""))
	NewDashboardHandler(dashboard, gate, wib).RegisterRoutes(r.Group(""))
	NewProfileHandler(profiles, gate).RegisterRoutes(r.Group(""))
	NewAuditHandler(audit, gate).RegisterRoutes(r.Group(""))

	return &harness{store: store, provider: provider, cache: cache, router: r}
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return h.serve(t, req, token)
}

func (h *harness) serve(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s body %q: %v", req.Method, req.URL.Path, w.Body.String(), err)
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

// seedAdmin creates an admin directly in the stores and signs it in
func (h *harness) seedAdmin(t *testing.T, nip string) string {
	t.Helper()
	ctx := context.Background()
	email := model.LoginEmail(nip)
	id, err := h.provider.CreateAccount(ctx, email, "admin123")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	err = h.store.Profiles().Create(ctx, &model.Profile{
		ID: id, EmployeeNumber: nip, Name: "Admin", Role: model.RoleAdmin, Email: email,
	})
	if err != nil {
		t.Fatalf("create admin profile: %v", err)
	}
	_, token, err := h.provider.Authenticate(ctx, email, "admin123")
	if err != nil {
		t.Fatalf("Authenticate admin: %v", err)
	}
	return token
}

// register signs up an employee through the API and logs in with the generated password
func (h *harness) register(t *testing.T, nip, name string) (service.RegisterResponse, string) {
	t.Helper()
	w, env := h.do(t, http.MethodPost, "/register", "", service.RegisterRequest{
		EmployeeNumber: nip,
		Name:           name,
		Position:       "Staff",
		Address:        "Jl. Merdeka 1",
		Phone:          "0812",
		Region:         "Jakarta",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d error = %s", w.Code, env.Error)
	}
	var reg service.RegisterResponse
	decode(t, env.Data, &reg)

	w, env = h.do(t, http.MethodPost, "/login", "", LoginRequest{EmployeeNumber: nip, Password: reg.Password})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d error = %s", w.Code, env.Error)
	}
	var tok TokenResponse
	decode(t, env.Data, &tok)
	return reg, tok.Token
}

func photoBytes(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(32, 32, color.NRGBA{R: 10, G: 90, B: 160, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode photo: %v", err)
	}
	return buf.Bytes()
}

func checkInRequest(t *testing.T, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if photo != nil {
		part, err := mw.CreateFormFile("photo", "selfie.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write(photo)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/attendance", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func fullForm() map[string]string {
	return map[string]string{
		"shift":     "Pagi",
		"area":      "Gudang A",
		"latitude":  "-6.2",
		"longitude": "106.8",
	}
}
