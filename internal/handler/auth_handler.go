package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"absensi/internal/access"
	"absensi/internal/identity"
	"absensi/internal/middleware"
	"absensi/internal/model"
	"absensi/internal/service"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest accepts either the login email or the bare employee number
type LoginRequest struct {
	Email          string `json:"email" binding:"omitempty,email"`
	EmployeeNumber string `json:"employee_number" binding:"omitempty,employee_number"`
	Password       string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expires_at"`
	Redirect  string                  `json:"redirect"`
	Profile   service.ProfileResponse `json:"profile"`
}

type AuthHandler struct {
	provider *identity.Provider
	profiles service.ProfileService
	gate     *access.Gate
}

// NewAuthHandler sets up the routing dependencies for auth endpoints
func NewAuthHandler(provider *identity.Provider, profiles service.ProfileService, gate *access.Gate) *AuthHandler {
	return &AuthHandler{provider: provider, profiles: profiles, gate: gate}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/logout", middleware.RequireSession(h.provider), h.Logout)
	router.GET("/me", middleware.RequirePage(h.gate, access.AnyPage), h.GetMe)
	router.GET("/api/access/:page", h.CheckAccess)
}

// Register handles employee self-registration
// @Summary      Register employee
// @Description  Creates an employee account and profile. The login email and generated password are returned once.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration Payload"
// @Success      201      {object}  response.Response{data=service.RegisterResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.profiles.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Login handles POST /login to authenticate and return a session token
// @Summary      Login
// @Description  Authenticates by email or employee number and password. The response names the landing page for the role.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Email == "" && req.EmployeeNumber == "") {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = model.LoginEmail(strings.TrimSpace(req.EmployeeNumber))
	}

	ctx := c.Request.Context()
	principal, token, err := h.provider.Authenticate(ctx, email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	profile, err := h.gate.Resolve(ctx, principal)
	if err != nil || profile == nil {
		// A credential without a profile is never left signed in
		if signOutErr := h.provider.SignOut(ctx, principal); signOutErr != nil {
			slog.Error("sign-out after failed profile lookup failed", "account_id", principal.ID, "error", signOutErr)
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, response.Fail(http.StatusUnauthorized, "Profile not found",
			access.Decision{Reason: access.ProfileMissing, Redirect: access.LoginPage}))
		return
	}

	middleware.SetTokenCookies(c, token, h.provider.TTL())

	c.JSON(http.StatusOK, response.Success(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: principal.ExpiresAt,
		Redirect:  access.Home(profile.Role),
		Profile:   profileResponse(profile),
	}))
}

// Logout handles POST /logout to end the session and clear the auth cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.provider.SignOut(c.Request.Context(), middleware.CurrentPrincipal(c)); err != nil {
		fail(c, err)
		return
	}
	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// GetMe handles GET /me to return the signed-in profile
// @Summary      Get current profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ProfileResponse}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	profile := middleware.CurrentProfile(c)
	if profile == nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Profile not found in context"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profileResponse(profile)))
}

// CheckAccess reports the access decision for a page class without enforcing it
// @Summary      Check page access
// @Description  Returns whether the caller may open a page of the class and where to go otherwise. Page is admin, user or any.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        page  path      string  true  "Page class"
// @Success      200   {object}  response.Response{data=access.Decision}
// @Failure      400   {object}  response.Response
// @Router       /api/access/{page} [get]
func (h *AuthHandler) CheckAccess(c *gin.Context) {
	class, ok := access.ParsePageClass(c.Param("page"))
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unknown page class"))
		return
	}

	decision := h.gate.Check(c.Request.Context(), middleware.TokenFromRequest(c), class)
	if !decision.Allowed && middleware.DenialStatus(decision.Reason) == http.StatusUnauthorized {
		middleware.ClearTokenCookies(c)
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, decision))
}

// profileResponse is the caller's own profile; the stored password copy is only shown to admins
func profileResponse(p *model.Profile) service.ProfileResponse {
	res := service.ToProfileResponse(p)
	res.PasswordDisplay = ""
	return res
}
