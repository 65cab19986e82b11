package handler

import (
	"net/http"

	"absensi/internal/access"
	"absensi/internal/middleware"
	"absensi/internal/service"
	"absensi/pkg/pagination"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	profileService service.ProfileService
	gate           *access.Gate
}

// NewProfileHandler sets up the routing dependencies for employee management
func NewProfileHandler(profileService service.ProfileService, gate *access.Gate) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, gate: gate}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.RequirePage(h.gate, access.AdminPage))
	{
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.POST("/admins", h.CreateAdmin)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ID format"))
		return uuid.Nil, false
	}
	return id, true
}

// ListUsers handles GET /api/admin/users
// @Summary      List employees
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/admin/users [get]
func (h *ProfileHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)

	users, total, err := h.profileService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Envelope("users", users, total)))
}

// GetUser handles GET /api/admin/users/:id
// @Summary      Get employee
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.Response{data=service.ProfileResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id} [get]
func (h *ProfileHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.profileService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateUser handles PUT /api/admin/users/:id
// @Summary      Update employee
// @Description  Updates employee number, name, position and optionally the password. Role cannot be changed.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Profile ID"
// @Param        payload  body      service.UpdateProfileRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=service.ProfileResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/users/{id} [put]
func (h *ProfileHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.profileService.Update(c.Request.Context(), middleware.CurrentPrincipal(c).ID, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser handles DELETE /api/admin/users/:id
// @Summary      Delete employee
// @Description  Deletes the profile, its attendance history and its account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id} [delete]
func (h *ProfileHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.profileService.Delete(c.Request.Context(), middleware.CurrentPrincipal(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "User deleted successfully"))
}

// CreateAdmin handles POST /api/admin/admins
// @Summary      Create admin
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAdminRequest  true  "Admin Payload"
// @Success      201      {object}  response.Response{data=service.ProfileResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/admins [post]
func (h *ProfileHandler) CreateAdmin(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	admin, err := h.profileService.CreateAdmin(c.Request.Context(), middleware.CurrentPrincipal(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, admin))
}
