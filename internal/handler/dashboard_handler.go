package handler

import (
	"net/http"
	"strconv"
	"time"

	"absensi/internal/access"
	"absensi/internal/middleware"
	"absensi/internal/model"
	"absensi/internal/service"
	"absensi/pkg/pagination"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	gate             *access.Gate
	loc              *time.Location
}

func NewDashboardHandler(dashboardService service.DashboardService, gate *access.Gate, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{dashboardService: dashboardService, gate: gate, loc: loc}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard/user", middleware.RequirePage(h.gate, access.UserPage), h.GetUserSummary)

	admin := router.Group("")
	admin.Use(middleware.RequirePage(h.gate, access.AdminPage))
	{
		admin.GET("/api/dashboard/admin", h.GetAdminSummary)
		admin.GET("/api/dashboard/activity", h.GetRecentActivity)
		admin.GET("/api/admin/attendance", h.GetAttendanceLog)
	}
}

// GetUserSummary returns the caller's counts for a window, the current month by default
// @Summary      Employee dashboard
// @Description  Counts Hadir and Terlambat check-ins. Percentage is Hadir divided by a fixed 22 working days.
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        start  query     string  false  "First day (YYYY-MM-DD)"
// @Param        end    query     string  false  "Last day (YYYY-MM-DD), inclusive"
// @Success      200    {object}  response.Response{data=model.UserSummary}
// @Failure      400    {object}  response.Response
// @Router       /api/dashboard/user [get]
func (h *DashboardHandler) GetUserSummary(c *gin.Context) {
	var start, end time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.ParseInLocation(model.DateLayout, s, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start date format, expected YYYY-MM-DD"))
			return
		}
		start = t
	}
	if e := c.Query("end"); e != "" {
		t, err := time.ParseInLocation(model.DateLayout, e, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end date format, expected YYYY-MM-DD"))
			return
		}
		end = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "End date is before start date"))
		return
	}

	summary, err := h.dashboardService.UserSummary(c.Request.Context(), middleware.CurrentPrincipal(c).ID, start, end)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetAdminSummary returns today's check-in counts and the number of employees
// @Summary      Admin dashboard
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.AdminSummary}
// @Router       /api/dashboard/admin [get]
func (h *DashboardHandler) GetAdminSummary(c *gin.Context) {
	summary, err := h.dashboardService.AdminSummary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetRecentActivity returns the latest check-ins across all employees
// @Summary      Recent activity
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        days   query     int  false  "Window in days (default 7)"
// @Param        limit  query     int  false  "Maximum rows (default 10)"
// @Success      200    {object}  response.Response{data=[]model.AttendanceWithProfile}
// @Router       /api/dashboard/activity [get]
func (h *DashboardHandler) GetRecentActivity(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(service.DefaultActivityDays)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultActivityLimit)))
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}

	rows, err := h.dashboardService.RecentActivity(c.Request.Context(), days, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// GetAttendanceLog returns every check-in, newest first
// @Summary      Attendance log
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 50)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/admin/attendance [get]
func (h *DashboardHandler) GetAttendanceLog(c *gin.Context) {
	p := pagination.ParseWithLimit(c, service.DefaultLogLimit)

	rows, total, err := h.dashboardService.AttendanceLog(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Envelope("attendance", rows, total)))
}
