package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"absensi/internal/access"
	"absensi/internal/middleware"
	"absensi/internal/service"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaxPhotoUpload bounds the photo part of a check-in form
const MaxPhotoUpload = 8 << 20

// SubmitAttendanceForm is the multipart check-in form; the photo travels in the "photo" part
type SubmitAttendanceForm struct {
	Shift     string   `form:"shift"`
	Area      string   `form:"area"`
	Latitude  *float64 `form:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `form:"longitude" binding:"omitempty,longitude"`
}

type AttendanceHandler struct {
	attendanceService service.AttendanceService
	gate              *access.Gate
}

func NewAttendanceHandler(attendanceService service.AttendanceService, gate *access.Gate) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, gate: gate}
}

func (h *AttendanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/attendance")
	group.Use(middleware.RequirePage(h.gate, access.UserPage))
	{
		group.POST("", h.Submit)
		group.GET("/today", h.Today)
		group.GET("/recent", h.Recent)
	}
}

// Submit records today's check-in for the signed-in employee
// @Summary      Submit attendance
// @Description  Records one check-in per employee per day with a photo and coordinates. After 08:59 local time the status is Terlambat.
// @Tags         attendance
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        shift      formData  string  true  "Shift"
// @Param        area       formData  string  true  "Work area"
// @Param        latitude   formData  number  true  "Latitude"
// @Param        longitude  formData  number  true  "Longitude"
// @Param        photo      formData  file    true  "Selfie"
// @Success      201        {object}  response.Response{data=service.Recorded}
// @Failure      400        {object}  response.Response
// @Failure      409        {object}  response.Response
// @Router       /api/attendance [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var form SubmitAttendanceForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	principal := middleware.CurrentPrincipal(c)
	res, err := h.attendanceService.Submit(c.Request.Context(), service.SubmitRequest{
		UserID:    principal.ID,
		Shift:     form.Shift,
		Area:      form.Area,
		Latitude:  form.Latitude,
		Longitude: form.Longitude,
		Photo:     photo,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// readPhoto returns nil when the form has no photo part
func readPhoto(c *gin.Context) (*service.Photo, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}
	if header.Size > MaxPhotoUpload {
		return nil, fmt.Errorf("photo exceeds %d MB", MaxPhotoUpload>>20)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > MaxPhotoUpload {
		return nil, fmt.Errorf("photo exceeds %d MB", MaxPhotoUpload>>20)
	}
	return &service.Photo{Filename: header.Filename, Data: data}, nil
}

// Today returns the caller's check-in for the current day, or null
// @Summary      Today's attendance
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.Attendance}
// @Router       /api/attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	record, err := h.attendanceService.Today(c.Request.Context(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"submitted": record != nil,
		"record":    record,
	}))
}

// Recent lists the caller's check-ins of the last days
// @Summary      Recent attendance
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Param        days  query     int  false  "Window in days (default 7)"
// @Success      200   {object}  response.Response{data=[]model.Attendance}
// @Router       /api/attendance/recent [get]
func (h *AttendanceHandler) Recent(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 || days > 31 {
		days = 7
	}

	records, err := h.attendanceService.Recent(c.Request.Context(), middleware.CurrentPrincipal(c).ID, days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}
