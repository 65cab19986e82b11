package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"absensi/internal/identity"
	"absensi/internal/service"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Rejection reasons reported for check-in and profile writes
const (
	ReasonIncomplete       = "Incomplete"
	ReasonAlreadySubmitted = "AlreadySubmitted"
	ReasonRemoteFailure    = "RemoteFailure"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by request DTOs
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("employee_number", func(fl validator.FieldLevel) bool {
			return service.ValidEmployeeNumber(fl.Field().String())
		})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrIncomplete),
		errors.Is(err, service.ErrInvalidPhoto),
		errors.Is(err, service.ErrInvalidEmployeeNumber),
		errors.Is(err, service.ErrCannotDeleteSelf):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrEmployeeNumberTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, identity.ErrInvalidCredential),
		errors.Is(err, identity.ErrNotAuthenticated):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, service.ErrIncomplete):
		return ReasonIncomplete
	case errors.Is(err, service.ErrAlreadySubmitted):
		return ReasonAlreadySubmitted
	}
	if statusFor(err) == http.StatusInternalServerError {
		return ReasonRemoteFailure
	}
	return ""
}

// fail writes err in the response envelope with the status it maps to
func fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	if reason := reasonFor(err); reason != "" {
		c.JSON(code, response.Fail(code, err.Error(), gin.H{"reason": reason}))
		return
	}
	c.JSON(code, response.Error(code, err.Error()))
}
