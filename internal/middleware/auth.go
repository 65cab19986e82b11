package middleware

import (
	"net/http"
	"strings"
	"time"

	"absensi/internal/access"
	"absensi/internal/identity"
	"absensi/internal/metrics"
	"absensi/internal/model"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "access_token"

	principalKey = "principal"
	profileKey   = "profile"
)

// SetTokenCookies stores the session token as an HttpOnly cookie living as long as the session
func SetTokenCookies(c *gin.Context, accessToken string, ttl time.Duration) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, accessToken, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookies removes the session cookie
func ClearTokenCookies(c *gin.Context) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
}

func cookieMode() (http.SameSite, bool) {
	if gin.Mode() == gin.ReleaseMode {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an "Authorization: Bearer <token>" header. It returns "" when neither is set.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// DenialStatus maps a denial reason onto an HTTP status
func DenialStatus(reason access.Reason) int {
	if reason == access.RoleMismatch {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// RequirePage runs the access gate for a page class. Allowed requests carry
// the principal and profile in the context; denials abort with the reason and
// the suggested redirect.
func RequirePage(gate *access.Gate, class access.PageClass) gin.HandlerFunc {
	label := string(class)
	if class == access.AnyPage {
		label = "any"
	}
	return func(c *gin.Context) {
		decision := gate.Check(c.Request.Context(), TokenFromRequest(c), class)
		metrics.ObserveAccess(label, string(decision.Reason))

		if !decision.Allowed {
			status := DenialStatus(decision.Reason)
			if status == http.StatusUnauthorized {
				ClearTokenCookies(c)
			}
			c.AbortWithStatusJSON(status, response.Fail(status, "Access denied: "+string(decision.Reason), decision))
			return
		}

		c.Set(principalKey, decision.Principal)
		c.Set(profileKey, decision.Profile)
		c.Set("userID", decision.Principal.ID.String())
		c.Set("userRole", decision.Profile.Role)
		c.Next()
	}
}

// RequireSession only checks that the token names a live session
func RequireSession(auth access.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.CurrentPrincipal(c.Request.Context(), TokenFromRequest(c))
		if err != nil {
			ClearTokenCookies(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing or expired"))
			return
		}
		c.Set(principalKey, principal)
		c.Set("userID", principal.ID.String())
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by RequirePage or RequireSession
func CurrentPrincipal(c *gin.Context) *identity.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*identity.Principal); ok {
			return p
		}
	}
	return nil
}

// CurrentProfile returns the profile stored by RequirePage
func CurrentProfile(c *gin.Context) *model.Profile {
	if v, ok := c.Get(profileKey); ok {
		if p, ok := v.(*model.Profile); ok {
			return p
		}
	}
	return nil
}
