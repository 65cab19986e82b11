package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSubmission(t *testing.T) {
	before := testutil.ToFloat64(attendanceSubmissions.WithLabelValues("duplicate"))
	ObserveSubmission("duplicate")
	ObserveSubmission("duplicate")
	if got := testutil.ToFloat64(attendanceSubmissions.WithLabelValues("duplicate")) - before; got != 2 {
		t.Fatalf("delta = %v", got)
	}
}

func TestObserveAccessLabelsAllowed(t *testing.T) {
	before := testutil.ToFloat64(accessDecisions.WithLabelValues("user", "Allowed"))
	ObserveAccess("user", "")
	if got := testutil.ToFloat64(accessDecisions.WithLabelValues("user", "Allowed")) - before; got != 1 {
		t.Fatalf("delta = %v", got)
	}
}

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/admin/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	counter := httpRequestsTotal.WithLabelValues("GET", "/api/admin/users/:id", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/users/"+id, nil))
	}
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("delta = %v", got)
	}

	unmatched := httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before = testutil.ToFloat64(unmatched)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	if got := testutil.ToFloat64(unmatched) - before; got != 1 {
		t.Fatalf("unmatched delta = %v", got)
	}
}

func TestObserveSessionTransitionCountsByKind(t *testing.T) {
	in := sessionTransitions.WithLabelValues("signed_in")
	ended := sessionTransitions.WithLabelValues("session_ended")
	beforeIn, beforeEnded := testutil.ToFloat64(in), testutil.ToFloat64(ended)

	ObserveSessionTransition("signed_in")
	ObserveSessionTransition("session_ended")
	ObserveSessionTransition("session_ended")

	if got := testutil.ToFloat64(in) - beforeIn; got != 1 {
		t.Fatalf("signed_in delta = %v", got)
	}
	if got := testutil.ToFloat64(ended) - beforeEnded; got != 2 {
		t.Fatalf("session_ended delta = %v", got)
	}
}
