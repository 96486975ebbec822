package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping/:id", func(c echo.Context) error {
		return SuccessResponse(c, "pong")
	})
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundErrorf("stock %s not found", "ZZZ"))
	})
}

func serve(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServerRecordsRouteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer([]Handler{pingHandler{}}, WithMetrics(reg, "/metrics", 0))

	for _, id := range []string{"1", "2"} {
		if rec := serve(s, "/ping/"+id); rec.Code != http.StatusOK {
			t.Fatalf("ping status = %d", rec.Code)
		}
	}

	body := serve(s, "/metrics").Body.String()
	want := `http_requests_total{method="GET",route="/ping/:id",status="200"} 2`
	if !strings.Contains(body, want) {
		t.Fatalf("metrics missing %q:\n%s", want, body)
	}
}

func TestServerRecoversPanics(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}})
	rec := serve(s, "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAppErrorResponseStatus(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}})
	rec := serve(s, "/missing")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"code":"ERR_NOT_FOUND"`) {
		t.Fatalf("response = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/overview", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dashboard.local")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}
