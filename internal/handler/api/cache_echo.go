package api

import (
	"net/http"

	"DivDash/internal/domain/models"
	"DivDash/internal/usecase"
	xhttp "DivDash/pkg/http"
	xlogger "DivDash/pkg/logger"
	"DivDash/pkg/query"

	"github.com/labstack/echo/v4"
)

// BreakerState reports the backend circuit breaker state.
type BreakerState interface {
	State() string
}

// CacheEchoHandler exposes cache introspection, diagnostics and health.
type CacheEchoHandler struct {
	logger  *xlogger.Logger
	dash    *usecase.Dashboard
	breaker BreakerState
}

func NewCacheEchoHandler(logger *xlogger.Logger, dash *usecase.Dashboard, breaker BreakerState) *CacheEchoHandler {
	return &CacheEchoHandler{logger: logger, dash: dash, breaker: breaker}
}

func (h *CacheEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/cache", h.Entries)
	g.POST("/cache/invalidate", h.Invalidate)
	g.GET("/diagnostics", h.Diagnostics)
	e.GET("/healthz", h.Health)
}

func (h *CacheEchoHandler) Entries(c echo.Context) error {
	entries := h.dash.Entries()
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

func (h *CacheEchoHandler) Invalidate(c echo.Context) error {
	req := &models.InvalidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	prefix := query.Key(req.Prefix)
	for _, v := range prefix {
		switch v.(type) {
		case string, float64, bool:
		default:
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("prefix", "prefix must be an array of strings, numbers or booleans"))
		}
	}

	n := h.dash.Invalidate(prefix)
	h.logger.Info("cache invalidated", xlogger.String("prefix", prefix.String()), xlogger.Int("entries", n))
	return xhttp.SuccessResponse(c, map[string]int{"invalidated": n})
}

func (h *CacheEchoHandler) Diagnostics(c echo.Context) error {
	diags := h.dash.Diagnostics()
	return xhttp.ListResponse(c, diags, int64(len(diags)))
}

func (h *CacheEchoHandler) Health(c echo.Context) error {
	state := "closed"
	if h.breaker != nil {
		state = h.breaker.State()
	}
	status := http.StatusOK
	if state == "open" {
		status = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, status, map[string]string{
		"status":  http.StatusText(status),
		"backend": state,
	})
}
