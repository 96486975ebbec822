package api

import (
	"strconv"

	"DivDash/internal/domain/models"
	"DivDash/internal/service/ratelimit"
	"DivDash/internal/usecase"
	xhttp "DivDash/pkg/http"
	xlogger "DivDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardEchoHandler serves the dashboard resources.
type DashboardEchoHandler struct {
	logger *xlogger.Logger
	dash   *usecase.Dashboard
	rl     *ratelimit.Limiter
}

// NewDashboardEchoHandler creates the handler. A nil rl leaves refetches
// unthrottled.
func NewDashboardEchoHandler(logger *xlogger.Logger, dash *usecase.Dashboard, rl *ratelimit.Limiter) *DashboardEchoHandler {
	return &DashboardEchoHandler{logger: logger, dash: dash, rl: rl}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	throttle := throttleRefetch(h.rl, h.logger)
	g.GET("/overview", h.Overview, throttle)
	g.GET("/monthly", h.Monthly, throttle)
	g.GET("/stocks/by-period", h.StocksByPeriod, throttle)
	g.GET("/stocks", h.Stocks, throttle)
	g.GET("/stocks/:ticker", h.Stock, throttle)
	g.GET("/stocks/:ticker/chart", h.StockChart, throttle)
	g.GET("/screener", h.Screener, throttle)
	g.GET("/forecasts", h.Forecasts, throttle)
	g.GET("/calendar", h.Calendar, throttle)
}

// throttleRefetch answers 429 once a client forces refetches faster than its
// budget. Reads served from the cache are never throttled.
func throttleRefetch(rl *ratelimit.Limiter, l *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl == nil {
				return next(c)
			}
			refetch, _ := strconv.ParseBool(c.QueryParam("refetch"))
			if refetch && !rl.Allow(c.RealIP()) {
				l.Warn("refetch rate limited", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many forced refetches, retry later"))
			}
			return next(c)
		}
	}
}

func (h *DashboardEchoHandler) Overview(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Overview(c.Request().Context(), req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) Monthly(c echo.Context) error {
	req := &models.MonthlyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Monthly(c.Request().Context(), req.Year, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) StocksByPeriod(c echo.Context) error {
	req := &models.StocksByPeriodRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.StocksByPeriod(c.Request().Context(), req.Period, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) Stocks(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Stocks(c.Request().Context(), req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) Stock(c echo.Context) error {
	req := &models.StockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Stock(c.Request().Context(), req.Ticker, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) StockChart(c echo.Context) error {
	req := &models.StockChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.StockChart(c.Request().Context(), req.Ticker, req.Window, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) Screener(c echo.Context) error {
	req := &models.ScreenerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Screener(c.Request().Context(), req.MinYield, req.Sector, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) Forecasts(c echo.Context) error {
	req := &models.ForecastsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Forecasts(c.Request().Context(), req.Months, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}

func (h *DashboardEchoHandler) Calendar(c echo.Context) error {
	req := &models.CalendarRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.dash.Calendar(c.Request().Context(), req.Year, req.Month, req.Refetch)
	return writeResource(c, h.logger, usecase.View(res), err)
}
