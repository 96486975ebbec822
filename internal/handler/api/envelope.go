package api

import (
	"context"
	"errors"
	"net/http"

	"DivDash/internal/service/backend"
	"DivDash/internal/usecase"
	xhttp "DivDash/pkg/http"
	xlogger "DivDash/pkg/logger"
	"DivDash/pkg/query"
	"DivDash/pkg/schema"

	"github.com/labstack/echo/v4"
)

func envelope(r usecase.Resource) *xhttp.ResourceResponse {
	out := &xhttp.ResourceResponse{
		Status:   string(r.Status),
		Stale:    r.Stale,
		Fallback: r.Fallback(),
	}
	if r.HasData {
		out.Data = r.Data
		t := r.UpdatedAt
		out.UpdatedAt = &t
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if len(r.Violations) > 0 {
		out.Violations = r.Violations
	} else {
		var ve *schema.ValidationError
		if errors.As(r.Err, &ve) {
			out.Violations = ve.Violations
		}
	}
	return out
}

// statusFor maps a failed fetch to the status of a response without data.
func statusFor(err error) int {
	switch {
	case schema.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrCircuitOpen), errors.Is(err, query.ErrStoreClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// writeResource answers with the resource envelope. A failed refresh that
// still has earlier data is served as 200 with the error attached.
func writeResource(c echo.Context, l *xlogger.Logger, r usecase.Resource, err error) error {
	if err == nil {
		return xhttp.SuccessResponse(c, envelope(r))
	}
	if usecase.IsMisuse(err) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("", err.Error()).WithError(err))
	}
	if errors.Is(err, context.Canceled) && c.Request().Context().Err() != nil {
		return nil
	}

	l.Warn("resource unavailable",
		xlogger.String("key", r.Key.String()),
		xlogger.Bool("has_data", r.HasData),
		xlogger.Error(err),
	)
	if r.Key == nil || r.Status == "" {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()).WithError(err))
	}
	if r.HasData {
		return xhttp.SuccessResponse(c, envelope(r))
	}
	return xhttp.DataResponse(c, statusFor(err), envelope(r))
}
