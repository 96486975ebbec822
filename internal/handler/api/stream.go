package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"DivDash/internal/domain/models"
	"DivDash/internal/service/ratelimit"
	"DivDash/internal/usecase"
	xhttp "DivDash/pkg/http"
	xlogger "DivDash/pkg/logger"
	"DivDash/pkg/query"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamFrame is one websocket message: the resource state, or the errors of
// a rejected command.
type streamFrame struct {
	Key    query.Key               `json:"key,omitempty"`
	Errors []xhttp.ValidationError `json:"errors,omitempty"`
	*xhttp.ResourceResponse
}

// StreamHandler pushes resource updates over websockets.
type StreamHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.Dashboard
	rl       *ratelimit.Limiter
	upgrader websocket.Upgrader
}

func NewStreamHandler(logger *xlogger.Logger, dash *usecase.Dashboard, rl *ratelimit.Limiter) *StreamHandler {
	return &StreamHandler{
		logger: logger,
		dash:   dash,
		rl:     rl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/resources/:resource", h.Stream)
}

// Stream sends the current state of the resource, then every change, until
// the client goes away. A {"action":"refetch"} frame forces a refetch.
func (h *StreamHandler) Stream(c echo.Context) error {
	req := &models.WatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.dash.Watch(*req)
	if err != nil {
		if usecase.IsMisuse(err) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("", err.Error()).WithError(err))
		}
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()).WithError(err))
	}
	defer w.Close()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the request.
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rejects := make(chan []xhttp.ValidationError, 1)
	go h.readCommands(ctx, cancel, conn, c.RealIP(), w, rejects)

	log := h.logger.With(xlogger.String("resource", req.Resource))
	log.Debug("stream opened")
	defer log.Debug("stream closed")

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var frame streamFrame
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
			continue
		case errs := <-rejects:
			frame.Errors = errs
		case u, ok := <-w.Updates():
			if !ok {
				return nil
			}
			frame.Key = u.Key
			frame.ResourceResponse = envelope(u)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug("stream write failed", xlogger.Error(err))
			return nil
		}
	}
}

// readCommands is the only reader of conn. It cancels ctx when the client
// disconnects.
func (h *StreamHandler) readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, remote string, w *usecase.Watch, rejects chan<- []xhttp.ValidationError) {
	defer cancel()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("stream read failed", xlogger.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd models.StreamCommand
		var verr []xhttp.ValidationError
		if err := json.Unmarshal(msg, &cmd); err != nil {
			verr = []xhttp.ValidationError{{Code: "ERR_BIND", Message: err.Error()}}
		} else if verr = xhttp.ValidateStruct(ctx, &cmd); verr == nil && h.rl != nil && !h.rl.Allow(remote) {
			verr = []xhttp.ValidationError{{Code: "ERR_RATE_LIMITED", Message: "too many forced refetches, retry later"}}
		}
		if verr != nil {
			select {
			case rejects <- verr:
			case <-ctx.Done():
				return
			}
			continue
		}
		// The result reaches the client through the update stream.
		go func() {
			if _, err := w.Refetch(ctx); err != nil {
				h.logger.Debug("stream refetch failed", xlogger.Error(err))
			}
		}()
	}
}
