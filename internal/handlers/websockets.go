package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 250 * time.Millisecond
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
	replyBuffer      = 8
)

// Envelope types sent to websocket clients.
const (
	wsTypeStatus = "status"
	wsTypeAck    = "ack"
	wsTypeError  = "error"

	errUnauthorized = "unauthorized: connect with ?token= to send commands"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Any origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Status stream and command channel
// @Description  Pushes {"type":"status","data":StatusDocument} whenever the status changes (checked every interval). Text frames are run as commands (U, D, V, E, R or JSON) and answered with "ack" or "error"; commands require ?token=.
// @Tags         heater
// @Param        token        query  string  false  "JWT from /auth/sign-in"
// @Param        interval     query  string  false  "Change check period, e.g. 500ms (max 10s)"
// @Param        interval_ms  query  int     false  "Change check period in ms"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	userID, authed := h.wsUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := c.Request.Context()
	if h.log != nil {
		h.log.Debugw("ws_connected", "remote", c.ClientIP(), "user_id", userID, "commands", authed)
	}

	// The reader hands replies to this goroutine, the only writer.
	done := make(chan struct{})
	replies := make(chan wsEnvelope, replyBuffer)
	go h.startReader(ctx, conn, authed, replies, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	// Send initial status immediately.
	sent, err := h.sendStatus(ctx, conn)
	if err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case reply := <-replies:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(reply); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if h.services.Monitoring.Version() == sent {
				continue
			}
			if sent, err = h.sendStatus(ctx, conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// Helper: startReader runs text frames as commands and detects closure.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, authed bool, replies chan<- wsEnvelope, done chan<- struct{}) {
	defer close(done)
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		select {
		case replies <- h.runCommand(ctx, authed, msg):
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) runCommand(ctx context.Context, authed bool, msg []byte) wsEnvelope {
	if !authed {
		return wsEnvelope{Type: wsTypeError, Error: errUnauthorized}
	}
	if err := h.services.Commands.Execute(ctx, msg); err != nil {
		if h.log != nil {
			h.log.Infow("ws_command_failed", "command", string(msg), "err", err)
		}
		return wsEnvelope{Type: wsTypeError, Error: err.Error()}
	}
	return wsEnvelope{Type: wsTypeAck, Data: string(msg)}
}

// Helper: sendStatus writes the current status with a write deadline and
// returns the version it reflects.
func (h *Handler) sendStatus(ctx context.Context, conn *websocket.Conn) (uint64, error) {
	v := h.services.Monitoring.Version()
	doc, err := h.services.Monitoring.GetStatus(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_status_failed", "err", err)
		}
		return v, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return v, conn.WriteJSON(wsEnvelope{Type: wsTypeStatus, Data: doc})
}
