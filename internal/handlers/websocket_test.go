package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"heater_controller/internal/models"
	"heater_controller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=20000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, s *service.Service, query url.Values) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_StatusStreamOnChange(t *testing.T) {
	mon := &mockMonitoring{doc: models.StatusDocument{Target: 20, Rem: 19.5, Safe: true}}
	conn := dialWS(t, &service.Service{Monitoring: mon}, url.Values{"interval_ms": {"10"}})

	env := readEnvelope(t, conn)
	if env.Type != wsTypeStatus || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var doc models.StatusDocument
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if doc.Target != 20 || doc.Rem != 19.5 || !doc.Safe {
		t.Fatalf("unexpected status: %+v", doc)
	}

	// Nothing is pushed while the version stays put.
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("unexpected push without a status change: %+v", env)
	}
}

func TestWebSocket_PushesAfterUpdate(t *testing.T) {
	mon := &mockMonitoring{doc: models.StatusDocument{Target: 20}}
	conn := dialWS(t, &service.Service{Monitoring: mon}, url.Values{"interval_ms": {"10"}})

	_ = readEnvelope(t, conn)
	mon.Bump()
	if env := readEnvelope(t, conn); env.Type != wsTypeStatus {
		t.Fatalf("expected a status push, got %+v", env)
	}
}

func TestWebSocket_Commands(t *testing.T) {
	cmds := &mockCommands{}
	s := &service.Service{
		Authorization: &mockAuth{parseID: 7},
		Monitoring:    &mockMonitoring{},
		Commands:      cmds,
	}
	conn := dialWS(t, s, url.Values{"token": {"tok"}, "interval": {"5s"}})
	_ = readEnvelope(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("V")); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := readEnvelope(t, conn)
	if env.Type != wsTypeAck || string(env.Data) != `"V"` {
		t.Fatalf("expected ack, got %+v", env)
	}
	if seen := cmds.Seen(); len(seen) != 1 || seen[0] != "V" {
		t.Fatalf("seen = %q", seen)
	}

	cmds.mu.Lock()
	cmds.err = service.ErrUnknownCommand
	cmds.mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, []byte("Q"))
	if env = readEnvelope(t, conn); env.Type != wsTypeError || env.Error == "" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
}

func TestWebSocket_CommandsNeedToken(t *testing.T) {
	cmds := &mockCommands{}
	s := &service.Service{
		Authorization: &mockAuth{parseID: 7},
		Monitoring:    &mockMonitoring{},
		Commands:      cmds,
	}
	conn := dialWS(t, s, url.Values{"interval": {"5s"}})
	_ = readEnvelope(t, conn)

	_ = conn.WriteMessage(websocket.TextMessage, []byte("U"))
	env := readEnvelope(t, conn)
	if env.Type != wsTypeError || env.Error != errUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", env)
	}
	if len(cmds.Seen()) != 0 {
		t.Fatal("command ran without a token")
	}
}

func TestWebSocket_InitialGetStatusError_Closes(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("boom")}
	conn := dialWS(t, &service.Service{Monitoring: mon}, nil)

	// The server should close immediately after failing the initial GetStatus.
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
