package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"heater_controller/internal/control"
	"heater_controller/internal/models"
	"heater_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockMonitoring serves doc; Bump simulates a status update.
type mockMonitoring struct {
	doc     models.StatusDocument
	err     error
	version atomic.Uint64
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (models.StatusDocument, error) {
	return m.doc, m.err
}
func (m *mockMonitoring) Snapshot() models.HeaterStatus { return models.HeaterStatus{} }
func (m *mockMonitoring) Version() uint64               { return m.version.Load() }
func (m *mockMonitoring) Bump()                         { m.version.Add(1) }

type mockConfig struct {
	cfg       models.HeaterConfig
	err       error
	lastPatch models.ConfigPatch
	patches   int
}

func (m *mockConfig) Get() models.HeaterConfig { return m.cfg }
func (m *mockConfig) Apply(ctx context.Context, cfg models.HeaterConfig, persist bool) (models.HeaterConfig, error) {
	m.cfg = cfg
	return cfg, m.err
}
func (m *mockConfig) ApplyPatch(ctx context.Context, p models.ConfigPatch) (models.HeaterConfig, error) {
	m.patches++
	m.lastPatch = p
	if m.err != nil {
		return m.cfg, m.err
	}
	cfg, err := p.Apply(m.cfg)
	if err != nil {
		return m.cfg, err
	}
	m.cfg = cfg.Normalize()
	return m.cfg, nil
}
func (m *mockConfig) ApplyJSON(ctx context.Context, payload []byte) (models.HeaterConfig, error) {
	return m.cfg, nil
}

type mockOverrides struct {
	ov          control.Override
	err         error
	lastTarget  float64
	lastMinutes *int
	cleared     bool
}

func (m *mockOverrides) ActivateOverride(ctx context.Context, target float64, minutes *int) (control.Override, error) {
	m.lastTarget, m.lastMinutes = target, minutes
	return m.ov, m.err
}
func (m *mockOverrides) NudgeOverride(ctx context.Context, step float64) control.Override {
	return m.ov
}
func (m *mockOverrides) ClearOverride(ctx context.Context) bool {
	return m.cleared
}

type mockSafety struct {
	err   error
	calls int
}

func (m *mockSafety) ResetFault(ctx context.Context) error {
	m.calls++
	return m.err
}

// mockCommands is called from the websocket reader goroutine.
type mockCommands struct {
	mu   sync.Mutex
	err  error
	seen []string
}

func (m *mockCommands) Execute(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, string(payload))
	return m.err
}

func (m *mockCommands) Seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

type mockEventLog struct {
	resp     []models.HeaterEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.HeaterEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockHistory struct {
	resp       []models.HistoryRecord
	err        error
	lastFilter service.HistoryFilter
}

func (m *mockHistory) Records(ctx context.Context, f service.HistoryFilter) ([]models.HistoryRecord, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
