package service

import (
	"context"
	"sync"
	"time"

	"heater_controller/internal/control"
	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/relay"
	"heater_controller/internal/repository"
	"heater_controller/internal/status"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes the read-only status.
type Monitoring interface {
	GetStatus(ctx context.Context) (models.StatusDocument, error)
	Snapshot() models.HeaterStatus
	Version() uint64
}

// Configuration reads and replaces the heater config.
type Configuration interface {
	Get() models.HeaterConfig
	Apply(ctx context.Context, cfg models.HeaterConfig, persist bool) (models.HeaterConfig, error)
	ApplyPatch(ctx context.Context, p models.ConfigPatch) (models.HeaterConfig, error)
	ApplyJSON(ctx context.Context, payload []byte) (models.HeaterConfig, error)
}

type Overrides interface {
	ActivateOverride(ctx context.Context, target float64, minutes *int) (control.Override, error)
	NudgeOverride(ctx context.Context, step float64) control.Override
	ClearOverride(ctx context.Context) bool
}

type Safety interface {
	ResetFault(ctx context.Context) error
}

// Commands runs text and JSON commands from the websocket, REST and MQTT.
type Commands interface {
	Execute(ctx context.Context, payload []byte) error
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.HeaterEvent, error)
}

type History interface {
	Records(ctx context.Context, f HistoryFilter) ([]models.HistoryRecord, error)
}

// Service aggregates the operations the handlers use.
type Service struct {
	Authorization
	Monitoring
	Configuration
	Overrides
	Safety
	Commands
	EventLog
	History

	Loops *Loops
}

// Loops holds the background workers. Broadcast and Simulator are nil when
// not configured.
type Loops struct {
	Recorder  *EventRecorder
	Config    *ConfigService
	Sensors   *SensorService
	Control   *ControlService
	Actuator  *ActuatorService
	History   *HistoryService
	Broadcast *StatusBroadcaster
	Simulator *SimulatorService
}

// Periods sets the cadence of every loop.
type Periods struct {
	Sensor    time.Duration
	Control   time.Duration
	Actuator  time.Duration
	Broadcast time.Duration
	History   time.Duration
	Simulator time.Duration
}

// Deps carries what NewService needs besides the repositories.
type Deps struct {
	Store    *status.Store
	Driver   relay.Driver
	Sensors  SensorSet
	Ceilings control.Ceilings
	Latch    control.Latch
	// VerifyRelays enables readback after every relay write.
	VerifyRelays bool
	Auth         AuthOptions

	// Publisher, if set, receives the status on StatusTopic.
	Publisher   Publisher
	StatusTopic string
	// Simulator, if set, drives the plant probes from the relay levels.
	Simulator *SimulatorService

	HistoryRetention time.Duration
	EventBuffer      int

	Location *time.Location
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

// NewService wires the repositories and devices into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	now := func() time.Time { return time.Now().In(loc) }
	log := d.Log

	rec := NewEventRecorder(repos.EventRepo, d.EventBuffer, log.Named("events"))
	cfg := NewConfigService(repos.ConfigRepo, rec, log.Named("config"))
	overrides := NewOverrideService(d.Store, cfg, rec, log.Named("override"), now)
	safety := NewSafetyService(d.Store, rec, log.Named("safety"))

	loops := &Loops{
		Recorder:  rec,
		Config:    cfg,
		Sensors:   NewSensorService(d.Store, d.Sensors, d.Metrics, log.Named("sensors")),
		Control:   NewControlService(d.Store, cfg, d.Ceilings, d.Latch, rec, d.Metrics, log.Named("control"), now),
		Actuator:  NewActuatorService(d.Store, d.Driver, d.Latch, d.VerifyRelays, rec, d.Metrics, log.Named("actuator"), now),
		History:   NewHistoryService(repos.HistoryRepo, d.Store, d.HistoryRetention, d.Metrics, log.Named("history"), now),
		Simulator: d.Simulator,
	}
	if d.Publisher != nil {
		loops.Broadcast = NewStatusBroadcaster(d.Publisher, d.StatusTopic, d.Store, cfg, d.Metrics, log.Named("broadcast"))
	}

	return &Service{
		Authorization: NewAuthService(repos.Auth, d.Auth),
		Monitoring:    NewMonitoringService(d.Store, cfg),
		Configuration: cfg,
		Overrides:     overrides,
		Safety:        safety,
		Commands:      NewCommandService(overrides, cfg, safety, log.Named("command")),
		EventLog:      NewEventLogService(repos.EventRepo),
		History:       loops.History,
		Loops:         loops,
	}
}

// Start launches every loop. The returned function blocks until all of them
// have returned after ctx is cancelled.
func (l *Loops) Start(ctx context.Context, p Periods) (wait func()) {
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { l.Recorder.Run(ctx) })
	run(func() { l.Sensors.Run(ctx, p.Sensor) })
	run(func() { l.Control.Run(ctx, p.Control) })
	run(func() { l.Actuator.Run(ctx, p.Actuator) })
	run(func() { l.History.Run(ctx, p.History) })
	if l.Broadcast != nil {
		run(func() { l.Broadcast.Run(ctx, p.Broadcast) })
	}
	if l.Simulator != nil {
		run(func() { l.Simulator.Run(ctx, p.Simulator) })
	}
	return wg.Wait
}
