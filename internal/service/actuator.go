package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heater_controller/internal/control"
	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/relay"
	"heater_controller/internal/status"
)

// ErrRelayMismatch is reported when a relay reads back a level other than
// the one just written.
var ErrRelayMismatch = errors.New("relay readback mismatch")

// ActuatorService drains relay demand into the driver, one relay per tick.
// Tick must only be called from one goroutine.
type ActuatorService struct {
	store   *status.Store
	driver  relay.Driver
	latch   control.Latch
	verify  bool
	rec     *EventRecorder
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time

	next      relay.ID
	lastFault string
}

func NewActuatorService(store *status.Store, driver relay.Driver, latch control.Latch, verify bool,
	rec *EventRecorder, m *metrics.Metrics, log *logger.Logger, now func() time.Time) *ActuatorService {
	return &ActuatorService{
		store:   store,
		driver:  driver,
		latch:   latch,
		verify:  verify,
		rec:     rec,
		metrics: m,
		log:     log,
		now:     now,
		next:    relay.One,
	}
}

// Run executes Tick every period until ctx is cancelled.
func (a *ActuatorService) Run(ctx context.Context, period time.Duration) {
	RunPeriodic(ctx, "actuator", period, func(ctx context.Context) { a.Tick(ctx) }, a.log, a.metrics)
}

// Tick performs one actuator step. While unsafe both relays are driven off;
// otherwise the relay whose turn it is is brought to its demanded level.
func (a *ActuatorService) Tick(ctx context.Context) {
	st := a.store.Snapshot()
	if !st.Safe {
		a.forceOff(st)
		return
	}

	id := a.next
	a.next = a.next.Next()

	want, have := demandOf(st, id), appliedOf(st, id)
	if want == have {
		return
	}
	if err := a.apply(id, want); err != nil {
		a.fault(id, err)
		return
	}
	a.lastFault = ""
	a.store.Update(func(s *models.HeaterStatus) { setApplied(s, id, want) })
	a.metrics.RelayTransition(id.String(), want)
	a.log.Debugw("relay_switched", "relay", id, "on", want)
}

// Shutdown drives both relays off and marks them released.
func (a *ActuatorService) Shutdown() error {
	err := relay.AllOff(a.driver)
	a.store.Update(func(s *models.HeaterStatus) {
		s.OneApplied, s.TwoApplied = false, false
	})
	return err
}

func (a *ActuatorService) apply(id relay.ID, on bool) error {
	if err := a.driver.Set(id, on); err != nil {
		return fmt.Errorf("set relay %s: %w", id, err)
	}
	if !a.verify {
		return nil
	}
	got, err := a.driver.Get(id)
	if err != nil {
		return fmt.Errorf("read back relay %s: %w", id, err)
	}
	if got != on {
		return fmt.Errorf("%w: relay %s commanded %t, reads %t", ErrRelayMismatch, id, on, got)
	}
	return nil
}

func (a *ActuatorService) forceOff(st models.HeaterStatus) {
	if err := relay.AllOff(a.driver); err != nil {
		a.log.Errorw("relay_all_off_failed", "err", err)
	}
	if !st.OneApplied && !st.TwoApplied {
		return
	}
	a.store.Update(func(s *models.HeaterStatus) {
		s.OneApplied, s.TwoApplied = false, false
	})
	if st.OneApplied {
		a.metrics.RelayTransition(relay.One.String(), false)
	}
	if st.TwoApplied {
		a.metrics.RelayTransition(relay.Two.String(), false)
	}
}

// fault trips safety and releases both relays. A repeat of the previous
// fault is not logged or recorded again.
func (a *ActuatorService) fault(id relay.ID, cause error) {
	reason := cause.Error()
	now := a.now()
	a.store.Update(func(s *models.HeaterStatus) {
		control.Trip(s, a.latch, reason, now)
		s.OneApplied, s.TwoApplied = false, false
	})
	if err := relay.AllOff(a.driver); err != nil {
		a.log.Errorw("relay_all_off_failed", "err", err)
	}
	a.metrics.SafetyTrip("actuator")

	if reason == a.lastFault {
		a.log.Debugw("relay_fault_repeat", "relay", id, "err", cause)
		return
	}
	a.lastFault = reason
	a.log.Errorw("relay_fault", "relay", id, "err", cause)
	a.rec.Record(models.EventRelayFault, reason, map[string]any{"relay": id.String()})
}

func demandOf(st models.HeaterStatus, id relay.ID) bool {
	if id == relay.One {
		return st.OneDemand
	}
	return st.TwoDemand
}

func appliedOf(st models.HeaterStatus, id relay.ID) bool {
	if id == relay.One {
		return st.OneApplied
	}
	return st.TwoApplied
}

func setApplied(st *models.HeaterStatus, id relay.ID, on bool) {
	if id == relay.One {
		st.OneApplied = on
		return
	}
	st.TwoApplied = on
}
