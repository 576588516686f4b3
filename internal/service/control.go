package service

import (
	"context"
	"time"

	"heater_controller/internal/control"
	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/status"
)

// ControlService runs the control cycle: schedule, override, target,
// safety and stage demand, all applied to the status in one update.
type ControlService struct {
	store    *status.Store
	cfg      configSource
	ceilings control.Ceilings
	latch    control.Latch
	rec      *EventRecorder
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewControlService(store *status.Store, cfg configSource, ceilings control.Ceilings, latch control.Latch,
	rec *EventRecorder, m *metrics.Metrics, log *logger.Logger, now func() time.Time) *ControlService {
	return &ControlService{
		store:    store,
		cfg:      cfg,
		ceilings: ceilings,
		latch:    latch,
		rec:      rec,
		metrics:  m,
		log:      log,
		now:      now,
	}
}

// Run executes Tick every period until ctx is cancelled.
func (s *ControlService) Run(ctx context.Context, period time.Duration) {
	RunPeriodic(ctx, "control", period, func(ctx context.Context) { s.Tick(ctx) }, s.log, s.metrics)
}

// Tick runs a single control cycle.
func (s *ControlService) Tick(ctx context.Context) control.CycleResult {
	cfg := s.cfg.Get()
	now := s.now()

	var res control.CycleResult
	st := s.store.Update(func(st *models.HeaterStatus) {
		res = control.RunCycle(st, cfg, s.ceilings, s.latch, now)
	})
	s.metrics.ControlCycle(res.Target, res.Verdict.Delta, st.Safe)

	if res.NewTrip {
		s.log.Warnw("safety_trip", "reason", res.Verdict.Reason, "latch", s.latch)
		s.metrics.SafetyTrip("control")
		s.rec.Record(models.EventSafetyTrip, res.Verdict.Reason, map[string]any{
			"fnt": st.Fnt, "bck": st.Bck, "top": st.Top, "bot": st.Bot, "chip": st.Chip,
			"latched": st.FaultLatched,
		})
	}
	if res.OverrideExpired {
		s.log.Infow("override_expired")
		s.rec.Record(models.EventOverrideExpired, "override expired", nil)
	}
	if res.PreheatStarted {
		s.log.Infow("preheat_started", "rem", st.Rem, "minutes_to_day", res.Schedule.MinutesToNext)
		s.rec.Record(models.EventPreheat, "preheat started", map[string]any{
			"rem":            st.Rem,
			"minutes_to_day": res.Schedule.MinutesToNext,
		})
	}

	s.log.Debugw("control_cycle",
		"target", res.Target,
		"delta", res.Verdict.Delta,
		"throttled", res.Verdict.Throttled,
		"one", res.Demand.One,
		"two", res.Demand.Two,
		"safe", st.Safe,
	)
	return res
}
