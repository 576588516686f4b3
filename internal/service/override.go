package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"heater_controller/internal/control"
	"heater_controller/internal/logger"
	"heater_controller/internal/models"
	"heater_controller/internal/status"
)

var (
	ErrInvalidTarget   = errors.New("override target must be a finite temperature")
	ErrInvalidDuration = errors.New("override duration must be positive")
)

// Nudge steps used by the text commands.
const (
	StepFine   = 0.1
	StepCoarse = 0.5
)

type configSource interface {
	Get() models.HeaterConfig
}

type OverrideService struct {
	store *status.Store
	cfg   configSource
	rec   *EventRecorder
	log   *logger.Logger
	now   func() time.Time
}

func NewOverrideService(store *status.Store, cfg configSource, rec *EventRecorder, log *logger.Logger, now func() time.Time) *OverrideService {
	return &OverrideService{store: store, cfg: cfg, rec: rec, log: log, now: now}
}

// overrideTarget bounds a requested target to [floor, DayMax].
func overrideTarget(cfg models.HeaterConfig, t float64) float64 {
	return math.Min(cfg.ClampToFloor(t), models.DayMax)
}

func overrideDuration(cfg models.HeaterConfig, minutes *int) (time.Duration, error) {
	if minutes == nil {
		return defaultOverrideDuration(cfg), nil
	}
	if *minutes <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDuration, *minutes)
	}
	return time.Duration(min(*minutes, models.OverrideMinutesH)) * time.Minute, nil
}

func defaultOverrideDuration(cfg models.HeaterConfig) time.Duration {
	return time.Duration(cfg.OverrideDurationMinutes) * time.Minute
}

// ActivateOverride replaces any running override. A nil minutes uses the
// configured default duration.
func (s *OverrideService) ActivateOverride(ctx context.Context, target float64, minutes *int) (control.Override, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return control.Override{}, ErrInvalidTarget
	}
	cfg := s.cfg.Get()
	d, err := overrideDuration(cfg, minutes)
	if err != nil {
		return control.Override{}, err
	}

	ov := control.ActivateOverride(overrideTarget(cfg, target), d, s.now())
	s.store.Update(func(st *models.HeaterStatus) { setOverride(st, ov) })
	s.recordSet(ov, "override activated")
	return ov, nil
}

// NudgeOverride starts an override at the current effective target plus step.
func (s *OverrideService) NudgeOverride(ctx context.Context, step float64) control.Override {
	cfg := s.cfg.Get()
	d := defaultOverrideDuration(cfg)
	now := s.now()

	var ov control.Override
	s.store.Update(func(st *models.HeaterStatus) {
		ov = control.ActivateOverride(overrideTarget(cfg, st.Target+step), d, now)
		setOverride(st, ov)
	})
	s.recordSet(ov, fmt.Sprintf("override nudged by %+.1f", step))
	return ov
}

// ClearOverride returns control to the schedule. It reports whether an
// override was active.
func (s *OverrideService) ClearOverride(ctx context.Context) bool {
	var was bool
	s.store.Update(func(st *models.HeaterStatus) {
		was = st.OverrideActive
		setOverride(st, control.Override{})
	})
	if was {
		s.log.Infow("override_cleared")
		s.rec.Record(models.EventOverrideClear, "override cleared", nil)
	}
	return was
}

func (s *OverrideService) recordSet(ov control.Override, msg string) {
	s.log.Infow("override_set", "target", ov.Target, "expires", ov.Expires)
	s.rec.Record(models.EventOverrideSet, msg, map[string]any{
		"target":  ov.Target,
		"expires": ov.Expires.Unix(),
	})
}

func setOverride(st *models.HeaterStatus, ov control.Override) {
	st.OverrideActive = ov.Active
	st.OverrideTarget = ov.Target
	st.OverrideExpires = ov.Expires
}
