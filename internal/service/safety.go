package service

import (
	"context"
	"errors"

	"heater_controller/internal/control"
	"heater_controller/internal/logger"
	"heater_controller/internal/models"
	"heater_controller/internal/status"
)

// ErrNotLatched is returned by ResetFault when no fault is latched.
var ErrNotLatched = errors.New("no latched fault")

type SafetyService struct {
	store *status.Store
	rec   *EventRecorder
	log   *logger.Logger
}

func NewSafetyService(store *status.Store, rec *EventRecorder, log *logger.Logger) *SafetyService {
	return &SafetyService{store: store, rec: rec, log: log}
}

// ResetFault clears a latched fault. The next control cycle re-arms safe if
// the readings allow it.
func (s *SafetyService) ResetFault(ctx context.Context) error {
	var (
		cleared bool
		reason  string
	)
	s.store.Update(func(st *models.HeaterStatus) {
		reason = st.FaultReason
		cleared = control.ClearFault(st)
	})
	if !cleared {
		return ErrNotLatched
	}
	s.log.Infow("safety_reset", "previous_fault", reason)
	s.rec.Record(models.EventSafetyReset, "latched fault cleared", map[string]any{"fault": reason})
	return nil
}
