package service

import (
	"context"
	"sync"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/models"
	"heater_controller/internal/status"
)

// memEventRepo stores appended events in memory.
type memEventRepo struct {
	mu     sync.Mutex
	events []models.HeaterEvent
	err    error
}

func (r *memEventRepo) Append(ctx context.Context, e models.HeaterEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *memEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.HeaterEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.HeaterEvent(nil), r.events...), nil
}

func (r *memEventRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// fakeConfigRepo records saved documents and returns a canned Load result.
type fakeConfigRepo struct {
	patch   models.ConfigPatch
	loadErr error
	saveErr error
	saved   []models.ConfigDocument
}

func (r *fakeConfigRepo) Save(ctx context.Context, doc models.ConfigDocument) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, doc)
	return nil
}

func (r *fakeConfigRepo) Load(ctx context.Context) (models.ConfigPatch, error) {
	return r.patch, r.loadErr
}

// staticConfig serves a fixed config.
type staticConfig struct{ cfg models.HeaterConfig }

func (s staticConfig) Get() models.HeaterConfig { return s.cfg }

func defaultConfig() staticConfig {
	return staticConfig{cfg: models.DefaultHeaterConfig().Normalize()}
}

// newTestRecorder returns a recorder that is never drained, so tests can
// read queued events directly.
func newTestRecorder() *EventRecorder {
	return NewEventRecorder(&memEventRepo{}, 64, logger.Nop())
}

// queued drains and returns every event waiting in r.
func queued(r *EventRecorder) []models.HeaterEvent {
	var out []models.HeaterEvent
	for {
		select {
		case ev := <-r.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []models.HeaterEvent) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Type)
	}
	return out
}

func newTestStore(mutate func(st *models.HeaterStatus)) *status.Store {
	st := models.InitialStatus(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	if mutate != nil {
		mutate(&st)
	}
	return status.NewStore(st)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
