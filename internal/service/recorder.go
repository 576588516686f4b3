package service

import (
	"context"
	"sync/atomic"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/models"
	"heater_controller/internal/repository"
)

const (
	defaultEventBuffer = 256
	flushTimeout       = 2 * time.Second
)

// EventRecorder queues events for the event log without blocking the caller.
// Run drains the queue into the repository. A nil *EventRecorder discards.
type EventRecorder struct {
	ch      chan models.HeaterEvent
	repo    repository.EventRepo
	log     *logger.Logger
	now     func() time.Time
	dropped atomic.Uint64
}

func NewEventRecorder(repo repository.EventRepo, buffer int, log *logger.Logger) *EventRecorder {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &EventRecorder{
		ch:   make(chan models.HeaterEvent, buffer),
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Record enqueues an event. When the queue is full the event is dropped.
func (r *EventRecorder) Record(typ, description string, meta any) {
	if r == nil {
		return
	}
	ev := models.HeaterEvent{
		OccurredAt:  r.now(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	}
	select {
	case r.ch <- ev:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.log.Warnw("event_dropped", "type", typ, "dropped_total", n)
		}
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (r *EventRecorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Run persists queued events until ctx is cancelled, then flushes what is left.
func (r *EventRecorder) Run(ctx context.Context) {
	for {
		select {
		case ev := <-r.ch:
			r.persist(ctx, ev)
		case <-ctx.Done():
			r.flush()
			return
		}
	}
}

func (r *EventRecorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case ev := <-r.ch:
			r.persist(ctx, ev)
		default:
			return
		}
	}
}

func (r *EventRecorder) persist(ctx context.Context, ev models.HeaterEvent) {
	if err := r.repo.Append(ctx, ev); err != nil {
		r.log.Errorw("event_persist_failed", "type", ev.Type, "err", err)
	}
}
