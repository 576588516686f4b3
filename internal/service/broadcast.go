package service

import (
	"context"
	"encoding/json"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/status"
)

// Publisher sends a payload to a message broker topic.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// StatusBroadcaster publishes the status document whenever the status
// version changes. Tick must only be called from one goroutine.
type StatusBroadcaster struct {
	pub     Publisher
	topic   string
	store   *status.Store
	cfg     configSource
	metrics *metrics.Metrics
	log     *logger.Logger

	sent    uint64
	failing bool
}

func NewStatusBroadcaster(pub Publisher, topic string, store *status.Store, cfg configSource,
	m *metrics.Metrics, log *logger.Logger) *StatusBroadcaster {
	return &StatusBroadcaster{pub: pub, topic: topic, store: store, cfg: cfg, metrics: m, log: log}
}

// Run executes Tick every period until ctx is cancelled.
func (b *StatusBroadcaster) Run(ctx context.Context, period time.Duration) {
	RunPeriodic(ctx, "broadcast", period, func(ctx context.Context) { b.Tick(ctx) }, b.log, b.metrics)
}

// Tick publishes the current status if it changed since the last publish.
// It reports whether a message was sent.
func (b *StatusBroadcaster) Tick(ctx context.Context) bool {
	st := b.store.Snapshot()
	if st.Version == b.sent {
		return false
	}
	payload, err := json.Marshal(models.NewStatusDocument(st, b.cfg.Get()))
	if err != nil {
		b.log.Errorw("status_marshal_failed", "err", err)
		return false
	}
	if err := b.pub.Publish(b.topic, 0, true, payload); err != nil {
		if !b.failing {
			b.log.Warnw("status_publish_failed", "topic", b.topic, "err", err)
		}
		b.failing = true
		return false
	}
	if b.failing {
		b.log.Infow("status_publish_recovered", "topic", b.topic)
	}
	b.failing = false
	b.sent = st.Version
	return true
}
