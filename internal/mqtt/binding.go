package mqtt

import (
	"context"
	"time"

	"heater_controller/internal/logger"
)

// Binding routes a numeric topic into a sink after a linear correction.
type Binding struct {
	Name      string
	Topic     string
	JSONEntry string
	Scale     float64
	Offset    float64
}

// Value applies the binding to a raw payload.
func (b Binding) Value(payload []byte) (float64, error) {
	v, err := ExtractFloat(payload, b.JSONEntry)
	if err != nil {
		return 0, err
	}
	scale := b.Scale
	if scale == 0 {
		scale = 1
	}
	return v*scale + b.Offset, nil
}

// Bind subscribes to b.Topic and hands every parsed value to sink with its
// arrival time. Unparseable payloads are logged and dropped.
func Bind(c Client, b Binding, sink func(v float64, at time.Time), log *logger.Logger) error {
	return c.Subscribe(b.Topic, 0, func(topic string, payload []byte) {
		v, err := b.Value(payload)
		if err != nil {
			log.Warnw("mqtt_binding_parse_failed", "binding", b.Name, "topic", topic, "error", err)
			return
		}
		sink(v, time.Now())
	})
}

// CommandFunc executes one command payload.
type CommandFunc func(ctx context.Context, payload []byte) error

// ServeCommands subscribes to topic and runs every message through run.
// Handlers run on the paho callback goroutine, so run must not block for long.
func ServeCommands(ctx context.Context, c Client, topic string, run CommandFunc, log *logger.Logger) error {
	return c.Subscribe(topic, 1, func(topic string, payload []byte) {
		if err := run(ctx, payload); err != nil {
			log.Warnw("mqtt_command_failed", "topic", topic, "payload", string(payload), "error", err)
		}
	})
}
