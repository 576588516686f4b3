// Package sensor provides the temperature sources polled by the sensing loop.
package sensor

import (
	"context"
	"errors"
)

// ErrAbsent is returned by sources that have no probe behind them.
var ErrAbsent = errors.New("sensor absent")

// TemperatureSensor is a single temperature source.
type TemperatureSensor interface {
	Name() string
	// Present is false for a slot with no probe fitted.
	Present() bool
	// Read returns the temperature in °C.
	Read(ctx context.Context) (float64, error)
}

// Absent is a placeholder for a probe that is not fitted. It always reads
// ErrAbsent so the monitor can report the slot uniformly.
type Absent struct {
	Label string
}

func (a Absent) Name() string  { return a.Label }
func (a Absent) Present() bool { return false }

func (a Absent) Read(context.Context) (float64, error) {
	return 0, ErrAbsent
}

// Reading is the outcome of one poll of a sensor.
type Reading struct {
	Celsius float64
	Valid   bool
}

// Poll reads s and folds absence and errors into an invalid Reading.
func Poll(ctx context.Context, s TemperatureSensor) (Reading, error) {
	if s == nil || !s.Present() {
		return Reading{}, nil
	}
	v, err := s.Read(ctx)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Celsius: v, Valid: true}, nil
}
