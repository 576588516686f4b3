package sensor

import (
	"context"
	"sync"
)

// Static is a settable sensor for tests and simulation.
type Static struct {
	Label string

	mu    sync.Mutex
	value float64
	err   error
}

// NewStatic returns a sensor reading v.
func NewStatic(label string, v float64) *Static {
	return &Static{Label: label, value: v}
}

func (s *Static) Name() string  { return s.Label }
func (s *Static) Present() bool { return true }

// Set changes the value and error returned by Read.
func (s *Static) Set(v float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.err = v, err
}

func (s *Static) Read(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.err
}
