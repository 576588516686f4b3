package sensor

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStale is returned when a pushed value is older than the allowed age.
var ErrStale = errors.New("reading is stale")

// Remote holds the last value pushed by an external publisher, such as a
// room thermometer reporting over MQTT. It reads valid only while fresh.
type Remote struct {
	label  string
	maxAge time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	value float64
	at    time.Time
}

// NewRemote returns an empty remote source. maxAge <= 0 disables the age check.
func NewRemote(label string, maxAge time.Duration) *Remote {
	return &Remote{label: label, maxAge: maxAge, now: time.Now}
}

func (r *Remote) Name() string  { return r.label }
func (r *Remote) Present() bool { return true }

// Set stores a new value received at.
func (r *Remote) Set(v float64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = v
	r.at = at
}

func (r *Remote) Read(context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.at.IsZero() {
		return 0, ErrAbsent
	}
	if r.maxAge > 0 && r.now().Sub(r.at) > r.maxAge {
		return r.value, ErrStale
	}
	return r.value, nil
}
