// Package status keeps the shared heater status record.
//
// Readers get an immutable snapshot through an atomic pointer load. Writers are
// serialized and build the next snapshot from a copy of the current one, so no
// reader ever sees fields from two different updates.
package status

import (
	"sync"
	"sync/atomic"
	"time"

	"heater_controller/internal/models"
)

// Store holds the current HeaterStatus snapshot.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[models.HeaterStatus]
	now func() time.Time
}

// NewStore creates a store holding initial.
func NewStore(initial models.HeaterStatus) *Store {
	s := &Store{now: time.Now}
	s.cur.Store(&initial)
	return s
}

// Snapshot returns a copy of the current status.
func (s *Store) Snapshot() models.HeaterStatus {
	return *s.cur.Load()
}

// Version returns the update counter of the current snapshot.
func (s *Store) Version() uint64 {
	return s.cur.Load().Version
}

// Update applies fn to a copy of the current status and publishes the result.
// fn must not block or perform I/O; it runs with the writer lock held.
func (s *Store) Update(fn func(st *models.HeaterStatus)) models.HeaterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cur.Load()
	fn(&next)
	next.Version++
	next.UpdatedAt = s.now()
	s.cur.Store(&next)
	return next
}
