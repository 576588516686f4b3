package relay

import (
	"fmt"
	"sync"
)

// Write records one Set call on a FakeDriver.
type Write struct {
	ID ID
	On bool
}

// FakeDriver is an in-memory Driver. It is safe for concurrent use.
type FakeDriver struct {
	mu     sync.Mutex
	levels map[ID]bool
	stuck  map[ID]bool
	writes []Write
	setErr error
	getErr error
	closed bool
}

// NewFakeDriver returns a driver with both relays off.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{levels: map[ID]bool{}, stuck: map[ID]bool{}}
}

// Stick makes id ignore writes and read back level.
func (f *FakeDriver) Stick(id ID, level bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stuck[id] = true
	f.levels[id] = level
}

// FailSet makes every later Set return err. A nil err clears the fault.
func (f *FakeDriver) FailSet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr = err
}

// FailGet makes every later Get return err. A nil err clears the fault.
func (f *FakeDriver) FailGet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

// Set records the write and updates the level unless the relay is stuck.
func (f *FakeDriver) Set(id ID, on bool) error {
	if id != One && id != Two {
		return fmt.Errorf("%w: %d", ErrUnknownRelay, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.writes = append(f.writes, Write{ID: id, On: on})
	if !f.stuck[id] {
		f.levels[id] = on
	}
	return nil
}

// Get returns the current level of id.
func (f *FakeDriver) Get(id ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return false, f.getErr
	}
	return f.levels[id], nil
}

// Level is Get without the error, for assertions.
func (f *FakeDriver) Level(id ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[id]
}

// Writes returns a copy of all recorded writes.
func (f *FakeDriver) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Close marks the driver closed and drops both outputs.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id := range f.levels {
		if !f.stuck[id] {
			f.levels[id] = false
		}
	}
	return nil
}

// Closed reports whether Close was called.
func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
