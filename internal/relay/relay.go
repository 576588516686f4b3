// Package relay drives the two heater solid-state relays.
// The GPIO implementation uses the Linux GPIO character device; the fake
// implementation lets the actuator be tested without hardware.
package relay

import "errors"

// ID names one of the two relays.
type ID int

const (
	One ID = iota + 1
	Two
)

// ErrUnknownRelay is returned for an ID other than One or Two.
var ErrUnknownRelay = errors.New("unknown relay")

// Next returns the relay the actuator services after id.
func (id ID) Next() ID {
	if id == One {
		return Two
	}
	return One
}

func (id ID) String() string {
	switch id {
	case One:
		return "one"
	case Two:
		return "two"
	default:
		return "unknown"
	}
}

// Driver sets and reads back relay output levels. true means energised.
type Driver interface {
	Set(id ID, on bool) error
	// Get reads the physical level back from the output line.
	Get(id ID) (bool, error)
	Close() error
}

// AllOff drives both relays off and returns the first error.
func AllOff(d Driver) error {
	errOne := d.Set(One, false)
	errTwo := d.Set(Two, false)
	return errors.Join(errOne, errTwo)
}
