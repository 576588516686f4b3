//go:build !linux

package relay

import "errors"

// GPIODriver is not available on non-Linux platforms.
type GPIODriver struct{}

// NewGPIODriver returns an error on non-Linux platforms.
func NewGPIODriver(chipName string, pinOne, pinTwo int, activeLow bool) (*GPIODriver, error) {
	return nil, errors.New("relay: gpio not supported on this platform (requires Linux)")
}

func (d *GPIODriver) Set(id ID, on bool) error { return errors.New("relay: gpio not supported") }

func (d *GPIODriver) Get(id ID) (bool, error) { return false, errors.New("relay: gpio not supported") }

func (d *GPIODriver) Close() error { return nil }
