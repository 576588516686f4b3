//go:build linux

package relay

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIODriver drives the relays through GPIO output lines.
type GPIODriver struct {
	chip *gpiocdev.Chip
	one  *gpiocdev.Line
	two  *gpiocdev.Line
}

// NewGPIODriver requests both relay lines as outputs, initially off.
func NewGPIODriver(chipName string, pinOne, pinTwo int, activeLow bool) (*GPIODriver, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %q: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0), gpiocdev.WithConsumer("heater")}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	one, err := chip.RequestLine(pinOne, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay one pin %d: %w", pinOne, err)
	}
	two, err := chip.RequestLine(pinTwo, opts...)
	if err != nil {
		one.Close()
		chip.Close()
		return nil, fmt.Errorf("request relay two pin %d: %w", pinTwo, err)
	}

	return &GPIODriver{chip: chip, one: one, two: two}, nil
}

func (d *GPIODriver) line(id ID) (*gpiocdev.Line, error) {
	switch id {
	case One:
		return d.one, nil
	case Two:
		return d.two, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownRelay, id)
	}
}

// Set drives the relay line to the logical level on.
func (d *GPIODriver) Set(id ID, on bool) error {
	l, err := d.line(id)
	if err != nil {
		return err
	}
	v := 0
	if on {
		v = 1
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("set relay %s: %w", id, err)
	}
	return nil
}

// Get reads the logical level of the relay line.
func (d *GPIODriver) Get(id ID) (bool, error) {
	l, err := d.line(id)
	if err != nil {
		return false, err
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read relay %s: %w", id, err)
	}
	return v == 1, nil
}

// Close drives both relays off and releases the lines.
func (d *GPIODriver) Close() error {
	var errs []error
	if err := AllOff(d); err != nil {
		errs = append(errs, err)
	}
	for _, l := range []*gpiocdev.Line{d.one, d.two} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
