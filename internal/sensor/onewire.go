package sensor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultOneWireDir is where the w1 kernel driver exposes probes.
const DefaultOneWireDir = "/sys/bus/w1/devices"

// DS18B20 reports 85 °C when a conversion has not completed.
const powerOnResetMilliC = 85000

// OneWire reads a DS18B20 probe through the w1_therm sysfs "temperature" file,
// which holds millidegrees Celsius.
type OneWire struct {
	label string
	path  string
}

// NewOneWire returns a probe reader for device id under dir.
func NewOneWire(label, dir, id string) *OneWire {
	if dir == "" {
		dir = DefaultOneWireDir
	}
	return &OneWire{label: label, path: filepath.Join(dir, id, "temperature")}
}

func (o *OneWire) Name() string  { return o.label }
func (o *OneWire) Present() bool { return true }

func (o *OneWire) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	milli, err := readMilli(o.path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", o.label, err)
	}
	if milli == powerOnResetMilliC {
		return 0, fmt.Errorf("%s: power-on reset value", o.label)
	}
	return float64(milli) / 1000, nil
}

// ThermalZone reads the SoC temperature from a thermal zone "temp" file.
type ThermalZone struct {
	label string
	path  string
}

// DefaultThermalZone is the first SoC thermal zone.
const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

// NewThermalZone returns a reader for the thermal zone file at path.
func NewThermalZone(label, path string) *ThermalZone {
	if path == "" {
		path = DefaultThermalZone
	}
	return &ThermalZone{label: label, path: path}
}

func (z *ThermalZone) Name() string  { return z.label }
func (z *ThermalZone) Present() bool { return true }

func (z *ThermalZone) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	milli, err := readMilli(z.path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", z.label, err)
	}
	return float64(milli) / 1000, nil
}

func readMilli(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
