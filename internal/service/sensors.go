package service

import (
	"context"
	"errors"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/sensor"
	"heater_controller/internal/status"
)

// Telemetry keys accepted in SensorSet.Telemetry.
const (
	TelemetryOut     = "out"
	TelemetryVoltage = "voltage"
	TelemetryCurrent = "current"
	TelemetryPower   = "power"
	TelemetryEnergy  = "energy"
	TelemetryPF      = "pf"
)

// SensorSet holds the source for every status reading. Nil entries are
// treated as absent probes.
type SensorSet struct {
	Fnt  sensor.TemperatureSensor
	Bck  sensor.TemperatureSensor
	Top  sensor.TemperatureSensor
	Bot  sensor.TemperatureSensor
	Chip sensor.TemperatureSensor
	Rem  sensor.TemperatureSensor
	// Telemetry maps the Telemetry* keys to numeric sources.
	Telemetry map[string]sensor.TemperatureSensor
}

type reading struct {
	sensor.Reading
	present bool
}

// SensorService polls every source and writes the readings into the status.
// A present probe that fails to read keeps its last value. A failing ceiling
// probe is named in ProbeFault so control cuts off; rem failing clears
// sensor_valid so control stops trusting it.
type SensorService struct {
	store   *status.Store
	set     SensorSet
	metrics *metrics.Metrics
	log     *logger.Logger

	lastErr map[string]string
}

func NewSensorService(store *status.Store, set SensorSet, m *metrics.Metrics, log *logger.Logger) *SensorService {
	return &SensorService{store: store, set: set, metrics: m, log: log, lastErr: map[string]string{}}
}

// Run executes Tick every period until ctx is cancelled.
func (s *SensorService) Run(ctx context.Context, period time.Duration) {
	RunPeriodic(ctx, "sensors", period, func(ctx context.Context) { s.Tick(ctx) }, s.log, s.metrics)
}

// Tick polls all sources once. Reads happen before the status update.
func (s *SensorService) Tick(ctx context.Context) {
	fnt := s.poll(ctx, "fnt", s.set.Fnt)
	bck := s.poll(ctx, "bck", s.set.Bck)
	top := s.poll(ctx, "top", s.set.Top)
	bot := s.poll(ctx, "bot", s.set.Bot)
	chip := s.poll(ctx, "chip", s.set.Chip)
	rem := s.poll(ctx, "rem", s.set.Rem)

	tele := make(map[string]reading, len(s.set.Telemetry))
	for k, src := range s.set.Telemetry {
		tele[k] = s.poll(ctx, k, src)
	}

	s.store.Update(func(st *models.HeaterStatus) {
		apply(&st.Fnt, fnt)
		apply(&st.Bck, bck)
		apply(&st.Top, top)
		apply(&st.Bot, bot)
		apply(&st.Chip, chip)
		apply(&st.Rem, rem)
		st.SensorValid = rem.Valid
		st.ProbeFault = firstFailed(
			namedReading{"fnt", fnt}, namedReading{"bck", bck}, namedReading{"top", top},
			namedReading{"bot", bot}, namedReading{"chip", chip},
		)

		for k, r := range tele {
			switch k {
			case TelemetryOut:
				apply(&st.Out, r)
			case TelemetryVoltage:
				apply(&st.Voltage, r)
			case TelemetryCurrent:
				apply(&st.Current, r)
			case TelemetryPower:
				apply(&st.Power, r)
			case TelemetryEnergy:
				apply(&st.Energy, r)
			case TelemetryPF:
				apply(&st.PowerFactor, r)
			}
		}
	})
}

type namedReading struct {
	name string
	r    reading
}

// firstFailed returns the first fitted probe that did not read.
func firstFailed(probes ...namedReading) string {
	for _, p := range probes {
		if p.r.present && !p.r.Valid {
			return p.name
		}
	}
	return ""
}

// apply writes a valid reading and zeroes an absent one.
func apply(dst *float64, r reading) {
	switch {
	case r.Valid:
		*dst = r.Celsius
	case !r.present:
		*dst = 0
	}
}

func (s *SensorService) poll(ctx context.Context, name string, src sensor.TemperatureSensor) reading {
	if src == nil {
		return reading{}
	}
	r, err := sensor.Poll(ctx, src)
	out := reading{Reading: r, present: src.Present()}

	switch {
	case err != nil && s.lastErr[name] != err.Error():
		s.lastErr[name] = err.Error()
		if errors.Is(err, sensor.ErrAbsent) || errors.Is(err, sensor.ErrStale) {
			s.log.Infow("sensor_unavailable", "sensor", name, "err", err)
		} else {
			s.log.Warnw("sensor_read_failed", "sensor", name, "err", err)
		}
	case err == nil && s.lastErr[name] != "":
		delete(s.lastErr, name)
		s.log.Infow("sensor_recovered", "sensor", name)
	}
	return out
}
