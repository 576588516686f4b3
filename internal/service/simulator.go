package service

import (
	"context"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/relay"
	"heater_controller/internal/sensor"
)

// ----------- Simulation constants -----------
const (
	OutdoorC             = 5.0    // the room leaks heat toward this
	InitialRoomC         = 17.0   // room temperature at start
	ElementRisePerRelayC = 30.0   // element settles this far above the room per energised relay
	RampUpCPerSec        = 1.5    // element heating per energised relay
	RampDownCPerSec      = 0.8    // element cooling with both relays off
	RoomGainPerSec       = 0.0005 // fraction of (element - room) gained per second
	RoomLossPerSec       = 0.0002 // fraction of (room - outdoor) lost per second
	ChipIdleC            = 42.0   // controller board temperature
	ChipPerRelayC        = 4.0
)

// Probe offsets from the element temperature.
const (
	topOffsetC = 3.0
	bckOffsetC = -2.0
	botOffsetC = -6.0
)

// PlantSensors are the settable probes the simulator drives.
type PlantSensors struct {
	Fnt  *sensor.Static
	Bck  *sensor.Static
	Top  *sensor.Static
	Bot  *sensor.Static
	Chip *sensor.Static
	Rem  *sensor.Static
}

// NewPlantSensors returns probes at the initial simulated temperatures.
func NewPlantSensors() PlantSensors {
	return PlantSensors{
		Fnt:  sensor.NewStatic("fnt", InitialRoomC),
		Bck:  sensor.NewStatic("bck", InitialRoomC+bckOffsetC),
		Top:  sensor.NewStatic("top", InitialRoomC+topOffsetC),
		Bot:  sensor.NewStatic("bot", InitialRoomC+botOffsetC),
		Chip: sensor.NewStatic("chip", ChipIdleC),
		Rem:  sensor.NewStatic("rem", InitialRoomC),
	}
}

// Set returns the probes as a SensorSet.
func (p PlantSensors) Set() SensorSet {
	return SensorSet{Fnt: p.Fnt, Bck: p.Bck, Top: p.Top, Bot: p.Bot, Chip: p.Chip, Rem: p.Rem}
}

// SimulatorService models a room with a two-stage heater so the controller
// can run without hardware. It reads the relay levels back from the driver
// and moves the plant probes accordingly.
type SimulatorService struct {
	relays  relay.Driver
	sensors PlantSensors
	log     *logger.Logger
	now     func() time.Time

	element float64
	room    float64
	last    time.Time
}

// NewSimulatorService returns a simulator with the plant at rest.
func NewSimulatorService(relays relay.Driver, sensors PlantSensors, log *logger.Logger, now func() time.Time) *SimulatorService {
	return &SimulatorService{
		relays:  relays,
		sensors: sensors,
		log:     log,
		now:     now,
		element: InitialRoomC,
		room:    InitialRoomC,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	RunPeriodic(ctx, "simulator", tick, func(ctx context.Context) { s.Tick(ctx) }, s.log, nil)
}

// Tick advances the plant by the time since the previous tick.
func (s *SimulatorService) Tick(ctx context.Context) {
	now := s.now()
	if s.last.IsZero() {
		s.last = now
		s.publish(0)
		return
	}
	elapsed := now.Sub(s.last).Seconds()
	if elapsed <= 0 {
		return
	}
	s.last = now

	on := s.energised()
	s.step(on, elapsed)
	s.publish(on)
}

func (s *SimulatorService) energised() int {
	n := 0
	for _, id := range []relay.ID{relay.One, relay.Two} {
		level, err := s.relays.Get(id)
		if err != nil {
			s.log.Debugw("simulator_relay_read_failed", "relay", id, "err", err)
			continue
		}
		if level {
			n++
		}
	}
	return n
}

// step integrates the element and room temperatures over elapsed seconds.
func (s *SimulatorService) step(on int, elapsed float64) {
	if on > 0 {
		target := s.room + ElementRisePerRelayC*float64(on)
		s.element = approach(s.element, target, RampUpCPerSec*float64(on)*elapsed)
	} else {
		s.element = approach(s.element, s.room, RampDownCPerSec*elapsed)
	}
	gain := RoomGainPerSec * (s.element - s.room)
	loss := RoomLossPerSec * (s.room - OutdoorC)
	s.room += (gain - loss) * elapsed
}

func (s *SimulatorService) publish(on int) {
	s.sensors.Fnt.Set(s.element, nil)
	s.sensors.Bck.Set(s.element+bckOffsetC, nil)
	s.sensors.Top.Set(s.element+topOffsetC, nil)
	s.sensors.Bot.Set(s.element+botOffsetC, nil)
	s.sensors.Chip.Set(ChipIdleC+ChipPerRelayC*float64(on), nil)
	s.sensors.Rem.Set(s.room, nil)
}

// approach moves v toward target by at most step.
func approach(v, target, step float64) float64 {
	if v < target {
		return min(v+step, target)
	}
	return max(v-step, target)
}
