package models

import (
	"errors"
	"fmt"
	"math"
)

// MinutesPerDay is the length of the schedule clock.
const MinutesPerDay = 24 * 60

// Limits applied by Normalize.
const (
	FloorMin         = 5.0
	FloorMax         = 25.0
	DayMax           = 26.0
	PreheatLimit     = 360
	WarmupRateMin    = 0.01
	StageGap         = 0.01
	OverrideMinutesL = 15
	OverrideMinutesH = 480
)

// Built-in defaults.
const (
	DefaultDayStart        = 6*60 + 30  // 06:30
	DefaultNightStart      = 22*60 + 30 // 22:30
	DefaultDayTemp         = 20.0
	DefaultNightTemp       = 17.0
	DefaultFloorTemp       = 12.0
	DefaultPreheatMin      = 30
	DefaultPreheatMax      = 90
	DefaultWarmupRate      = 0.12
	DefaultStageFull       = 0.5
	DefaultStageSingle     = 0.25
	DefaultStageHold       = 0.05
	DefaultOverrideMinutes = 120
)

// ErrInvalidTime is returned for malformed "HH:MM" values.
var ErrInvalidTime = errors.New("invalid time of day, expected HH:MM")

// HeaterConfig is the validated configuration consumed by every control cycle.
// Values are only ever replaced wholesale.
type HeaterConfig struct {
	DayStartMinutes         int
	NightStartMinutes       int
	DayTemperature          float64
	NightTemperature        float64
	FloorTemperature        float64
	NightEnabled            bool
	PreheatMinMinutes       int
	PreheatMaxMinutes       int
	WarmupRate              float64 // °C per minute
	StageFull               float64
	StageSingle             float64
	StageHold               float64
	OverrideDurationMinutes int
}

// DefaultHeaterConfig returns the factory configuration.
func DefaultHeaterConfig() HeaterConfig {
	return HeaterConfig{
		DayStartMinutes:         DefaultDayStart,
		NightStartMinutes:       DefaultNightStart,
		DayTemperature:          DefaultDayTemp,
		NightTemperature:        DefaultNightTemp,
		FloorTemperature:        DefaultFloorTemp,
		NightEnabled:            true,
		PreheatMinMinutes:       DefaultPreheatMin,
		PreheatMaxMinutes:       DefaultPreheatMax,
		WarmupRate:              DefaultWarmupRate,
		StageFull:               DefaultStageFull,
		StageSingle:             DefaultStageSingle,
		StageHold:               DefaultStageHold,
		OverrideDurationMinutes: DefaultOverrideMinutes,
	}
}

// Normalize clamps every field into its valid range and restores the ordering
// floor <= night <= day and hold < single < full.
func (c HeaterConfig) Normalize() HeaterConfig {
	c.DayStartMinutes = clampInt(c.DayStartMinutes, 0, MinutesPerDay-1)
	c.NightStartMinutes = clampInt(c.NightStartMinutes, 0, MinutesPerDay-1)

	c.FloorTemperature = clampFloat(c.FloorTemperature, FloorMin, FloorMax)
	c.DayTemperature = clampFloat(c.DayTemperature, c.FloorTemperature, DayMax)
	if c.NightEnabled {
		c.NightTemperature = clampFloat(c.NightTemperature, c.FloorTemperature, c.DayTemperature)
	} else {
		c.NightTemperature = c.DayTemperature
	}

	c.PreheatMinMinutes = clampInt(c.PreheatMinMinutes, 0, PreheatLimit)
	c.PreheatMaxMinutes = clampInt(c.PreheatMaxMinutes, c.PreheatMinMinutes, PreheatLimit)
	if c.WarmupRate <= WarmupRateMin || math.IsNaN(c.WarmupRate) {
		c.WarmupRate = DefaultWarmupRate
	}

	if c.StageHold < 0 || math.IsNaN(c.StageHold) {
		c.StageHold = 0
	}
	if c.StageSingle < c.StageHold+StageGap || math.IsNaN(c.StageSingle) {
		c.StageSingle = c.StageHold + StageGap
	}
	if c.StageFull < c.StageSingle+StageGap || math.IsNaN(c.StageFull) {
		c.StageFull = c.StageSingle + StageGap
	}

	c.OverrideDurationMinutes = clampInt(c.OverrideDurationMinutes, OverrideMinutesL, OverrideMinutesH)
	return c
}

// ClampToFloor raises t to the floor temperature when below it.
func (c HeaterConfig) ClampToFloor(t float64) float64 {
	if t < c.FloorTemperature || math.IsNaN(t) {
		return c.FloorTemperature
	}
	return t
}

// MinutesFromString parses a 24h "HH:MM" time of day into minutes since midnight.
func MinutesFromString(s string) (int, error) {
	var h, m int
	var rest string
	n, _ := fmt.Sscanf(s, "%d:%d%s", &h, &m, &rest)
	if n != 2 {
		return -1, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return -1, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

// StringFromMinutes formats minutes since midnight as zero-padded "HH:MM",
// wrapping values outside one day.
func StringFromMinutes(m int) string {
	m = ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
