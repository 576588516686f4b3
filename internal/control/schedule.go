// Package control holds the pure control-cycle policy: day/night scheduling with
// preheat, manual overrides, target resolution, safety cutoffs and relay staging.
// Nothing in this package performs I/O or keeps state between calls.
package control

import (
	"math"
	"time"

	"heater_controller/internal/models"
)

// Schedule is the result of one schedule evaluation.
type Schedule struct {
	Target        float64
	Base          float64
	IsDay         bool
	Preheat       bool
	MinutesToNext int
}

// MinuteOfDay returns minutes since local midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsDay reports whether minute falls in the day window. The window wraps past
// midnight when day starts after night.
func IsDay(cfg models.HeaterConfig, minute int) bool {
	if !cfg.NightEnabled || cfg.DayStartMinutes == cfg.NightStartMinutes {
		return true
	}
	if cfg.DayStartMinutes < cfg.NightStartMinutes {
		return minute >= cfg.DayStartMinutes && minute < cfg.NightStartMinutes
	}
	return minute >= cfg.DayStartMinutes || minute < cfg.NightStartMinutes
}

// EvaluateSchedule computes the scheduled target for minute with the preheat
// decision applied. rem and sensorValid feed the warm-up estimate.
func EvaluateSchedule(cfg models.HeaterConfig, minute int, rem float64, sensorValid bool) Schedule {
	if !cfg.NightEnabled || cfg.DayStartMinutes == cfg.NightStartMinutes {
		base := cfg.ClampToFloor(cfg.DayTemperature)
		return Schedule{
			Target:        base,
			Base:          base,
			IsDay:         true,
			MinutesToNext: models.MinutesPerDay,
		}
	}

	day := IsDay(cfg, minute)
	boundary := cfg.DayStartMinutes
	base := cfg.NightTemperature
	if day {
		boundary = cfg.NightStartMinutes
		base = cfg.DayTemperature
	}
	base = cfg.ClampToFloor(base)

	s := Schedule{
		Target:        base,
		Base:          base,
		IsDay:         day,
		MinutesToNext: wrapMinutes(boundary - minute),
	}

	if !day && sensorValid {
		untilDay := wrapMinutes(cfg.DayStartMinutes - minute)
		if untilDay <= WarmupMinutes(cfg, rem) {
			s.Preheat = true
			s.IsDay = true
			s.Target = cfg.DayTemperature
			s.MinutesToNext = untilDay
		}
	}

	s.Target = cfg.ClampToFloor(s.Target)
	return s
}

// WarmupMinutes estimates how long the room needs to reach the day temperature
// from rem, rounded up to whole minutes and clamped to the preheat window.
func WarmupMinutes(cfg models.HeaterConfig, rem float64) int {
	delta := math.Max(0, cfg.DayTemperature-rem)

	needed := float64(cfg.PreheatMaxMinutes)
	if cfg.WarmupRate > models.WarmupRateMin {
		needed = delta / cfg.WarmupRate
	}
	minutes := int(math.Ceil(needed))
	if minutes < cfg.PreheatMinMinutes {
		minutes = cfg.PreheatMinMinutes
	}
	if minutes > cfg.PreheatMaxMinutes {
		minutes = cfg.PreheatMaxMinutes
	}
	return minutes
}

func wrapMinutes(m int) int {
	return ((m % models.MinutesPerDay) + models.MinutesPerDay) % models.MinutesPerDay
}
