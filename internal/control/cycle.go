package control

import (
	"fmt"
	"strings"
	"time"

	"heater_controller/internal/models"
)

// Latch selects how the safe flag is re-armed.
type Latch string

const (
	// LatchPerCycle re-arms safe at the start of every control cycle, so a
	// fault stays visible for at most one control period unless it persists.
	LatchPerCycle Latch = "per_cycle"
	// LatchSticky keeps a fault until it is cleared explicitly.
	LatchSticky Latch = "latched"
)

// ParseLatch accepts "per_cycle" (or empty) and "latched".
func ParseLatch(s string) (Latch, error) {
	switch Latch(strings.ToLower(strings.TrimSpace(s))) {
	case "", LatchPerCycle:
		return LatchPerCycle, nil
	case LatchSticky:
		return LatchSticky, nil
	default:
		return "", fmt.Errorf("unknown safety latch %q", s)
	}
}

// CycleResult reports what a control cycle decided, for logging and events.
type CycleResult struct {
	Schedule        Schedule
	Verdict         Verdict
	Demand          Demand
	Target          float64
	OverrideExpired bool
	PreheatStarted  bool
	NewTrip         bool
}

// RunCycle evaluates one control cycle against st and writes the outcome back
// into it. It is pure apart from mutating st.
func RunCycle(st *models.HeaterStatus, cfg models.HeaterConfig, c Ceilings, latch Latch, now time.Time) CycleResult {
	var res CycleResult

	res.Schedule = EvaluateSchedule(cfg, MinuteOfDay(now), st.Rem, st.SensorValid)
	res.PreheatStarted = res.Schedule.Preheat && !st.PreheatActive

	ov, expired := Override{
		Active:  st.OverrideActive,
		Target:  st.OverrideTarget,
		Expires: st.OverrideExpires,
	}.Tick(now, cfg.FloorTemperature)
	res.OverrideExpired = expired

	res.Target = ResolveTarget(cfg, res.Schedule, ov)

	wasSafe := st.Safe
	switch latch {
	case LatchSticky:
		st.Safe = !st.FaultLatched
	default:
		st.Safe = true
		st.FaultReason = ""
		st.FaultAt = time.Time{}
	}

	res.Verdict = EvaluateSafety(c, Readings{
		Fnt:      st.Fnt,
		Bck:      st.Bck,
		Top:      st.Top,
		Bot:      st.Bot,
		Chip:     st.Chip,
		Rem:      st.Rem,
		RemValid: st.SensorValid,
		Failed:   st.ProbeFault,
	}, res.Target)
	if res.Verdict.Cutoff {
		res.NewTrip = wasSafe
		Trip(st, latch, res.Verdict.Reason, now)
	}

	res.Demand = StageDemand(ThresholdsFrom(cfg), res.Verdict.Delta)

	st.Target = res.Target
	st.ScheduleTarget = res.Schedule.Target
	st.ScheduledBase = res.Schedule.Base
	st.ScheduleIsDay = res.Schedule.IsDay
	st.PreheatActive = res.Schedule.Preheat
	st.MinutesToNext = res.Schedule.MinutesToNext
	st.OverrideActive = ov.Active
	st.OverrideTarget = ov.Target
	st.OverrideExpires = ov.Expires
	st.OneDemand = res.Demand.One
	st.TwoDemand = res.Demand.Two
	return res
}

// Trip marks the system unsafe. Under LatchSticky the fault persists until
// ClearFault.
func Trip(st *models.HeaterStatus, latch Latch, reason string, now time.Time) {
	st.Safe = false
	st.FaultReason = reason
	st.FaultAt = now
	if latch == LatchSticky {
		st.FaultLatched = true
	}
}

// ClearFault releases a latched fault. safe is re-armed by the next cycle.
func ClearFault(st *models.HeaterStatus) bool {
	if !st.FaultLatched {
		return false
	}
	st.FaultLatched = false
	st.FaultReason = ""
	st.FaultAt = time.Time{}
	return true
}
