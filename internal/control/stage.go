package control

import "heater_controller/internal/models"

// Thresholds are the three ascending staging limits.
type Thresholds struct {
	Hold   float64
	Single float64
	Full   float64
}

// ThresholdsFrom extracts the staging limits from a config.
func ThresholdsFrom(cfg models.HeaterConfig) Thresholds {
	return Thresholds{Hold: cfg.StageHold, Single: cfg.StageSingle, Full: cfg.StageFull}
}

// Demand is the desired state of both relays.
type Demand struct {
	One bool
	Two bool
}

// StageDemand maps delta onto the relays. In the low band only relay one runs,
// in the middle band only relay two, and above full both.
func StageDemand(t Thresholds, delta float64) Demand {
	switch {
	case delta <= t.Hold:
		return Demand{}
	case delta < t.Single:
		return Demand{One: true}
	case delta < t.Full:
		return Demand{Two: true}
	default:
		return Demand{One: true, Two: true}
	}
}
