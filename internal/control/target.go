package control

import "heater_controller/internal/models"

// ResolveTarget picks the override target when one is active, the scheduled
// target otherwise, and never returns less than the floor temperature.
func ResolveTarget(cfg models.HeaterConfig, s Schedule, o Override) float64 {
	t := s.Target
	if o.Active {
		t = o.Target
	}
	return cfg.ClampToFloor(t)
}
