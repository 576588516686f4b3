package models

import "time"

// Event types written to the event log.
const (
	EventStart           = "START"
	EventShutdown        = "SHUTDOWN"
	EventSafetyTrip      = "SAFETY_TRIP"
	EventSafetyReset     = "SAFETY_RESET"
	EventRelayFault      = "RELAY_FAULT"
	EventOverrideSet     = "OVERRIDE_SET"
	EventOverrideClear   = "OVERRIDE_CLEAR"
	EventOverrideExpired = "OVERRIDE_EXPIRED"
	EventPreheat         = "PREHEAT"
	EventConfigChange    = "CONFIG_CHANGE"
)

// EventTypes lists every type the controller records.
var EventTypes = []string{
	EventStart, EventShutdown, EventSafetyTrip, EventSafetyReset, EventRelayFault,
	EventOverrideSet, EventOverrideClear, EventOverrideExpired, EventPreheat, EventConfigChange,
}

func IsEventType(s string) bool {
	for _, t := range EventTypes {
		if t == s {
			return true
		}
	}
	return false
}

// HeaterEvent is a single log entry.
type HeaterEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
