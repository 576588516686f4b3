package models

import "time"

// StatusDocument is the JSON snapshot pushed to the websocket, MQTT and REST clients.
type StatusDocument struct {
	Time    int64   `json:"time"`
	Target  float64 `json:"target"`
	Fnt     float64 `json:"fnt"`
	Bck     float64 `json:"bck"`
	Top     float64 `json:"top"`
	Bot     float64 `json:"bot"`
	Chip    float64 `json:"chip"`
	Rem     float64 `json:"rem"`
	Out     float64 `json:"out"`
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
	Power   float64 `json:"power"`
	Energy  float64 `json:"energy"`
	PF      float64 `json:"pf"`
	OneSet  bool    `json:"one_set"`
	TwoSet  bool    `json:"two_set"`
	OnePwr  bool    `json:"one_pwr"`
	TwoPwr  bool    `json:"two_pwr"`
	Safe    bool    `json:"safe"`
	Blue    bool    `json:"blue"`
	Fault   string  `json:"fault,omitempty"`

	Schedule ScheduleDocument `json:"schedule"`
	Config   ConfigDocument   `json:"config"`
}

// ScheduleDocument is the "schedule" block of the status document.
// OverrideUntil is a unix timestamp in seconds, 0 when no override is active.
type ScheduleDocument struct {
	Target         float64 `json:"target"`
	Base           float64 `json:"base"`
	IsDay          bool    `json:"is_day"`
	Preheat        bool    `json:"preheat"`
	MinutesToNext  int     `json:"minutes_to_next"`
	Override       bool    `json:"override"`
	OverrideTarget float64 `json:"override_target"`
	OverrideUntil  int64   `json:"override_until"`
}

// NewStatusDocument renders a status snapshot together with the config in force.
func NewStatusDocument(st HeaterStatus, cfg HeaterConfig) StatusDocument {
	var until int64
	if st.OverrideActive && !st.OverrideExpires.IsZero() {
		until = st.OverrideExpires.Unix()
	}
	ts := st.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return StatusDocument{
		Time:    ts.Unix(),
		Target:  st.Target,
		Fnt:     st.Fnt,
		Bck:     st.Bck,
		Top:     st.Top,
		Bot:     st.Bot,
		Chip:    st.Chip,
		Rem:     st.Rem,
		Out:     st.Out,
		Voltage: st.Voltage,
		Current: st.Current,
		Power:   st.Power,
		Energy:  st.Energy,
		PF:      st.PowerFactor,
		OneSet:  st.OneDemand,
		TwoSet:  st.TwoDemand,
		OnePwr:  st.OneApplied,
		TwoPwr:  st.TwoApplied,
		Safe:    st.Safe,
		Blue:    st.SensorValid,
		Fault:   st.FaultReason,
		Schedule: ScheduleDocument{
			Target:         st.ScheduleTarget,
			Base:           st.ScheduledBase,
			IsDay:          st.ScheduleIsDay,
			Preheat:        st.PreheatActive,
			MinutesToNext:  st.MinutesToNext,
			Override:       st.OverrideActive,
			OverrideTarget: st.OverrideTarget,
			OverrideUntil:  until,
		},
		Config: cfg.Document(),
	}
}
