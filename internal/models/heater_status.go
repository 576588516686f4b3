package models

import "time"

// HeaterStatus is the shared status record. It is a plain value with no
// reference fields so that copying it yields an independent snapshot.
type HeaterStatus struct {
	// Probe readings, °C. Absent probes read 0.
	Fnt  float64
	Bck  float64
	Top  float64
	Bot  float64
	Chip float64
	Rem  float64
	// SensorValid gates whether Rem is trusted for control.
	SensorValid bool
	// ProbeFault names a fitted ceiling probe whose last read failed.
	ProbeFault string

	Out         float64
	Voltage     float64
	Current     float64
	Power       float64
	Energy      float64
	PowerFactor float64

	Target float64

	ScheduleTarget float64
	ScheduledBase  float64
	ScheduleIsDay  bool
	PreheatActive  bool
	MinutesToNext  int

	OverrideActive  bool
	OverrideTarget  float64
	OverrideExpires time.Time

	OneDemand  bool
	TwoDemand  bool
	OneApplied bool
	TwoApplied bool

	Safe         bool
	FaultLatched bool
	FaultReason  string
	FaultAt      time.Time

	Version   uint64
	UpdatedAt time.Time
}

// InitialStatus is the conservative startup record: relays off and not armed.
func InitialStatus(now time.Time) HeaterStatus {
	return HeaterStatus{
		Target:    DefaultDayTemp,
		UpdatedAt: now,
	}
}

// HistoryRecord is one persisted status snapshot.
type HistoryRecord struct {
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
	Target     float64   `json:"target" db:"target"`
	Fnt        float64   `json:"fnt" db:"fnt"`
	Bck        float64   `json:"bck" db:"bck"`
	Top        float64   `json:"top" db:"top"`
	Bot        float64   `json:"bot" db:"bot"`
	Chip       float64   `json:"chip" db:"chip"`
	Rem        float64   `json:"rem" db:"rem"`
	Out        float64   `json:"out" db:"out"`
	OneSet     bool      `json:"one_set" db:"one_set"`
	TwoSet     bool      `json:"two_set" db:"two_set"`
	OnePwr     bool      `json:"one_pwr" db:"one_pwr"`
	TwoPwr     bool      `json:"two_pwr" db:"two_pwr"`
	Safe       bool      `json:"safe" db:"safe"`
}

// HistoryFromStatus captures the fields kept in the history log.
func HistoryFromStatus(st HeaterStatus, at time.Time) HistoryRecord {
	return HistoryRecord{
		RecordedAt: at.UTC(),
		Target:     st.Target,
		Fnt:        st.Fnt,
		Bck:        st.Bck,
		Top:        st.Top,
		Bot:        st.Bot,
		Chip:       st.Chip,
		Rem:        st.Rem,
		Out:        st.Out,
		OneSet:     st.OneDemand,
		TwoSet:     st.TwoDemand,
		OnePwr:     st.OneApplied,
		TwoPwr:     st.TwoApplied,
		Safe:       st.Safe,
	}
}
