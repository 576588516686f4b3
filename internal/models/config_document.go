package models

import "fmt"

// ConfigDocument is the JSON form of HeaterConfig used for persistence,
// the REST API and the "config" block of the status document.
type ConfigDocument struct {
	DayStart        string  `json:"day_start" example:"06:30"`
	NightStart      string  `json:"night_start" example:"22:30"`
	DayTemp         float64 `json:"day_temp" example:"20"`
	NightTemp       float64 `json:"night_temp" example:"17"`
	FloorTemp       float64 `json:"floor_temp" example:"12"`
	NightEnabled    bool    `json:"night_enabled"`
	PreheatMin      int     `json:"preheat_min" example:"30"`
	PreheatMax      int     `json:"preheat_max" example:"90"`
	WarmupRate      float64 `json:"warmup_rate" example:"0.12"`
	StageFull       float64 `json:"stage_full" example:"0.5"`
	StageSingle     float64 `json:"stage_single" example:"0.25"`
	StageHold       float64 `json:"stage_hold" example:"0.05"`
	OverrideMinutes int     `json:"override_minutes" example:"120"`
}

// Document converts the config into its JSON form.
func (c HeaterConfig) Document() ConfigDocument {
	return ConfigDocument{
		DayStart:        StringFromMinutes(c.DayStartMinutes),
		NightStart:      StringFromMinutes(c.NightStartMinutes),
		DayTemp:         c.DayTemperature,
		NightTemp:       c.NightTemperature,
		FloorTemp:       c.FloorTemperature,
		NightEnabled:    c.NightEnabled,
		PreheatMin:      c.PreheatMinMinutes,
		PreheatMax:      c.PreheatMaxMinutes,
		WarmupRate:      c.WarmupRate,
		StageFull:       c.StageFull,
		StageSingle:     c.StageSingle,
		StageHold:       c.StageHold,
		OverrideMinutes: c.OverrideDurationMinutes,
	}
}

// ConfigPatch is a partial config update. Absent fields keep their current value.
// Besides the flat document fields it accepts integer *_minutes time fields and
// the nested "temps" and "preheat" objects sent by the schedule editor, which
// carry the same keys as the flat form.
type ConfigPatch struct {
	Type string `json:"type,omitempty"`

	DayStart          *string `json:"day_start,omitempty"`
	DayStartMinutes   *int    `json:"day_start_minutes,omitempty"`
	NightStart        *string `json:"night_start,omitempty"`
	NightStartMinutes *int    `json:"night_start_minutes,omitempty"`

	DayTemp      *float64 `json:"day_temp,omitempty"`
	NightTemp    *float64 `json:"night_temp,omitempty"`
	FloorTemp    *float64 `json:"floor_temp,omitempty"`
	NightEnabled *bool    `json:"night_enabled,omitempty"`

	PreheatMin *int     `json:"preheat_min,omitempty"`
	PreheatMax *int     `json:"preheat_max,omitempty"`
	WarmupRate *float64 `json:"warmup_rate,omitempty"`

	StageFull   *float64 `json:"stage_full,omitempty"`
	StageSingle *float64 `json:"stage_single,omitempty"`
	StageHold   *float64 `json:"stage_hold,omitempty"`

	OverrideMinutes *int `json:"override_minutes,omitempty"`

	Temps   *ConfigPatch `json:"temps,omitempty"`
	Preheat *ConfigPatch `json:"preheat,omitempty"`
}

// PatchFromDocument turns a full document into a patch that sets every field.
func PatchFromDocument(d ConfigDocument) ConfigPatch {
	return ConfigPatch{
		DayStart:        &d.DayStart,
		NightStart:      &d.NightStart,
		DayTemp:         &d.DayTemp,
		NightTemp:       &d.NightTemp,
		FloorTemp:       &d.FloorTemp,
		NightEnabled:    &d.NightEnabled,
		PreheatMin:      &d.PreheatMin,
		PreheatMax:      &d.PreheatMax,
		WarmupRate:      &d.WarmupRate,
		StageFull:       &d.StageFull,
		StageSingle:     &d.StageSingle,
		StageHold:       &d.StageHold,
		OverrideMinutes: &d.OverrideMinutes,
	}
}

// Apply overlays the patch on base. The result is not normalized.
// Nested temps/preheat values win over their flat equivalents.
func (p ConfigPatch) Apply(base HeaterConfig) (HeaterConfig, error) {
	c := base

	if p.DayStartMinutes != nil {
		c.DayStartMinutes = *p.DayStartMinutes
	}
	if p.DayStart != nil {
		m, err := MinutesFromString(*p.DayStart)
		if err != nil {
			return base, fmt.Errorf("day_start: %w", err)
		}
		c.DayStartMinutes = m
	}
	if p.NightStartMinutes != nil {
		c.NightStartMinutes = *p.NightStartMinutes
	}
	if p.NightStart != nil {
		m, err := MinutesFromString(*p.NightStart)
		if err != nil {
			return base, fmt.Errorf("night_start: %w", err)
		}
		c.NightStartMinutes = m
	}

	setFloat(&c.DayTemperature, p.DayTemp)
	setFloat(&c.NightTemperature, p.NightTemp)
	setFloat(&c.FloorTemperature, p.FloorTemp)
	if p.NightEnabled != nil {
		c.NightEnabled = *p.NightEnabled
	}
	setInt(&c.PreheatMinMinutes, p.PreheatMin)
	setInt(&c.PreheatMaxMinutes, p.PreheatMax)
	setFloat(&c.WarmupRate, p.WarmupRate)
	setFloat(&c.StageFull, p.StageFull)
	setFloat(&c.StageSingle, p.StageSingle)
	setFloat(&c.StageHold, p.StageHold)
	setInt(&c.OverrideDurationMinutes, p.OverrideMinutes)

	for _, nested := range []struct {
		key string
		p   *ConfigPatch
	}{{"temps", p.Temps}, {"preheat", p.Preheat}} {
		if nested.p == nil {
			continue
		}
		next, err := nested.p.Apply(c)
		if err != nil {
			return base, fmt.Errorf("%s.%w", nested.key, err)
		}
		c = next
	}
	return c, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
