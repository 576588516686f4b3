package control

import (
	"testing"

	"heater_controller/internal/models"
)

func testConfig() models.HeaterConfig {
	return models.DefaultHeaterConfig() // 06:30 - 22:30, day 20, night 17, floor 12
}

func TestIsDay_Wraparound(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	cases := []struct {
		name   string
		minute int
		want   bool
	}{
		{"morning", 500, true},
		{"late_evening", 1400, false},
		{"midnight", 0, false},
		{"day_start_inclusive", 390, true},
		{"night_start_exclusive", 1350, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsDay(cfg, tc.minute); got != tc.want {
				t.Fatalf("IsDay(%d) = %v, want %v", tc.minute, got, tc.want)
			}
		})
	}
}

func TestIsDay_WindowPastMidnight(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.DayStartMinutes = 1200 // 20:00
	cfg.NightStartMinutes = 120 // 02:00

	for minute, want := range map[int]bool{1300: true, 60: true, 120: false, 600: false, 1200: true} {
		if got := IsDay(cfg, minute); got != want {
			t.Errorf("IsDay(%d) = %v, want %v", minute, got, want)
		}
	}
}

func TestEvaluateSchedule_EqualBoundaries(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.NightStartMinutes = cfg.DayStartMinutes

	for _, minute := range []int{0, 390, 1000, 1439} {
		s := EvaluateSchedule(cfg, minute, 10, true)
		if !s.IsDay || s.MinutesToNext != models.MinutesPerDay || s.Target != cfg.DayTemperature {
			t.Fatalf("minute %d: %+v", minute, s)
		}
	}
}

func TestEvaluateSchedule_NightDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.NightEnabled = false

	s := EvaluateSchedule(cfg, 1400, 10, true)
	if !s.IsDay || s.Preheat || s.MinutesToNext != models.MinutesPerDay || s.Base != 20 {
		t.Fatalf("unexpected schedule: %+v", s)
	}
}

func TestEvaluateSchedule_MinutesToNext(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	day := EvaluateSchedule(cfg, 500, 20, true)
	if !day.IsDay || day.MinutesToNext != 850 || day.Target != 20 || day.Base != 20 {
		t.Fatalf("day: %+v", day)
	}

	// 23:20 with a warm room: no preheat, 430 minutes until 06:30.
	night := EvaluateSchedule(cfg, 1400, 20, true)
	if night.IsDay || night.Preheat || night.MinutesToNext != 430 || night.Target != 17 {
		t.Fatalf("night: %+v", night)
	}
}

func TestEvaluateSchedule_PreheatTrigger(t *testing.T) {
	t.Parallel()
	cfg := testConfig() // warmup 0.12, preheat 30..90

	// rem=15 needs 5/0.12 = 41.67 minutes, rounded up to 42.
	if got := WarmupMinutes(cfg, 15); got != 42 {
		t.Fatalf("WarmupMinutes = %d, want 42", got)
	}

	cases := []struct {
		name    string
		minute  int
		preheat bool
	}{
		{"42_minutes_before", cfg.DayStartMinutes - 42, true},
		{"10_minutes_before", cfg.DayStartMinutes - 10, true},
		{"43_minutes_before", cfg.DayStartMinutes - 43, false},
		{"deep_night", 60, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := EvaluateSchedule(cfg, tc.minute, 15, true)
			if s.Preheat != tc.preheat {
				t.Fatalf("preheat = %v, want %v (%+v)", s.Preheat, tc.preheat, s)
			}
			if tc.preheat {
				if s.Target != 20 || !s.IsDay || s.Base != 17 {
					t.Fatalf("preheat schedule: %+v", s)
				}
				if s.MinutesToNext != cfg.DayStartMinutes-tc.minute {
					t.Fatalf("minutes to next = %d", s.MinutesToNext)
				}
			} else if s.Target != 17 || s.IsDay {
				t.Fatalf("night schedule: %+v", s)
			}
		})
	}
}

func TestEvaluateSchedule_PreheatNeedsValidSensor(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	s := EvaluateSchedule(cfg, cfg.DayStartMinutes-10, 15, false)
	if s.Preheat || s.Target != 17 {
		t.Fatalf("expected no preheat without a valid sensor: %+v", s)
	}
}

func TestWarmupMinutes_Clamped(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	if got := WarmupMinutes(cfg, 25); got != cfg.PreheatMinMinutes {
		t.Fatalf("warm room: %d", got)
	}
	if got := WarmupMinutes(cfg, 0); got != cfg.PreheatMaxMinutes {
		t.Fatalf("cold room: %d", got)
	}
	cfg.WarmupRate = 0
	if got := WarmupMinutes(cfg, 19); got != cfg.PreheatMaxMinutes {
		t.Fatalf("no rate: %d", got)
	}
}

func TestEvaluateSchedule_FloorClamp(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.NightTemperature = 5 // not normalized on purpose
	s := EvaluateSchedule(cfg, 0, 20, true)
	if s.Target != cfg.FloorTemperature || s.Base != cfg.FloorTemperature {
		t.Fatalf("floor not applied: %+v", s)
	}
}
