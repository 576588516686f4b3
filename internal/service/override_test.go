package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/models"
)

func intPtr(v int) *int { return &v }

func TestOverrideService_Activate(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	cfg := defaultConfig()
	ctx := context.Background()

	cases := []struct {
		name        string
		target      float64
		minutes     *int
		wantTarget  float64
		wantExpires time.Time
		wantErr     error
	}{
		{"default_duration", 22, nil, 22, now.Add(120 * time.Minute), nil},
		{"explicit_minutes", 21, intPtr(30), 21, now.Add(30 * time.Minute), nil},
		{"minutes_capped", 21, intPtr(1000), 21, now.Add(models.OverrideMinutesH * time.Minute), nil},
		{"target_above_day_max", 30, nil, models.DayMax, now.Add(120 * time.Minute), nil},
		{"target_below_floor", 5, nil, cfg.cfg.FloorTemperature, now.Add(120 * time.Minute), nil},
		{"zero_minutes", 21, intPtr(0), 0, time.Time{}, ErrInvalidDuration},
		{"negative_minutes", 21, intPtr(-5), 0, time.Time{}, ErrInvalidDuration},
		{"nan_target", math.NaN(), nil, 0, time.Time{}, ErrInvalidTarget},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(nil)
			rec := newTestRecorder()
			svc := NewOverrideService(store, cfg, rec, logger.Nop(), fixedNow(now))

			ov, err := svc.ActivateOverride(ctx, tc.target, tc.minutes)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if store.Snapshot().OverrideActive || len(queued(rec)) != 0 {
					t.Fatal("rejected override must not change status or record events")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ov.Active || ov.Target != tc.wantTarget || !ov.Expires.Equal(tc.wantExpires) {
				t.Fatalf("override = %+v", ov)
			}
			st := store.Snapshot()
			if !st.OverrideActive || st.OverrideTarget != tc.wantTarget || !st.OverrideExpires.Equal(tc.wantExpires) {
				t.Fatalf("status = %+v", st)
			}
			if evs := queued(rec); len(evs) != 1 || evs[0].Type != models.EventOverrideSet {
				t.Fatalf("events = %v", eventTypes(evs))
			}
		})
	}
}

func TestOverrideService_Nudge(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newTestStore(func(st *models.HeaterStatus) { st.Target = 20 })
	svc := NewOverrideService(store, defaultConfig(), newTestRecorder(), logger.Nop(), fixedNow(now))
	ctx := context.Background()

	ov := svc.NudgeOverride(ctx, StepCoarse)
	if ov.Target != 20.5 || !store.Snapshot().OverrideActive {
		t.Fatalf("nudge up: %+v", ov)
	}
	if !ov.Expires.Equal(now.Add(models.DefaultOverrideMinutes * time.Minute)) {
		t.Fatalf("expires = %v", ov.Expires)
	}

	// The nudge starts from the effective target, which the control cycle
	// would have set from the override.
	store.Update(func(st *models.HeaterStatus) { st.Target = 25.95 })
	if ov = svc.NudgeOverride(ctx, StepCoarse); ov.Target != models.DayMax {
		t.Fatalf("nudge must stop at DayMax, got %v", ov.Target)
	}

	store.Update(func(st *models.HeaterStatus) { st.Target = 12.05 })
	if ov = svc.NudgeOverride(ctx, -StepFine); ov.Target != 12 {
		t.Fatalf("nudge must stop at the floor, got %v", ov.Target)
	}
}

func TestOverrideService_Clear(t *testing.T) {
	store := newTestStore(nil)
	rec := newTestRecorder()
	svc := NewOverrideService(store, defaultConfig(), rec, logger.Nop(), time.Now)
	ctx := context.Background()

	if _, err := svc.ActivateOverride(ctx, 22, nil); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !svc.ClearOverride(ctx) {
		t.Fatal("ClearOverride should report an active override")
	}
	st := store.Snapshot()
	if st.OverrideActive || st.OverrideTarget != 0 || !st.OverrideExpires.IsZero() {
		t.Fatalf("override not cleared: %+v", st)
	}
	if svc.ClearOverride(ctx) {
		t.Fatal("second clear should report nothing to clear")
	}
	got := eventTypes(queued(rec))
	if len(got) != 2 || got[1] != models.EventOverrideClear {
		t.Fatalf("events = %v", got)
	}
}
