package service

import (
	"context"
	"testing"
	"time"

	"heater_controller/internal/control"
	"heater_controller/internal/logger"
	"heater_controller/internal/models"
	"heater_controller/internal/relay"
	"heater_controller/internal/repository"
	"heater_controller/internal/status"
)

// Runs every loop against the plant simulator and checks that an override
// ends with energised relays, and that shutdown releases them.
func TestService_LoopsDriveRelays(t *testing.T) {
	events := &memEventRepo{}
	cfgRepo := &fakeConfigRepo{loadErr: repository.ErrConfigNotFound}
	repos := &repository.Repository{
		ConfigRepo:  cfgRepo,
		EventRepo:   events,
		HistoryRepo: &fakeHistoryRepo{},
		Auth:        newMemUserRepo(),
	}
	driver := relay.NewFakeDriver()
	plant := NewPlantSensors()
	store := status.NewStore(models.InitialStatus(time.Now()))
	pub := &fakePublisher{}

	services := NewService(repos, Deps{
		Store:            store,
		Driver:           driver,
		Sensors:          plant.Set(),
		Ceilings:         control.DefaultCeilings(),
		Latch:            control.LatchPerCycle,
		VerifyRelays:     true,
		Auth:             AuthOptions{SigningKey: testSigningKey, AllowSignUp: true},
		Publisher:        pub,
		StatusTopic:      "heater/status",
		Simulator:        NewSimulatorService(driver, plant, logger.Nop(), time.Now),
		HistoryRetention: time.Hour,
		Location:         time.UTC,
		Log:              logger.Nop(),
	})
	if services.Loops.Broadcast == nil || services.Loops.Simulator == nil {
		t.Fatalf("optional loops not wired: %+v", services.Loops)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := services.Loops.Config.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfgRepo.saved) != 1 {
		t.Fatalf("defaults not persisted on first start")
	}
	if _, err := services.ActivateOverride(ctx, 25, nil); err != nil {
		t.Fatalf("ActivateOverride: %v", err)
	}

	wait := services.Loops.Start(ctx, Periods{
		Sensor:    5 * time.Millisecond,
		Control:   5 * time.Millisecond,
		Actuator:  5 * time.Millisecond,
		Broadcast: 5 * time.Millisecond,
		History:   10 * time.Millisecond,
		Simulator: 5 * time.Millisecond,
	})

	deadline := time.Now().Add(3 * time.Second)
	for {
		st := services.Snapshot()
		if st.Safe && st.OneApplied && st.TwoApplied {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			wait()
			t.Fatalf("relays never energised: %+v", st)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !driver.Level(relay.One) || !driver.Level(relay.Two) {
		t.Fatalf("driver levels do not match applied bits")
	}

	cancel()
	wait()
	if err := services.Loops.Actuator.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if driver.Level(relay.One) || driver.Level(relay.Two) {
		t.Fatalf("relays left on after shutdown")
	}
	if st := services.Snapshot(); st.OneApplied || st.TwoApplied {
		t.Fatalf("applied bits left set: %+v", st)
	}
	if len(pub.calls) == 0 {
		t.Fatalf("status never published")
	}

	found := false
	for _, ev := range events.events {
		if ev.Type == models.EventOverrideSet {
			found = true
		}
	}
	if !found {
		t.Fatalf("override event not persisted: %v", eventTypes(events.events))
	}
}
