package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"heater_controller/internal/logger"
	"heater_controller/internal/models"
	"heater_controller/internal/repository"
)

// ErrUnhandledMessage is returned by ApplyJSON for a message whose type is
// not "schedule".
var ErrUnhandledMessage = errors.New("unhandled message type")

// MessageTypeSchedule tags a config update sent over the websocket or MQTT.
const MessageTypeSchedule = "schedule"

// ConfigService owns the config snapshot. Readers get the current value
// without locking. Writers serialize on mu from reading the base to storing
// the result, then persist under saveMu.
type ConfigService struct {
	mu     sync.Mutex
	saveMu sync.Mutex
	cur    atomic.Pointer[models.HeaterConfig]
	repo   repository.ConfigRepo
	rec    *EventRecorder
	log    *logger.Logger
}

// NewConfigService starts from the factory defaults; call Load to restore
// the persisted config.
func NewConfigService(repo repository.ConfigRepo, rec *EventRecorder, log *logger.Logger) *ConfigService {
	s := &ConfigService{repo: repo, rec: rec, log: log}
	def := models.DefaultHeaterConfig().Normalize()
	s.cur.Store(&def)
	return s
}

// Get returns the config in force.
func (s *ConfigService) Get() models.HeaterConfig {
	return *s.cur.Load()
}

// Load restores the persisted config. A missing or unusable document falls
// back to the defaults, which are then written back.
func (s *ConfigService) Load(ctx context.Context) (models.HeaterConfig, error) {
	p, err := s.repo.Load(ctx)
	if err == nil {
		cfg, applyErr := p.Apply(models.DefaultHeaterConfig())
		if applyErr == nil {
			cfg = s.swap(cfg)
			s.log.Infow("config_loaded", "day_start", models.StringFromMinutes(cfg.DayStartMinutes),
				"night_start", models.StringFromMinutes(cfg.NightStartMinutes))
			return cfg, nil
		}
		err = applyErr
	}

	if errors.Is(err, repository.ErrConfigNotFound) {
		s.log.Infow("config_defaults", "reason", "no persisted config")
	} else {
		s.log.Warnw("config_invalid_using_defaults", "err", err)
	}
	cfg := s.swap(models.DefaultHeaterConfig())
	if err := s.repo.Save(ctx, cfg.Document()); err != nil {
		return cfg, fmt.Errorf("persist default config: %w", err)
	}
	return cfg, nil
}

func (s *ConfigService) swap(cfg models.HeaterConfig) models.HeaterConfig {
	n, _ := s.update(func(models.HeaterConfig) (models.HeaterConfig, error) { return cfg, nil })
	return n
}

// update derives the next config from the current one and stores it. No
// other writer can interleave between the read and the store.
func (s *ConfigService) update(next func(cur models.HeaterConfig) (models.HeaterConfig, error)) (models.HeaterConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := *s.cur.Load()
	cfg, err := next(cur)
	if err != nil {
		return cur, err
	}
	n := cfg.Normalize()
	s.cur.Store(&n)
	return n, nil
}

// Apply normalizes cfg and makes it current. With persist set the new value
// is also saved; a save failure is returned but the new config stays in force.
func (s *ConfigService) Apply(ctx context.Context, cfg models.HeaterConfig, persist bool) (models.HeaterConfig, error) {
	n := s.swap(cfg)
	return n, s.committed(ctx, n, persist)
}

// ApplyPatch overlays p on the current config and applies the result.
func (s *ConfigService) ApplyPatch(ctx context.Context, p models.ConfigPatch) (models.HeaterConfig, error) {
	n, err := s.update(p.Apply)
	if err != nil {
		return n, err
	}
	return n, s.committed(ctx, n, true)
}

// committed records the change and optionally persists. The saved document
// is the config in force at save time, so the last save always holds the
// newest config.
func (s *ConfigService) committed(ctx context.Context, n models.HeaterConfig, persist bool) error {
	s.rec.Record(models.EventConfigChange, "config updated", n.Document())
	if !persist {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.repo.Save(ctx, s.Get().Document()); err != nil {
		s.log.Errorw("config_persist_failed", "err", err)
		return fmt.Errorf("persist config: %w", err)
	}
	return nil
}

// ApplyJSON handles a {"type":"schedule", ...} message. A message without a
// type is treated as a schedule update.
func (s *ConfigService) ApplyJSON(ctx context.Context, payload []byte) (models.HeaterConfig, error) {
	var p models.ConfigPatch
	if err := json.Unmarshal(payload, &p); err != nil {
		return s.Get(), fmt.Errorf("decode config message: %w", err)
	}
	if p.Type != "" && p.Type != MessageTypeSchedule {
		return s.Get(), fmt.Errorf("%w: %q", ErrUnhandledMessage, p.Type)
	}
	return s.ApplyPatch(ctx, p)
}
