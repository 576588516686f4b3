package service

import (
	"context"

	"heater_controller/internal/models"
	"heater_controller/internal/status"
)

type MonitoringService struct {
	store *status.Store
	cfg   configSource
}

func NewMonitoringService(store *status.Store, cfg configSource) *MonitoringService {
	return &MonitoringService{store: store, cfg: cfg}
}

// GetStatus renders the current status together with the config in force.
func (s *MonitoringService) GetStatus(ctx context.Context) (models.StatusDocument, error) {
	if err := ctx.Err(); err != nil {
		return models.StatusDocument{}, err
	}
	return models.NewStatusDocument(s.store.Snapshot(), s.cfg.Get()), nil
}

func (s *MonitoringService) Snapshot() models.HeaterStatus {
	return s.store.Snapshot()
}

// Version changes on every status update.
func (s *MonitoringService) Version() uint64 {
	return s.store.Version()
}
