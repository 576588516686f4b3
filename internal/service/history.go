package service

import (
	"context"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/repository"
	"heater_controller/internal/status"
)

const (
	defaultHistoryLimit = 24 * 60
	maxHistoryLimit     = 10_000
)

// HistoryService snapshots the status periodically and serves the log.
type HistoryService struct {
	repo      repository.HistoryRepo
	store     *status.Store
	retention time.Duration
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewHistoryService(repo repository.HistoryRepo, store *status.Store, retention time.Duration,
	m *metrics.Metrics, log *logger.Logger, now func() time.Time) *HistoryService {
	return &HistoryService{repo: repo, store: store, retention: retention, metrics: m, log: log, now: now}
}

// Run snapshots every period until ctx is cancelled.
func (h *HistoryService) Run(ctx context.Context, period time.Duration) {
	RunPeriodic(ctx, "history", period, func(ctx context.Context) {
		if err := h.Snapshot(ctx); err != nil {
			h.log.Errorw("history_snapshot_failed", "err", err)
		}
	}, h.log, h.metrics)
}

// Snapshot stores the current status and drops rows past the retention.
func (h *HistoryService) Snapshot(ctx context.Context) error {
	now := h.now()
	if err := h.repo.Append(ctx, models.HistoryFromStatus(h.store.Snapshot(), now)); err != nil {
		return err
	}
	if h.retention <= 0 {
		return nil
	}
	n, err := h.repo.Prune(ctx, now.Add(-h.retention))
	if err != nil {
		return err
	}
	if n > 0 {
		h.log.Debugw("history_pruned", "rows", n)
	}
	return nil
}

// Records lists stored snapshots.
func (h *HistoryService) Records(ctx context.Context, f HistoryFilter) ([]models.HistoryRecord, error) {
	from, to := normalizeToUTC(f.From), normalizeToUTC(f.To)
	if !validRange(from, to) {
		return nil, ErrInvalidTimeRange
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	return h.repo.List(ctx, from, to, limit)
}
