package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heater_controller/internal/models"
	"heater_controller/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown event type")
)

// EventLogService answers event log queries.
type EventLogService struct {
	repo repository.EventRepo
}

func NewEventLogService(repo repository.EventRepo) *EventLogService {
	return &EventLogService{repo: repo}
}

// List returns the events in [f.From, f.To] of type f.Type. Bounds are
// compared in UTC and the type is matched case-insensitively.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.HeaterEvent, error) {
	from, to := normalizeToUTC(f.From), normalizeToUTC(f.To)
	if !validRange(from, to) {
		return nil, ErrInvalidTimeRange
	}
	typ := strings.ToUpper(strings.TrimSpace(f.Type))
	if typ != "" && !models.IsEventType(typ) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
	}
	return s.repo.List(ctx, from, to, typ)
}

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// validRange treats a zero bound as open.
func validRange(from, to time.Time) bool {
	return from.IsZero() || to.IsZero() || !from.After(to)
}
