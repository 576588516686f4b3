package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"heater_controller/internal/models"
)

// listingEventRepo records the arguments of the last List call.
type listingEventRepo struct {
	from, to time.Time
	typ      string
	calls    int

	events []models.HeaterEvent
	err    error
}

func (r *listingEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.HeaterEvent, error) {
	r.calls++
	r.from, r.to, r.typ = from, to, typ
	return r.events, r.err
}

func (r *listingEventRepo) Append(context.Context, models.HeaterEvent) error { return nil }

func TestEventLogService_List(t *testing.T) {
	t.Parallel()
	plus5 := time.FixedZone("UTC+5", 5*3600)
	minus2 := time.FixedZone("UTC-2", -2*3600)

	cases := []struct {
		name     string
		filter   LogFilter
		wantErr  error
		wantFrom time.Time
		wantTo   time.Time
		wantType string
	}{
		{
			name:   "open_range_any_type",
			filter: LogFilter{},
		},
		{
			name: "bounds_converted_to_utc",
			filter: LogFilter{
				From: time.Date(2025, 10, 1, 10, 0, 0, 0, plus5),
				To:   time.Date(2025, 10, 1, 12, 30, 0, 0, minus2),
				Type: "  safety_trip ",
			},
			wantFrom: time.Date(2025, 10, 1, 5, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 10, 1, 14, 30, 0, 0, time.UTC),
			wantType: models.EventSafetyTrip,
		},
		{
			name:     "equal_bounds_allowed",
			filter:   LogFilter{From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Type: "preheat"},
			wantFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantType: models.EventPreheat,
		},
		{
			name:    "reversed_range",
			filter:  LogFilter{From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), To: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "unknown_type",
			filter:  LogFilter{Type: "boiler_start"},
			wantErr: ErrUnknownEventType,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &listingEventRepo{events: []models.HeaterEvent{{EventID: "e1"}}}
			out, err := NewEventLogService(repo).List(context.Background(), tc.filter)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if repo.calls != 0 {
					t.Fatalf("repo queried on invalid filter")
				}
				return
			}
			if err != nil || len(out) != 1 {
				t.Fatalf("List = %v, %v", out, err)
			}
			if !repo.from.Equal(tc.wantFrom) || !repo.to.Equal(tc.wantTo) || repo.typ != tc.wantType {
				t.Fatalf("repo got from=%v to=%v type=%q", repo.from, repo.to, repo.typ)
			}
			if !repo.from.IsZero() && repo.from.Location() != time.UTC {
				t.Fatalf("from not in UTC: %v", repo.from.Location())
			}
		})
	}
}

func TestEventLogService_RepoError(t *testing.T) {
	t.Parallel()
	boom := errors.New("database is locked")
	repo := &listingEventRepo{err: boom}

	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{Type: models.EventStart}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestIsEventType(t *testing.T) {
	t.Parallel()
	for _, typ := range models.EventTypes {
		if !models.IsEventType(typ) {
			t.Errorf("%s not recognised", typ)
		}
	}
	if models.IsEventType("start") || models.IsEventType("") {
		t.Fatalf("matching must be exact")
	}
}
