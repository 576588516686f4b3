package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"heater_controller/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventSQLite stores the event log in heater_events.
type EventSQLite struct {
	db *sqlx.DB
}

func NewEventSQLite(db *sqlx.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

const (
	insertEventSQL = `INSERT INTO heater_events (id, occurred_at, type, message, meta) VALUES (?, ?, ?, ?, ?)`
	selectEventSQL = `SELECT id, occurred_at, type, message, meta FROM heater_events`
)

type eventRow struct {
	ID         string         `db:"id"`
	OccurredAt time.Time      `db:"occurred_at"`
	Type       string         `db:"type"`
	Message    string         `db:"message"`
	Meta       sql.NullString `db:"meta"`
}

// event decodes the metadata column. Text that is not JSON is returned as is.
func (r eventRow) event() models.HeaterEvent {
	ev := models.HeaterEvent{
		EventID:     r.ID,
		OccurredAt:  r.OccurredAt.UTC(),
		Type:        r.Type,
		Description: r.Message,
	}
	if r.Meta.Valid && r.Meta.String != "" {
		var v any
		if err := json.Unmarshal([]byte(r.Meta.String), &v); err == nil {
			ev.Metadata = v
		} else {
			ev.Metadata = r.Meta.String
		}
	}
	return ev
}

// Append inserts a new event. A missing EventID or OccurredAt is filled in.
// Metadata that cannot be encoded is dropped.
func (r *EventSQLite) Append(ctx context.Context, e models.HeaterEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	var meta sql.NullString
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = sql.NullString{String: string(b), Valid: true}
		}
	}
	typ := strings.ToUpper(strings.TrimSpace(e.Type))
	if _, err := r.db.ExecContext(ctx, insertEventSQL, e.EventID, formatTime(e.OccurredAt), typ, e.Description, meta); err != nil {
		return fmt.Errorf("insert event %s: %w", typ, err)
	}
	return nil
}

// List returns events in [from, to] (either bound may be zero) and of type
// typ when non-empty, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.HeaterEvent, error) {
	conds, args := timeRange("occurred_at", from, to)
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	q := selectEventSQL + where(conds) + " ORDER BY occurred_at ASC"

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	out := make([]models.HeaterEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.event())
	}
	return out, nil
}
