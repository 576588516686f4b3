package repository

import (
	"context"
	"fmt"
	"time"

	"heater_controller/internal/models"

	"github.com/jmoiron/sqlx"
)

// HistorySQLite stores periodic status snapshots in status_history.
type HistorySQLite struct {
	db *sqlx.DB
}

func NewHistorySQLite(db *sqlx.DB) *HistorySQLite { return &HistorySQLite{db: db} }

var _ HistoryRepo = (*HistorySQLite)(nil)

const (
	historyColumns = `recorded_at, target, fnt, bck, top, bot, chip, rem, out, one_set, two_set, one_pwr, two_pwr, safe`

	insertHistorySQL = `INSERT INTO status_history (` + historyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	pruneHistorySQL = `DELETE FROM status_history WHERE recorded_at < ?`
)

func (r *HistorySQLite) Append(ctx context.Context, rec models.HistoryRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertHistorySQL,
		formatTime(rec.RecordedAt),
		rec.Target,
		rec.Fnt, rec.Bck, rec.Top, rec.Bot, rec.Chip, rec.Rem, rec.Out,
		rec.OneSet, rec.TwoSet, rec.OnePwr, rec.TwoPwr,
		rec.Safe,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns snapshots in [from, to], oldest first. Zero bounds are open and
// limit <= 0 means no limit.
func (r *HistorySQLite) List(ctx context.Context, from, to time.Time, limit int) ([]models.HistoryRecord, error) {
	conds, args := timeRange("recorded_at", from, to)
	q := `SELECT ` + historyColumns + ` FROM status_history` + where(conds) + " ORDER BY recorded_at ASC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	out := []models.HistoryRecord{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	for i := range out {
		out[i].RecordedAt = out[i].RecordedAt.UTC()
	}
	return out, nil
}

// Prune deletes snapshots older than before and reports how many went.
func (r *HistorySQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneHistorySQL, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history rows affected: %w", err)
	}
	return n, nil
}
