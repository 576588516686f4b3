package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"heater_controller/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrConfigNotFound is returned by ConfigRepo.Load before the first Save.
var ErrConfigNotFound = errors.New("no persisted config")

// timeLayout is how timestamps are written to SQLite. It sorts lexically.
const timeLayout = "2006-01-02 15:04:05"

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type ConfigRepo interface {
	Save(ctx context.Context, doc models.ConfigDocument) error
	// Load returns the stored document as a patch, so fields missing from
	// an older document keep the caller's defaults.
	Load(ctx context.Context) (models.ConfigPatch, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.HeaterEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.HeaterEvent, error)
}

type HistoryRepo interface {
	Append(ctx context.Context, rec models.HistoryRecord) error
	List(ctx context.Context, from, to time.Time, limit int) ([]models.HistoryRecord, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Repository struct {
	ConfigRepo  ConfigRepo
	EventRepo   EventRepo
	HistoryRepo HistoryRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	x := sqlx.NewDb(db, sqlxDriverName)
	return &Repository{
		ConfigRepo:  NewConfigSQLite(db),
		EventRepo:   NewEventSQLite(x),
		HistoryRepo: NewHistorySQLite(x),
		Auth:        NewUserRepository(x),
	}
}

// sqlxDriverName only selects the "?" bind style; the connection itself is
// opened by db.InitDB with modernc.org/sqlite.
const sqlxDriverName = "sqlite3"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeRange builds the conditions for col in [from, to]. A zero bound is open.
func timeRange(col string, from, to time.Time) (conds []string, args []any) {
	if !from.IsZero() {
		conds = append(conds, col+" >= ?")
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, col+" <= ?")
		args = append(args, formatTime(to))
	}
	return conds, args
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
