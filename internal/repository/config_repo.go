package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"heater_controller/internal/models"
)

type ConfigSQLite struct {
	db *sql.DB
}

func NewConfigSQLite(db *sql.DB) *ConfigSQLite {
	return &ConfigSQLite{db: db}
}

var _ ConfigRepo = (*ConfigSQLite)(nil)

const (
	heaterConfigRowID = 1

	upsertConfigSQL = `
		INSERT INTO heater_config (id, doc, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc=excluded.doc,
			updated_at=excluded.updated_at
	`

	selectConfigSQL = `SELECT doc FROM heater_config WHERE id=?`
)

// Save replaces the single heater_config row (id always 1).
func (r *ConfigSQLite) Save(ctx context.Context, doc models.ConfigDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, upsertConfigSQL, heaterConfigRowID, string(b), formatTime(time.Now())); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Load reads the heater_config row. It returns ErrConfigNotFound when the row
// is missing.
func (r *ConfigSQLite) Load(ctx context.Context) (models.ConfigPatch, error) {
	var raw string
	if err := r.db.QueryRowContext(ctx, selectConfigSQL, heaterConfigRowID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ConfigPatch{}, ErrConfigNotFound
		}
		return models.ConfigPatch{}, fmt.Errorf("load config: %w", err)
	}

	var p models.ConfigPatch
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.ConfigPatch{}, fmt.Errorf("decode stored config: %w", err)
	}
	return p, nil
}
