package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unitefour/unite4/internal/apperror"
)

// Well-known settings keys. Absence of any of them is tolerated with empty
// defaults at session start.
const (
	KeyUsername     = "username"
	KeyRelays       = "relays"
	KeyIdentitySeed = "identity-seed"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type settingsRepository struct {
	conn *sql.DB
}

func NewSettingsRepository(conn *sql.DB) SettingsRepository {
	return &settingsRepository{
		conn: conn,
	}
}

func (that *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ?`

	var value string

	err := that.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("can't read setting %q: %w", key, err)
	}

	return value, nil
}

func (that *settingsRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	_, err := that.conn.ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("can't save setting %q: %w", key, err)
	}

	return nil
}
