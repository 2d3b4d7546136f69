package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys used by the mail engine
const (
	SettingFromEmail     = "mail_from_email"
	SettingFromName      = "mail_from_name"
	SettingInboundPort   = "mail_inbound_port"
	SettingCatchAll      = "mail_catch_all"
	SettingRelayHost     = "mail_relay_host"
	SettingRelayPort     = "mail_relay_port"
	SettingRelayUsername = "mail_relay_username"
	SettingRelayPassword = "mail_relay_password"
	SettingRelaySecure   = "mail_relay_secure"
)

// SettingsStorage is the settings collaborator: a key/value store for
// runtime-adjustable configuration.
type SettingsStorage struct {
	db *DB
}

// NewSettingsStorage creates a new settings storage instance
func NewSettingsStorage(db *DB) *SettingsStorage {
	return &SettingsStorage{db: db}
}

// Get returns the value for a key, or the fallback if the key is unset
func (s *SettingsStorage) Get(ctx context.Context, key, fallback string) string {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) || err != nil {
		return fallback
	}
	return value
}

// GetInt returns an integer setting, or the fallback on absence or bad data
func (s *SettingsStorage) GetInt(ctx context.Context, key string, fallback int) int {
	raw := s.Get(ctx, key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool returns a boolean setting, or the fallback on absence or bad data
func (s *SettingsStorage) GetBool(ctx context.Context, key string, fallback bool) bool {
	raw := s.Get(ctx, key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}

// Set stores a setting value
func (s *SettingsStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SeedDefault stores a value only if the key is not present yet. Used at
// startup to carry config-file defaults into the settings store.
func (s *SettingsStorage) SeedDefault(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", key, err)
	}
	return nil
}
