/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Settings is the Postgres-backed SettingsStore over app_settings.
type Settings struct {
	q Querier
}

func NewSettings(q Querier) *Settings {
	return &Settings{q: q}
}

var _ SettingsStore = (*Settings)(nil)

// GetSetting reports the stored value and whether the key exists.
func (s *Settings) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, ErrSettingKeyEmpty
	}

	var value string

	err := s.q.QueryRow(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("%w setting %q: %w", ErrFailedToQuery, key, err)
	}

	return value, true, nil
}

func (s *Settings) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrSettingKeyEmpty
	}

	if _, err := s.q.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value); err != nil {
		return fmt.Errorf("%w setting %q: %w", ErrFailedToInsert, key, err)
	}

	return nil
}

func (s *Settings) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.q.Query(ctx, `SELECT key, value FROM app_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%w settings: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	settings := make(map[string]string)

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w setting: %w", ErrFailedToScan, err)
		}

		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w settings: %w", ErrFailedToQuery, err)
	}

	return settings, nil
}

// SeedSettings inserts defaults without overwriting values already stored.
func (s *Settings) SeedSettings(ctx context.Context, defaults map[string]string) error {
	for key, value := range defaults {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO app_settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING`,
			key, value); err != nil {
			return fmt.Errorf("%w default %q: %w", ErrFailedToInsert, key, err)
		}
	}

	return nil
}
