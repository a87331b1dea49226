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

// Package db persists cameras and settings in Postgres via pgx.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/camview/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/carverauto/camview/pkg/db CameraStore,SettingsStore

// Querier is the subset of *pgxpool.Pool the stores use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CameraStore persists camera records.
type CameraStore interface {
	ListCameras(ctx context.Context) ([]*models.Camera, error)
	GetCamera(ctx context.Context, id int64) (*models.Camera, error)
	CreateCamera(ctx context.Context, camera *models.Camera) (*models.Camera, error)
	UpdateCamera(ctx context.Context, id int64, update *models.CameraUpdate) (*models.Camera, error)
	DeleteCamera(ctx context.Context, id int64) error
}

// SettingsStore persists the key/value application settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
	SeedSettings(ctx context.Context, defaults map[string]string) error
}
