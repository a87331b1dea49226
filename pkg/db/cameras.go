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

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/camview/pkg/models"
)

const cameraColumns = `id, name, rtsp_url, onvif_url, username, password, created_at, updated_at`

// Cameras is the Postgres-backed CameraStore.
type Cameras struct {
	q Querier
}

// NewCameras returns a CameraStore over q.
func NewCameras(q Querier) *Cameras {
	return &Cameras{q: q}
}

var _ CameraStore = (*Cameras)(nil)

func (c *Cameras) ListCameras(ctx context.Context) ([]*models.Camera, error) {
	rows, err := c.q.Query(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w cameras: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	cameras := make([]*models.Camera, 0)

	for rows.Next() {
		camera, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}

		cameras = append(cameras, camera)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w cameras: %w", ErrFailedToQuery, err)
	}

	return cameras, nil
}

func (c *Cameras) GetCamera(ctx context.Context, id int64) (*models.Camera, error) {
	row := c.q.QueryRow(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1`, id)

	camera, err := scanCamera(row)
	if err != nil {
		return nil, notFoundOr(err, id)
	}

	return camera, nil
}

func (c *Cameras) CreateCamera(ctx context.Context, camera *models.Camera) (*models.Camera, error) {
	if camera == nil {
		return nil, ErrCameraNil
	}

	row := c.q.QueryRow(ctx, `
		INSERT INTO cameras (name, rtsp_url, onvif_url, username, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+cameraColumns,
		camera.Name, camera.RTSPURL, camera.ONVIFURL, camera.Username, camera.Password)

	created, err := scanCamera(row)
	if err != nil {
		return nil, fmt.Errorf("%w camera %q: %w", ErrFailedToInsert, camera.Name, err)
	}

	return created, nil
}

func (c *Cameras) UpdateCamera(ctx context.Context, id int64, update *models.CameraUpdate) (*models.Camera, error) {
	if update == nil {
		return nil, ErrCameraUpdateNil
	}

	row := c.q.QueryRow(ctx, `
		UPDATE cameras
		SET name = $2, rtsp_url = $3, onvif_url = $4, username = $5, password = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+cameraColumns,
		id, update.Name, update.RTSPURL, update.ONVIFURL, update.Username, update.Password)

	updated, err := scanCamera(row)
	if err != nil {
		return nil, notFoundOr(err, id)
	}

	return updated, nil
}

func (c *Cameras) DeleteCamera(ctx context.Context, id int64) error {
	tag, err := c.q.Exec(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete camera %d: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("camera %d: %w", id, models.ErrNotFound)
	}

	return nil
}

func scanCamera(row pgx.Row) (*models.Camera, error) {
	var camera models.Camera

	if err := row.Scan(
		&camera.ID,
		&camera.Name,
		&camera.RTSPURL,
		&camera.ONVIFURL,
		&camera.Username,
		&camera.Password,
		&camera.CreatedAt,
		&camera.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w camera: %w", ErrFailedToScan, err)
	}

	return &camera, nil
}

func notFoundOr(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("camera %d: %w", id, models.ErrNotFound)
	}

	return err
}
