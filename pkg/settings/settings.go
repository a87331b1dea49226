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

// Package settings gives typed access to the persisted application settings.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/camview/pkg/db"
	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

// Service reads and writes settings through a db.SettingsStore. Vision
// defaults from configuration apply to keys that were never stored.
type Service struct {
	store    db.SettingsStore
	defaults models.VisionConfig
	log      logger.Logger
}

func New(store db.SettingsStore, vision *models.VisionConfig, log logger.Logger) *Service {
	s := &Service{store: store, log: log}
	if vision != nil {
		s.defaults = *vision
	}

	return s
}

// Seed stores the default value of every known key that is not yet set.
func (s *Service) Seed(ctx context.Context) error {
	defaults := map[string]string{
		models.SettingKeepStreamsOpen: "false",
	}

	if s.defaults.DefaultHost != "" {
		defaults[models.SettingOllamaHost] = s.defaults.DefaultHost
	}

	if s.defaults.DefaultModel != "" {
		defaults[models.SettingOllamaModel] = s.defaults.DefaultModel
	}

	if err := s.store.SeedSettings(ctx, defaults); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	return nil
}

// All returns every stored setting. The known keys are always present, empty
// when neither stored nor configured.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(stored)+3)
	for k, v := range stored {
		out[k] = v
	}

	if _, ok := out[models.SettingKeepStreamsOpen]; !ok {
		out[models.SettingKeepStreamsOpen] = "false"
	}

	if _, ok := out[models.SettingOllamaHost]; !ok {
		out[models.SettingOllamaHost] = s.defaults.DefaultHost
	}

	if _, ok := out[models.SettingOllamaModel]; !ok {
		out[models.SettingOllamaModel] = s.defaults.DefaultModel
	}

	return out, nil
}

// Get returns the stored value of key.
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.GetSetting(ctx, key)
}

// Set stores value under key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: setting key is required", models.ErrValidation)
	}

	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return err
	}

	s.log.Info().Str("key", key).Msg("setting updated")

	return nil
}

// KeepStreamsOpen reports whether relay entries outlive their last viewer.
// Read errors and unparsable values count as false.
func (s *Service) KeepStreamsOpen(ctx context.Context) bool {
	value, ok, err := s.store.GetSetting(ctx, models.SettingKeepStreamsOpen)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read keep_streams_open, assuming false")
		return false
	}

	if !ok {
		return false
	}

	keep, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false
	}

	return keep
}

// VisionHost is the Ollama base URL.
func (s *Service) VisionHost(ctx context.Context) (string, error) {
	return s.withDefault(ctx, models.SettingOllamaHost, s.defaults.DefaultHost)
}

// VisionModel is the Ollama model name.
func (s *Service) VisionModel(ctx context.Context) (string, error) {
	return s.withDefault(ctx, models.SettingOllamaModel, s.defaults.DefaultModel)
}

func (s *Service) withDefault(ctx context.Context, key, fallback string) (string, error) {
	value, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}

	if ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), nil
	}

	return fallback, nil
}
