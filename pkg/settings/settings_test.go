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

package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/camview/pkg/db"
	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

func newService(t *testing.T, vision *models.VisionConfig) (*Service, *db.MockSettingsStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := db.NewMockSettingsStore(ctrl)

	return New(store, vision, logger.NewTestLogger()), store
}

func TestKeepStreamsOpen(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
		err   error
		want  bool
	}{
		{name: "true", value: "true", ok: true, want: true},
		{name: "padded", value: " TRUE ", ok: true, want: true},
		{name: "false", value: "false", ok: true},
		{name: "garbage", value: "sometimes", ok: true},
		{name: "absent"},
		{name: "store error", err: errors.New("connection reset")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newService(t, nil)
			store.EXPECT().GetSetting(gomock.Any(), models.SettingKeepStreamsOpen).Return(tc.value, tc.ok, tc.err)

			assert.Equal(t, tc.want, svc.KeepStreamsOpen(context.Background()))
		})
	}
}

func TestVisionHostFallsBackToConfig(t *testing.T) {
	svc, store := newService(t, &models.VisionConfig{DefaultHost: "http://ollama:11434", DefaultModel: "llava"})

	gomock.InOrder(
		store.EXPECT().GetSetting(gomock.Any(), models.SettingOllamaHost).Return("", false, nil),
		store.EXPECT().GetSetting(gomock.Any(), models.SettingOllamaHost).Return("http://gpu:11434", true, nil),
		store.EXPECT().GetSetting(gomock.Any(), models.SettingOllamaModel).Return("  ", true, nil),
	)

	host, err := svc.VisionHost(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://ollama:11434", host)

	host, err = svc.VisionHost(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://gpu:11434", host)

	model, err := svc.VisionModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "llava", model)
}

func TestVisionModelStoreError(t *testing.T) {
	svc, store := newService(t, nil)
	store.EXPECT().GetSetting(gomock.Any(), models.SettingOllamaModel).Return("", false, errors.New("boom"))

	_, err := svc.VisionModel(context.Background())
	require.Error(t, err)
}

func TestAllFillsKnownKeys(t *testing.T) {
	svc, store := newService(t, &models.VisionConfig{DefaultModel: "llava"})
	store.EXPECT().ListSettings(gomock.Any()).Return(map[string]string{
		models.SettingKeepStreamsOpen: "true",
		"theme":                       "dark",
	}, nil)

	all, err := svc.All(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		models.SettingKeepStreamsOpen: "true",
		models.SettingOllamaHost:      "",
		models.SettingOllamaModel:     "llava",
		"theme":                       "dark",
	}, all)
}

func TestSet(t *testing.T) {
	svc, store := newService(t, nil)
	store.EXPECT().SetSetting(gomock.Any(), models.SettingKeepStreamsOpen, "true").Return(nil)

	require.NoError(t, svc.Set(context.Background(), models.SettingKeepStreamsOpen, "true"))
	require.ErrorIs(t, svc.Set(context.Background(), " ", "x"), models.ErrValidation)
}

func TestSeed(t *testing.T) {
	svc, store := newService(t, &models.VisionConfig{DefaultHost: "http://ollama:11434"})
	store.EXPECT().SeedSettings(gomock.Any(), map[string]string{
		models.SettingKeepStreamsOpen: "false",
		models.SettingOllamaHost:      "http://ollama:11434",
	}).Return(nil)

	require.NoError(t, svc.Seed(context.Background()))
}
