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

package lifecycle

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camview/pkg/logger"
)

func TestCreateComponentLogger(t *testing.T) {
	l, err := CreateComponentLogger(context.Background(), "relay", &logger.Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)

	impl, ok := l.(*LoggerImpl)
	require.True(t, ok)
	assert.Equal(t, zerolog.WarnLevel, impl.logger.GetLevel())
}

func TestCreateComponentLoggerBadLevel(t *testing.T) {
	_, err := CreateComponentLogger(context.Background(), "relay", &logger.Config{Level: "chatty"})
	require.Error(t, err)
}

func TestSetDebugToggles(t *testing.T) {
	impl, err := NewLoggerImpl(context.Background(), &logger.Config{Level: "info"})
	require.NoError(t, err)

	impl.SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, impl.logger.GetLevel())

	impl.SetDebug(false)
	assert.Equal(t, zerolog.InfoLevel, impl.logger.GetLevel())
}

func TestChildKeepsParentLevel(t *testing.T) {
	parent, err := NewLoggerImpl(context.Background(), &logger.Config{Level: "error"})
	require.NoError(t, err)

	child := Child(parent, "capture")
	assert.Equal(t, zerolog.ErrorLevel, child.(*LoggerImpl).logger.GetLevel())
}
