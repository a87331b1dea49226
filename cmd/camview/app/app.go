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

// Package app wires the camview service together and runs it until the
// context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/camview/pkg/api"
	"github.com/carverauto/camview/pkg/capture"
	"github.com/carverauto/camview/pkg/config"
	"github.com/carverauto/camview/pkg/db"
	"github.com/carverauto/camview/pkg/events"
	"github.com/carverauto/camview/pkg/feedprobe"
	"github.com/carverauto/camview/pkg/lifecycle"
	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/onvif"
	"github.com/carverauto/camview/pkg/registry"
	"github.com/carverauto/camview/pkg/relay"
	"github.com/carverauto/camview/pkg/settings"
	"github.com/carverauto/camview/pkg/transcoder"
	"github.com/carverauto/camview/pkg/version"
	"github.com/carverauto/camview/pkg/vision"
)

const serviceName = "camview"

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
}

// LoadConfig reads, defaults and validates the service configuration.
func LoadConfig(ctx context.Context, path string) (*models.ServiceConfig, error) {
	var cfg models.ServiceConfig

	if err := config.NewConfig(nil).LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// Run boots the service and blocks until ctx is cancelled or a component fails.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, "camview-main", cfg.Logging)
	if err != nil {
		return err
	}

	defer func() {
		if shutdownErr := lifecycle.ShutdownLogger(); shutdownErr != nil {
			mainLogger.Error().Err(shutdownErr).Msg("Error shutting down logger")
		}
	}()

	tp, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName: serviceName,
		Logger:      mainLogger,
		OTel:        &cfg.Logging.OTel,
	})
	if err != nil {
		return err
	}

	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			mainLogger.Error().Err(err).Msg("Error shutting down tracer provider")
		}
	}()

	mp, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName: serviceName,
		OTel:        &cfg.Logging.OTel,
	})

	switch {
	case errors.Is(err, logger.ErrOTelMetricsDisabled):
	case err != nil:
		return err
	default:
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				mainLogger.Error().Err(err).Msg("Error shutting down meter provider")
			}
		}()
	}

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting camview")

	pool, err := db.NewPool(ctx, &cfg.Database, lifecycle.Child(mainLogger, "db"))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, lifecycle.Child(mainLogger, "db")); err != nil {
		return err
	}

	settingsSvc := settings.New(db.NewSettings(pool), &cfg.Vision, lifecycle.Child(mainLogger, "settings"))
	if err := settingsSvc.Seed(ctx); err != nil {
		return err
	}

	publisher, closeEvents, err := newPublisher(ctx, cfg, mainLogger)
	if err != nil {
		return err
	}
	defer closeEvents()

	cache := onvif.NewCache(onvif.DeviceDialer{}, lifecycle.Child(mainLogger, "onvif"))

	cameras := registry.New(db.NewCameras(pool), cache, &cfg.ONVIF,
		lifecycle.Child(mainLogger, "registry"), registry.WithPublisher(publisher))

	launcher := transcoder.NewExecLauncher(&cfg.Transcoder, lifecycle.Child(mainLogger, "transcoder"))

	streams := relay.New(&cfg.Relay, &cfg.Transcoder, cameras, settingsSvc, launcher,
		lifecycle.Child(mainLogger, "relay"), relay.WithPublisher(publisher))
	cameras.SetStreamStopper(streams)

	capturer := capture.New(&cfg.Capture, &cfg.Transcoder, cameras, launcher, lifecycle.Child(mainLogger, "capture"))

	apiServer := api.NewAPIServer(cfg.CORS, lifecycle.Child(mainLogger, "api"),
		api.WithCameras(cameras),
		api.WithRelay(streams),
		api.WithCapturer(capturer),
		api.WithSettings(settingsSvc),
		api.WithVision(vision.New(capturer, settingsSvc, &cfg.Vision, lifecycle.Child(mainLogger, "vision"))),
		api.WithProber(feedprobe.NewProber(0, lifecycle.Child(mainLogger, "feedprobe"))),
		api.WithDiscoverer(onvif.NewDiscoverer(&cfg.ONVIF, lifecycle.Child(mainLogger, "discovery"))),
	)

	if n, err := cameras.Reconnect(ctx); err != nil {
		mainLogger.Warn().Err(err).Msg("Failed to reconnect cameras at startup")
	} else {
		mainLogger.Info().Int("connected", n).Msg("Reconnected cameras")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return streams.Run(gctx)
	})

	g.Go(func() error {
		return apiServer.Start(gctx, cfg.ListenAddr)
	})

	err = g.Wait()

	if closeErr := streams.Close(); closeErr != nil {
		mainLogger.Warn().Err(closeErr).Msg("Error closing stream relay")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	mainLogger.Info().Msg("camview stopped")

	return nil
}

// newPublisher connects to NATS when events are enabled. The returned close
// function is always safe to call.
func newPublisher(ctx context.Context, cfg *models.ServiceConfig, log logger.Logger) (events.Publisher, func(), error) {
	if cfg.Events == nil || !cfg.Events.Enabled {
		log.Info().Msg("Event publishing disabled")
		return events.NopPublisher{}, func() {}, nil
	}

	eventsLog := lifecycle.Child(log, "events")

	nc, err := events.Connect(ctx, cfg.NATS, eventsLog)
	if err != nil {
		return nil, nil, err
	}

	domain := ""
	if cfg.NATS != nil {
		domain = cfg.NATS.Domain
	}

	pub, err := events.CreateEventPublisher(ctx, nc, domain, cfg.Events.StreamName, cfg.Events.Subjects, eventsLog)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return pub, func() {
		if err := nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection")
		}
	}, nil
}
