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

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/carverauto/camview/pkg/logger"
)

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("5s") or a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ServiceConfig is the configuration for the camview service.
type ServiceConfig struct {
	ListenAddr string           `json:"listen_addr"`
	CORS       CORSConfig       `json:"cors,omitempty"`
	Database   DatabaseConfig   `json:"database"`
	NATS       *NATSConfig      `json:"nats,omitempty"`
	Events     *EventsConfig    `json:"events,omitempty"`
	Logging    *logger.Config   `json:"logging,omitempty"`
	Relay      RelayConfig      `json:"relay"`
	Capture    CaptureConfig    `json:"capture"`
	Transcoder TranscoderConfig `json:"transcoder"`
	ONVIF      ONVIFConfig      `json:"onvif"`
	Vision     VisionConfig     `json:"vision"`
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins,omitempty"`
	AllowCredentials bool     `json:"allow_credentials,omitempty"`
}

// TLSConfig points at client certificate material.
type TLSConfig struct {
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file,omitempty"`
}

// DatabaseConfig describes the Postgres database holding cameras and settings.
type DatabaseConfig struct {
	Host               string            `json:"host"`
	Port               int               `json:"port,omitempty"`
	Database           string            `json:"database"`
	Username           string            `json:"username,omitempty"`
	Password           string            `json:"password,omitempty"`
	SSLMode            string            `json:"ssl_mode,omitempty"`
	ApplicationName    string            `json:"application_name,omitempty"`
	CertDir            string            `json:"cert_dir,omitempty"`
	TLS                *TLSConfig        `json:"tls,omitempty"`
	MaxConnections     int32             `json:"max_connections,omitempty"`
	MinConnections     int32             `json:"min_connections,omitempty"`
	MaxConnLifetime    Duration          `json:"max_conn_lifetime,omitempty"`
	HealthCheckPeriod  Duration          `json:"health_check_period,omitempty"`
	StatementTimeout   Duration          `json:"statement_timeout,omitempty"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params,omitempty"`
}

// NATSConfig holds the NATS connection settings.
type NATSConfig struct {
	URL    string     `json:"url"`
	Domain string     `json:"domain,omitempty"`
	TLS    *TLSConfig `json:"tls,omitempty"`
}

// EventsConfig controls lifecycle event publishing.
type EventsConfig struct {
	Enabled    bool     `json:"enabled"`
	StreamName string   `json:"stream_name"`
	Subjects   []string `json:"subjects"`
}

// RelayConfig tunes the stream relay.
type RelayConfig struct {
	ReplayChunks  int      `json:"replay_chunks"`
	IdleTimeout   Duration `json:"idle_timeout"`
	SweepInterval Duration `json:"sweep_interval"`
	ViewerQueue   int      `json:"viewer_queue"`
	ReadSize      int      `json:"read_size"`
}

// CaptureConfig tunes still-frame capture.
type CaptureConfig struct {
	Timeout   Duration `json:"timeout"`
	MinFrames int      `json:"min_frames"`
	MaxFrames int      `json:"max_frames"`
}

// TranscoderConfig holds the ffmpeg invocation profiles.
type TranscoderConfig struct {
	FFmpegPath      string `json:"ffmpeg_path"`
	RTSPTransport   string `json:"rtsp_transport"`
	BufferSize      int    `json:"buffer_size"`
	Quality         int    `json:"quality"`
	FrameRate       int    `json:"frame_rate"`
	Resolution      string `json:"resolution"`
	SnapshotQuality int    `json:"snapshot_quality"`
	StderrLines     int    `json:"stderr_lines"`
}

// ONVIFConfig holds camera control defaults.
type ONVIFConfig struct {
	DefaultPort      int      `json:"default_port"`
	DefaultRTSPPort  int      `json:"default_rtsp_port"`
	DiscoveryTimeout Duration `json:"discovery_timeout"`
	Interface        string   `json:"interface"`
}

// VisionConfig holds vision-model defaults used when no setting is stored.
type VisionConfig struct {
	DefaultHost    string   `json:"default_host,omitempty"`
	DefaultModel   string   `json:"default_model,omitempty"`
	FrameInterval  Duration `json:"frame_interval"`
	RequestTimeout Duration `json:"request_timeout"`
}

const (
	defaultListenAddr       = ":3001"
	defaultReplayChunks     = 50
	defaultIdleTimeout      = 60 * time.Second
	defaultSweepInterval    = time.Minute
	defaultViewerQueue      = 256
	defaultReadSize         = 32 * 1024
	defaultCaptureTimeout   = 15 * time.Second
	defaultMinFrames        = 1
	defaultMaxFrames        = 10
	defaultFFmpegPath       = "ffmpeg"
	defaultRTSPTransport    = "tcp"
	defaultBufferSize       = 1024000
	defaultQuality          = 5
	defaultFrameRate        = 10
	defaultResolution       = "640x480"
	defaultSnapshotQuality  = 2
	defaultStderrLines      = 20
	defaultONVIFPort        = 8899
	defaultRTSPPort         = 554
	defaultDiscoveryTimeout = 5 * time.Second
	defaultInterface        = "eth0"
	defaultFrameInterval    = time.Second
	defaultVisionTimeout    = 5 * time.Minute
)

// ApplyDefaults fills every unset tunable with its default value.
func (c *ServiceConfig) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	c.Relay.applyDefaults()
	c.Capture.applyDefaults()
	c.Transcoder.applyDefaults()
	c.ONVIF.applyDefaults()
	c.Vision.applyDefaults()
}

func (c *RelayConfig) applyDefaults() {
	if c.ReplayChunks == 0 {
		c.ReplayChunks = defaultReplayChunks
	}

	if c.IdleTimeout == 0 {
		c.IdleTimeout = Duration(defaultIdleTimeout)
	}

	if c.SweepInterval == 0 {
		c.SweepInterval = Duration(defaultSweepInterval)
	}

	if c.ViewerQueue == 0 {
		c.ViewerQueue = defaultViewerQueue
	}

	if c.ReadSize == 0 {
		c.ReadSize = defaultReadSize
	}
}

func (c *CaptureConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = Duration(defaultCaptureTimeout)
	}

	if c.MinFrames == 0 {
		c.MinFrames = defaultMinFrames
	}

	if c.MaxFrames == 0 {
		c.MaxFrames = defaultMaxFrames
	}
}

func (c *TranscoderConfig) applyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = defaultFFmpegPath
	}

	if c.RTSPTransport == "" {
		c.RTSPTransport = defaultRTSPTransport
	}

	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}

	if c.Quality == 0 {
		c.Quality = defaultQuality
	}

	if c.FrameRate == 0 {
		c.FrameRate = defaultFrameRate
	}

	if c.Resolution == "" {
		c.Resolution = defaultResolution
	}

	if c.SnapshotQuality == 0 {
		c.SnapshotQuality = defaultSnapshotQuality
	}

	if c.StderrLines == 0 {
		c.StderrLines = defaultStderrLines
	}
}

func (c *ONVIFConfig) applyDefaults() {
	if c.DefaultPort == 0 {
		c.DefaultPort = defaultONVIFPort
	}

	if c.DefaultRTSPPort == 0 {
		c.DefaultRTSPPort = defaultRTSPPort
	}

	if c.DiscoveryTimeout == 0 {
		c.DiscoveryTimeout = Duration(defaultDiscoveryTimeout)
	}

	if c.Interface == "" {
		c.Interface = defaultInterface
	}
}

func (c *VisionConfig) applyDefaults() {
	if c.FrameInterval == 0 {
		c.FrameInterval = Duration(defaultFrameInterval)
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(defaultVisionTimeout)
	}
}

// DefaultServiceConfig returns a configuration with every default applied.
func DefaultServiceConfig() *ServiceConfig {
	cfg := &ServiceConfig{}
	cfg.ApplyDefaults()

	return cfg
}

func (c *ServiceConfig) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	if c.Database.Host == "" {
		return errDatabaseHostRequired
	}

	if c.Database.Database == "" {
		return errDatabaseNameRequired
	}

	if c.NATS != nil && c.NATS.URL == "" {
		return errNATSURLRequired
	}

	if c.Events != nil && c.Events.Enabled && c.Events.StreamName == "" {
		return errStreamNameRequired
	}

	if c.Relay.ReplayChunks <= 0 {
		return errReplayChunksInvalid
	}

	if c.Relay.IdleTimeout <= 0 {
		return errIdleTimeoutInvalid
	}

	if c.Relay.SweepInterval <= 0 {
		return errSweepIntervalInvalid
	}

	if c.Capture.MinFrames < 1 || c.Capture.MinFrames > c.Capture.MaxFrames {
		return errCaptureBoundsInvalid
	}

	if c.Transcoder.FFmpegPath == "" {
		return errFFmpegPathRequired
	}

	if c.ONVIF.DefaultPort < 1 || c.ONVIF.DefaultPort > 65535 {
		return errONVIFPortInvalid
	}

	return nil
}
