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

// Package onvif manages ONVIF control sessions for cameras: connecting,
// caching initialized sessions, PTZ control and WS-Discovery.
package onvif

//go:generate mockgen -destination=mock_onvif.go -package=onvif github.com/carverauto/camview/pkg/onvif Session,Dialer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goonvif "github.com/use-go/onvif"
	"github.com/use-go/onvif/media"
	"github.com/use-go/onvif/ptz"
	"github.com/use-go/onvif/xsd"
	xonvif "github.com/use-go/onvif/xsd/onvif"

	"github.com/carverauto/camview/pkg/models"
)

const (
	defaultDialTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
)

// Session is an initialized control session with one device.
type Session interface {
	// StreamURI returns the RTSP URI of the first media profile.
	StreamURI(ctx context.Context) (string, error)
	// ControlAddress returns the PTZ service address, or "" when the device
	// has no PTZ service.
	ControlAddress() string
	ContinuousMove(ctx context.Context, pan, tilt, zoom float64) error
	Stop(ctx context.Context) error
}

// Dialer connects to a device and runs the initialization handshake.
type Dialer interface {
	Dial(ctx context.Context, address, username, password string) (Session, error)
}

// DeviceDialer dials devices with github.com/use-go/onvif.
type DeviceDialer struct {
	Timeout time.Duration
}

var _ Dialer = DeviceDialer{}

// hostPort reduces a device service URL to the host:port the ONVIF client
// expects. Bare host:port values pass through.
func hostPort(address string) (string, error) {
	if !strings.Contains(address, "://") {
		if address == "" {
			return "", fmt.Errorf("%w: control address is empty", models.ErrValidation)
		}

		return address, nil
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("%w: control address %q: %w", models.ErrValidation, address, err)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: control address %q has no host", models.ErrValidation, address)
	}

	return u.Host, nil
}

func (d DeviceDialer) Dial(ctx context.Context, address, username, password string) (Session, error) {
	xaddr, err := hostPort(address)
	if err != nil {
		return nil, err
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	type result struct {
		dev *goonvif.Device
		err error
	}

	done := make(chan result, 1)

	go func() {
		dev, err := goonvif.NewDevice(goonvif.DeviceParams{
			Xaddr:      xaddr,
			Username:   username,
			Password:   password,
			HttpClient: &http.Client{Timeout: timeout},
		})
		done <- result{dev: dev, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: connect %s: %w", models.ErrUpstreamConnection, xaddr, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: connect %s: %w", models.ErrUpstreamConnection, xaddr, res.err)
		}

		return &deviceSession{dev: res.dev, xaddr: xaddr}, nil
	}
}

type deviceSession struct {
	dev   *goonvif.Device
	xaddr string
}

func (s *deviceSession) ControlAddress() string {
	return s.dev.GetServices()["ptz"]
}

func (s *deviceSession) call(ctx context.Context, method interface{}, out interface{}) error {
	type result struct {
		body []byte
		err  error
	}

	done := make(chan result, 1)

	go func() {
		resp, err := s.dev.CallMethod(method)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err == nil && resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("device returned %s: %s", resp.Status, faultReason(body))
		}

		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", models.ErrUpstreamConnection, s.xaddr, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("%w: %s: %w", models.ErrUpstreamConnection, s.xaddr, res.err)
		}

		if out == nil {
			return nil
		}

		if err := xml.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("%w: %s: decode response: %w", models.ErrUpstreamConnection, s.xaddr, err)
		}

		return nil
	}
}

func (s *deviceSession) firstProfile(ctx context.Context) (string, error) {
	var env profilesEnvelope
	if err := s.call(ctx, media.GetProfiles{}, &env); err != nil {
		return "", err
	}

	for _, p := range env.Body.Response.Profiles {
		if p.Token != "" {
			return p.Token, nil
		}
	}

	return "", fmt.Errorf("%w: %s reported no media profiles", models.ErrUpstreamConnection, s.xaddr)
}

func (s *deviceSession) StreamURI(ctx context.Context) (string, error) {
	token, err := s.firstProfile(ctx)
	if err != nil {
		return "", err
	}

	var env streamURIEnvelope
	if err := s.call(ctx, media.GetStreamUri{
		StreamSetup: xonvif.StreamSetup{
			Stream:    xonvif.StreamType("RTP-Unicast"),
			Transport: xonvif.Transport{Protocol: xonvif.TransportProtocol("RTSP")},
		},
		ProfileToken: xonvif.ReferenceToken(token),
	}, &env); err != nil {
		return "", err
	}

	uri := strings.TrimSpace(env.Body.Response.MediaURI.URI)
	if uri == "" {
		return "", fmt.Errorf("%w: %s returned an empty stream uri", models.ErrUpstreamConnection, s.xaddr)
	}

	return uri, nil
}

func (s *deviceSession) ContinuousMove(ctx context.Context, pan, tilt, zoom float64) error {
	token, err := s.firstProfile(ctx)
	if err != nil {
		return err
	}

	return s.call(ctx, ptz.ContinuousMove{
		ProfileToken: xonvif.ReferenceToken(token),
		Velocity: xonvif.PTZSpeed{
			PanTilt: xonvif.Vector2D{X: pan, Y: tilt},
			Zoom:    xonvif.Vector1D{X: zoom},
		},
	}, nil)
}

func (s *deviceSession) Stop(ctx context.Context) error {
	token, err := s.firstProfile(ctx)
	if err != nil {
		return err
	}

	return s.call(ctx, ptz.Stop{
		ProfileToken: xonvif.ReferenceToken(token),
		PanTilt:      xsd.Boolean(true),
		Zoom:         xsd.Boolean(true),
	}, nil)
}

type profilesEnvelope struct {
	Body struct {
		Response struct {
			Profiles []struct {
				Token string `xml:"token,attr"`
				Name  string `xml:"Name"`
			} `xml:"Profiles"`
		} `xml:"GetProfilesResponse"`
	} `xml:"Body"`
}

type streamURIEnvelope struct {
	Body struct {
		Response struct {
			MediaURI struct {
				URI string `xml:"Uri"`
			} `xml:"MediaUri"`
		} `xml:"GetStreamUriResponse"`
	} `xml:"Body"`
}

type faultEnvelope struct {
	Body struct {
		Fault struct {
			Reason string `xml:"Reason>Text"`
			String string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// faultReason extracts a readable SOAP fault reason from body.
func faultReason(body []byte) string {
	var env faultEnvelope
	if err := xml.Unmarshal(body, &env); err == nil {
		if reason := strings.TrimSpace(env.Body.Fault.Reason); reason != "" {
			return reason
		}

		if reason := strings.TrimSpace(env.Body.Fault.String); reason != "" {
			return reason
		}
	}

	return "no fault detail"
}
