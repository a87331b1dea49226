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

package onvif

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

const (
	// DefaultMulticastAddr is the WS-Discovery multicast group.
	DefaultMulticastAddr = "239.255.255.250:3702"

	readBufferSize = 64 * 1024

	probeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:a="http://schemas.xmlsoap.org/ws/2004/08/addressing">
<s:Header>
<a:Action s:mustUnderstand="1">http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</a:Action>
<a:MessageID>uuid:%s</a:MessageID>
<a:ReplyTo><a:Address>http://schemas.xmlsoap.org/ws/2004/08/addressing/role/anonymous</a:Address></a:ReplyTo>
<a:To s:mustUnderstand="1">urn:schemas-xmlsoap-org:ws:2005:04:discovery</a:To>
</s:Header>
<s:Body>
<Probe xmlns="http://schemas.xmlsoap.org/ws/2005/04/discovery">
<d:Types xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery" xmlns:dn="http://www.onvif.org/ver10/network/wsdl">dn:NetworkVideoTransmitter</d:Types>
</Probe>
</s:Body>
</s:Envelope>`
)

var errNoIPv4 = errors.New("interface has no IPv4 address")

// Discoverer finds ONVIF devices on the local network with a WS-Discovery
// probe.
type Discoverer struct {
	// Interface names the NIC to probe from; empty uses the default route.
	Interface string
	// Timeout is how long replies are collected.
	Timeout time.Duration
	// MulticastAddr overrides the probe destination.
	MulticastAddr string

	Logger logger.Logger
}

func NewDiscoverer(cfg *models.ONVIFConfig, log logger.Logger) *Discoverer {
	return &Discoverer{
		Interface:     cfg.Interface,
		Timeout:       time.Duration(cfg.DiscoveryTimeout),
		MulticastAddr: DefaultMulticastAddr,
		Logger:        log,
	}
}

// Discover sends one probe and gathers replies until the timeout or ctx ends.
// Devices are de-duplicated by address.
func (d *Discoverer) Discover(ctx context.Context) ([]models.DiscoveredDevice, error) {
	target, err := net.ResolveUDPAddr("udp4", d.MulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: discovery address %q: %w", models.ErrConfiguration, d.MulticastAddr, err)
	}

	local, err := d.localAddr()
	if err != nil {
		d.Logger.Warn().Err(err).Str("interface", d.Interface).Msg("probing from default interface")
	}

	conn, err := net.ListenUDP("udp4", local)
	if err != nil {
		return nil, fmt.Errorf("%w: open discovery socket: %w", models.ErrUpstreamConnection, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(d.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUpstreamConnection, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.WriteToUDP([]byte(fmt.Sprintf(probeTemplate, uuid.New().String())), target); err != nil {
		return nil, fmt.Errorf("%w: send probe: %w", models.ErrUpstreamConnection, err)
	}

	found := make(map[string]models.DiscoveredDevice)
	buf := make([]byte, readBufferSize)

	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}

			return nil, fmt.Errorf("%w: read probe reply: %w", models.ErrUpstreamConnection, err)
		}

		devices, err := parseProbeMatches(buf[:n])
		if err != nil {
			d.Logger.Debug().Err(err).Str("from", from.String()).Msg("ignoring malformed probe reply")
			continue
		}

		for _, dev := range devices {
			found[dev.Address] = dev
		}
	}

	out := make([]models.DiscoveredDevice, 0, len(found))
	for _, dev := range found {
		out = append(out, dev)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })

	d.Logger.Info().Int("devices", len(out)).Msg("ONVIF discovery finished")

	return out, nil
}

func (d *Discoverer) localAddr() (*net.UDPAddr, error) {
	if d.Interface == "" {
		return nil, nil
	}

	iface, err := net.InterfaceByName(d.Interface)
	if err != nil {
		return nil, err
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.To4() != nil {
			return &net.UDPAddr{IP: ipNet.IP}, nil
		}
	}

	return nil, errNoIPv4
}

type probeMatchesEnvelope struct {
	Body struct {
		ProbeMatches struct {
			Matches []struct {
				Address string `xml:"EndpointReference>Address"`
				Scopes  string `xml:"Scopes"`
				XAddrs  string `xml:"XAddrs"`
			} `xml:"ProbeMatch"`
		} `xml:"ProbeMatches"`
	} `xml:"Body"`
}

func parseProbeMatches(payload []byte) ([]models.DiscoveredDevice, error) {
	var env probeMatchesEnvelope
	if err := xml.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	var out []models.DiscoveredDevice

	for _, match := range env.Body.ProbeMatches.Matches {
		xaddrs := strings.Fields(match.XAddrs)
		if len(xaddrs) == 0 {
			continue
		}

		dev := models.DiscoveredDevice{
			Address:    xaddrs[0],
			HardwareID: strings.TrimSpace(match.Address),
		}

		applyScopes(&dev, match.Scopes)
		out = append(out, dev)
	}

	return out, nil
}

// applyScopes fills vendor details from onvif://www.onvif.org/<kind>/<value>
// scope URIs.
func applyScopes(dev *models.DiscoveredDevice, scopes string) {
	for _, scope := range strings.Fields(scopes) {
		rest, ok := strings.CutPrefix(scope, "onvif://www.onvif.org/")
		if !ok {
			continue
		}

		kind, value, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}

		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}

		switch kind {
		case "name":
			dev.Manufacturer = value
		case "hardware":
			dev.Model = value
		}
	}
}
