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
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

func TestCacheReusesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := NewMockDialer(ctrl)
	sess := NewMockSession(ctrl)

	dialer.EXPECT().
		Dial(gomock.Any(), "http://10.0.0.5:8899/onvif/device_service", "admin", "pw").
		Return(sess, nil).
		Times(1)

	cache := NewCache(dialer, logger.NewTestLogger())

	first, err := cache.GetDevice(context.Background(), "http://10.0.0.5:8899/onvif/device_service", "admin", "pw", "camera-porch")
	require.NoError(t, err)

	// a different address under the same key still hits the cache
	second, err := cache.GetDevice(context.Background(), "http://10.0.0.9:80/onvif/ptz", "x", "y", "camera-porch")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheFailureIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := NewMockDialer(ctrl)
	sess := NewMockSession(ctrl)

	gomock.InOrder(
		dialer.EXPECT().Dial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("%w: timeout", models.ErrUpstreamConnection)),
		dialer.EXPECT().Dial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(sess, nil),
	)

	cache := NewCache(dialer, logger.NewTestLogger())

	_, err := cache.GetDevice(context.Background(), "10.0.0.5:8899", "", "", "camera-a")
	require.ErrorIs(t, err, models.ErrUpstreamConnection)
	assert.Equal(t, 0, cache.Len())

	got, err := cache.GetDevice(context.Background(), "10.0.0.5:8899", "", "", "camera-a")
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestCacheEvict(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := NewMockDialer(ctrl)

	dialer.EXPECT().Dial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, string) (Session, error) {
			return NewMockSession(ctrl), nil
		}).
		Times(2)

	cache := NewCache(dialer, logger.NewTestLogger())

	first, err := cache.GetDevice(context.Background(), "h:1", "", "", "camera-a")
	require.NoError(t, err)

	cache.Evict("camera-a")
	cache.Evict("camera-missing")
	assert.Equal(t, 0, cache.Len())

	second, err := cache.GetDevice(context.Background(), "h:1", "", "", "camera-a")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestCacheEmptyKeyBypassesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := NewMockDialer(ctrl)

	dialer.EXPECT().Dial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(NewMockSession(ctrl), nil).
		Times(2)

	cache := NewCache(dialer, logger.NewTestLogger())

	for i := 0; i < 2; i++ {
		_, err := cache.GetDevice(context.Background(), "h:1", "", "", "")
		require.NoError(t, err)
	}

	assert.Equal(t, 0, cache.Len())
}

type slowDialer struct {
	calls   atomic.Int32
	release chan struct{}
	sess    Session
}

func (d *slowDialer) Dial(context.Context, string, string, string) (Session, error) {
	d.calls.Add(1)
	<-d.release

	return d.sess, nil
}

func TestCacheConcurrentMissesShareOneDial(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := &slowDialer{release: make(chan struct{}), sess: NewMockSession(ctrl)}
	cache := NewCache(dialer, logger.NewTestLogger())

	const callers = 8

	var wg sync.WaitGroup

	results := make([]Session, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			sess, err := cache.GetDevice(context.Background(), "h:1", "", "", "camera-shared")
			assert.NoError(t, err)
			results[i] = sess
		}(i)
	}

	require.Eventually(t, func() bool { return dialer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(dialer.release)
	wg.Wait()

	assert.Equal(t, int32(1), dialer.calls.Load())

	for _, sess := range results {
		assert.Same(t, dialer.sess, sess)
	}
}

func TestCacheCallerCancelDoesNotCancelSharedDial(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := &slowDialer{release: make(chan struct{}), sess: NewMockSession(ctrl)}
	cache := NewCache(dialer, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		_, err := cache.GetDevice(ctx, "h:1", "", "", "camera-c")
		errCh <- err
	}()

	require.Eventually(t, func() bool { return dialer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(dialer.release)

	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestVelocityFor(t *testing.T) {
	tests := []struct {
		command string
		want    Velocity
		move    bool
	}{
		{models.PTZMoveUp, Velocity{Tilt: 0.5}, true},
		{models.PTZMoveDown, Velocity{Tilt: -0.5}, true},
		{models.PTZMoveLeft, Velocity{Pan: -0.5}, true},
		{models.PTZMoveRight, Velocity{Pan: 0.5}, true},
		{models.PTZZoomIn, Velocity{Zoom: 0.5}, true},
		{models.PTZZoomOut, Velocity{Zoom: -0.5}, true},
		{models.PTZStop, Velocity{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			got, move, err := VelocityFor(tc.command, 0.5)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.move, move)
		})
	}

	_, _, err := VelocityFor("spin", 1)
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestControl(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := NewMockSession(ctrl)

	sess.EXPECT().ContinuousMove(gomock.Any(), -0.3, 0.0, 0.0).Return(nil)
	sess.EXPECT().Stop(gomock.Any()).Return(errors.New("fault"))

	require.NoError(t, Control(context.Background(), sess, models.PTZCommand{Command: models.PTZMoveLeft, Speed: 0.3}))
	require.Error(t, Control(context.Background(), sess, models.PTZCommand{Command: models.PTZStop}))
	require.ErrorIs(t, Control(context.Background(), sess, models.PTZCommand{Command: "nope"}), models.ErrValidation)
}

func TestHostPort(t *testing.T) {
	got, err := hostPort("http://192.168.1.20:8899/onvif/device_service")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:8899", got)

	got, err = hostPort("192.168.1.20:80")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:80", got)

	_, err = hostPort("")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = hostPort("http:///nohost")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestFaultReason(t *testing.T) {
	body := []byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body><s:Fault>` +
		`<s:Reason><s:Text xml:lang="en">Sender not Authorized</s:Text></s:Reason></s:Fault></s:Body></s:Envelope>`)

	assert.Equal(t, "Sender not Authorized", faultReason(body))
	assert.Equal(t, "no fault detail", faultReason([]byte("garbage")))
}

const probeMatch = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope"
  xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing"
  xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery">
<SOAP-ENV:Body>
<d:ProbeMatches>
<d:ProbeMatch>
<wsa:EndpointReference><wsa:Address>urn:uuid:1419d68a-1dd2-11b2-a105-000000000001</wsa:Address></wsa:EndpointReference>
<d:Scopes>onvif://www.onvif.org/type/video_encoder onvif://www.onvif.org/name/ACME%20Cam onvif://www.onvif.org/hardware/PTZ-200</d:Scopes>
<d:XAddrs>http://192.168.1.20:8899/onvif/device_service http://[fe80::1]/onvif/device_service</d:XAddrs>
</d:ProbeMatch>
</d:ProbeMatches>
</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

func TestParseProbeMatches(t *testing.T) {
	devices, err := parseProbeMatches([]byte(probeMatch))
	require.NoError(t, err)
	require.Len(t, devices, 1)

	assert.Equal(t, "http://192.168.1.20:8899/onvif/device_service", devices[0].Address)
	assert.Equal(t, "ACME Cam", devices[0].Manufacturer)
	assert.Equal(t, "PTZ-200", devices[0].Model)
	assert.Equal(t, "urn:uuid:1419d68a-1dd2-11b2-a105-000000000001", devices[0].HardwareID)
}

func TestDiscoverCollectsReplies(t *testing.T) {
	responder, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer responder.Close()

	go func() {
		buf := make([]byte, 8192)

		n, from, readErr := responder.ReadFromUDP(buf)
		if readErr != nil || n == 0 {
			return
		}

		// answer twice to exercise de-duplication
		_, _ = responder.WriteToUDP([]byte(probeMatch), from)
		_, _ = responder.WriteToUDP([]byte(probeMatch), from)
	}()

	d := &Discoverer{
		Timeout:       300 * time.Millisecond,
		MulticastAddr: responder.LocalAddr().String(),
		Logger:        logger.NewTestLogger(),
	}

	devices, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "PTZ-200", devices[0].Model)
}
