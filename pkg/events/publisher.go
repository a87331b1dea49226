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

// Package events publishes camera and stream lifecycle CloudEvents to NATS
// JetStream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

const (
	eventSource     = "camview/core"
	eventTypePrefix = "com.carverauto.camview"
	subjectPrefix   = "camview.events"

	CameraSubjects = subjectPrefix + ".camera.*"
	StreamSubjects = subjectPrefix + ".stream.*"
)

// Publisher emits lifecycle events.
type Publisher interface {
	PublishCameraEvent(ctx context.Context, data *models.CameraEventData) error
	PublishStreamEvent(ctx context.Context, data *models.StreamEventData) error
}

// NopPublisher drops every event. It is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishCameraEvent(context.Context, *models.CameraEventData) error { return nil }
func (NopPublisher) PublishStreamEvent(context.Context, *models.StreamEventData) error { return nil }

// EventPublisher publishes CloudEvents to a JetStream stream.
type EventPublisher struct {
	js     jetstream.JetStream
	stream string
	log    logger.Logger
}

var _ Publisher = (*EventPublisher)(nil)

// NewEventPublisher creates an EventPublisher for streamName.
func NewEventPublisher(js jetstream.JetStream, streamName string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:     js,
		stream: streamName,
		log:    log,
	}
}

// CameraSubject is the subject a camera action is published on.
func CameraSubject(action string) string {
	return fmt.Sprintf("%s.camera.%s", subjectPrefix, action)
}

// StreamSubject is the subject a stream action is published on.
func StreamSubject(action string) string {
	return fmt.Sprintf("%s.stream.%s", subjectPrefix, action)
}

func (p *EventPublisher) PublishCameraEvent(ctx context.Context, data *models.CameraEventData) error {
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}

	return p.publish(ctx, "camera."+data.Action, CameraSubject(data.Action), data.Timestamp, data)
}

func (p *EventPublisher) PublishStreamEvent(ctx context.Context, data *models.StreamEventData) error {
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}

	return p.publish(ctx, "stream."+data.Action, StreamSubject(data.Action), data.Timestamp, data)
}

func (p *EventPublisher) publish(ctx context.Context, kind, subject string, ts time.Time, data interface{}) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventTypePrefix + "." + kind,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", kind, err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", kind, err)
	}

	p.log.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("published event")

	return nil
}

// CreateEventPublisher ensures the stream exists (creating or widening it as
// needed) and returns a publisher bound to it.
func CreateEventPublisher(
	ctx context.Context, nc *nats.Conn, domain, streamName string, subjects []string, log logger.Logger,
) (*EventPublisher, error) {
	var (
		js  jetstream.JetStream
		err error
	)

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if len(subjects) == 0 {
		subjects = []string{CameraSubjects, StreamSubjects}
	}

	if err := ensureStream(ctx, js, streamName, subjects); err != nil {
		return nil, err
	}

	return NewEventPublisher(js, streamName, log), nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, streamName string, subjects []string) error {
	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", streamName, err)
		}

		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: subjects,
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}

		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stream %s: %w", streamName, err)
	}

	merged := append([]string(nil), info.Config.Subjects...)
	for _, subject := range subjects {
		merged = ensureSubjectList(merged, subject)
	}

	if len(merged) == len(info.Config.Subjects) {
		return nil
	}

	cfg := info.Config
	cfg.Subjects = merged

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update stream %s subjects: %w", streamName, err)
	}

	return nil
}

// ensureSubjectList appends subject unless an existing pattern covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether a NATS subject pattern matches subject. A
// pattern token is compared literally, so "a.*" covers the literal "a.*".
func matchesSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, token := range pt {
		if token == ">" {
			return len(st) > i
		}

		if i >= len(st) {
			return false
		}

		if token != "*" && token != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}
