// MIT License
//
// Copyright (c) 2025 Advanced Micro Devices, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package events

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/eventplane/topic-operator/internal/constants"
)

// CloudEvents binary mode headers carried by registry change events.
const (
	HeaderSpecVersion = "ce_specversion"
	HeaderType        = "ce_type"
	HeaderID          = "ce_id"
	HeaderSubject     = "ce_subject"
	HeaderApplication = "ce_application"
	HeaderDevice      = "ce_device"
	HeaderUID         = "ce_uid"
	HeaderGeneration  = "ce_generation"

	// EventTypeRegistryChange is the type of registry change events.
	EventTypeRegistryChange = "io.eventplane.registry.change.v1"
)

var (
	ErrNotRegistryEvent   = errors.New("not a registry change event")
	ErrMissingApplication = errors.New("registry event without application")
)

// Event is a change reported by the registry.
type Event struct {
	// Kind is "Application" or "Device".
	Kind        string
	ID          string
	Application string
	Device      string
	UID         string
	// Path names the part of the object that changed. "." is the object itself.
	Path       string
	Generation int64
}

// Decode reads a registry change event from the headers of a Kafka message.
func Decode(msg kafka.Message) (Event, error) {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	if headers[HeaderType] != EventTypeRegistryChange {
		return Event{}, fmt.Errorf("%w: type %q", ErrNotRegistryEvent, headers[HeaderType])
	}

	event := Event{
		Kind:        constants.EventKindApplication,
		ID:          headers[HeaderID],
		Application: headers[HeaderApplication],
		Device:      headers[HeaderDevice],
		UID:         headers[HeaderUID],
		Path:        headers[HeaderSubject],
	}
	if event.Application == "" {
		return Event{}, ErrMissingApplication
	}
	if event.Device != "" {
		event.Kind = "Device"
	}
	if g, ok := headers[HeaderGeneration]; ok && g != "" {
		generation, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("invalid generation %q: %w", g, err)
		}
		event.Generation = generation
	}
	return event, nil
}

// IsRelevant returns the application to reconcile for an event. Only the creation of an
// application and changes to its metadata, where finalizers live, are relevant.
func IsRelevant(event Event) (string, bool) {
	if event.Kind != constants.EventKindApplication {
		return "", false
	}
	switch event.Path {
	case constants.EventPathCreated, constants.EventPathMetadata:
		return event.Application, true
	default:
		return "", false
	}
}
