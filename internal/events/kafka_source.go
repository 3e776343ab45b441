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
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/internal/utils"
)

// MessageReader is the part of *kafka.Reader the source needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSourceConfig selects the registry event topic.
type KafkaSourceConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// KafkaSource consumes registry change events and emits the application of every relevant one.
type KafkaSource struct {
	reader MessageReader
}

func NewKafkaSource(cfg KafkaSourceConfig) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka source requires at least one broker")
	}
	if cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka source requires a topic and a consumer group")
	}
	return NewKafkaSourceFromReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})), nil
}

func NewKafkaSourceFromReader(reader MessageReader) *KafkaSource {
	return &KafkaSource{reader: reader}
}

func (s *KafkaSource) Name() string {
	return "registry"
}

// Run consumes events until ctx is done. Messages are committed after their key was handed to
// emit, so a crash in between redelivers them.
func (s *KafkaSource) Run(ctx context.Context, emit func(key string)) error {
	logger := log.FromContext(ctx).WithValues("source", s.Name())
	defer func() {
		if err := s.reader.Close(); err != nil {
			logger.Error(err, "failed to close kafka reader")
		}
	}()

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to fetch registry event: %w", err)
		}

		event, err := Decode(msg)
		switch {
		case err != nil:
			utils.Debug(logger, "skipping undecodable message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		default:
			if key, ok := IsRelevant(event); ok {
				utils.Debug(logger, "relevant registry event", "application", key, "path", event.Path)
				emit(key)
			} else {
				utils.Trace(logger, "ignoring registry event", "application", event.Application, "path", event.Path)
			}
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit registry event: %w", err)
		}
	}
}
