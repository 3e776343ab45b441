/*
MIT License

Copyright (c) 2025 Advanced Micro Devices, Inc.

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package controller

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	toolscache "k8s.io/client-go/tools/cache"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/internal/dispatch"
	"github.com/eventplane/topic-operator/internal/kafkatopic"
)

// EventInformer is the part of an informer a TopicSource needs.
type EventInformer interface {
	AddEventHandler(handler toolscache.ResourceEventHandler) (toolscache.ResourceEventHandlerRegistration, error)
	RemoveEventHandler(handle toolscache.ResourceEventHandlerRegistration) error
}

// TopicSource emits the owning application of every KafkaTopic that is added, changed or
// deleted, so that readiness changes reported by Strimzi are picked up without polling.
type TopicSource struct {
	informer EventInformer
}

var _ dispatch.Source = &TopicSource{}

// NewTopicSource watches KafkaTopics through the manager's cache.
func NewTopicSource(ctx context.Context, c cache.Cache, settings kafkatopic.Settings) (*TopicSource, error) {
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(settings.GVK())

	informer, err := c.GetInformer(ctx, obj)
	if err != nil {
		return nil, fmt.Errorf("failed to get KafkaTopic informer: %w", err)
	}
	return NewTopicSourceFromInformer(informer), nil
}

func NewTopicSourceFromInformer(informer EventInformer) *TopicSource {
	return &TopicSource{informer: informer}
}

func (s *TopicSource) Name() string {
	return "kafkatopics"
}

func (s *TopicSource) Run(ctx context.Context, emit func(key string)) error {
	logger := log.FromContext(ctx).WithValues("source", s.Name())

	handle := func(obj any) {
		if tombstone, ok := obj.(toolscache.DeletedFinalStateUnknown); ok {
			obj = tombstone.Obj
		}
		topic, ok := obj.(client.Object)
		if !ok {
			return
		}
		if application, ok := kafkatopic.ApplicationFor(topic); ok {
			emit(application)
			return
		}
		logger.V(1).Info("ignoring topic without application annotation", "topic", topic.GetName())
	}

	registration, err := s.informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc:    handle,
		UpdateFunc: func(_, obj any) { handle(obj) },
		DeleteFunc: handle,
	})
	if err != nil {
		return fmt.Errorf("failed to register KafkaTopic handler: %w", err)
	}

	<-ctx.Done()
	return s.informer.RemoveEventHandler(registration)
}
