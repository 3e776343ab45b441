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

package testutil

import (
	"encoding/json"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/constants"
)

const (
	TopicNamespace = "kafka"
	ClusterName    = "events-cluster"
)

// NewScheme returns a scheme with the client-go types and KafkaTopic registered as unstructured.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	gvk := v1alpha1.KafkaTopicGVK("")
	scheme.AddKnownTypeWithName(gvk, &unstructured.Unstructured{})
	scheme.AddKnownTypeWithName(gvk.GroupVersion().WithKind(gvk.Kind+"List"), &unstructured.UnstructuredList{})
	metav1.AddToGroupVersion(scheme, gvk.GroupVersion())
	return scheme
}

// NewFakeClient returns a fake client over NewScheme seeded with objs.
func NewFakeClient(objs ...client.Object) *fake.ClientBuilder {
	return fake.NewClientBuilder().WithScheme(NewScheme()).WithObjects(objs...)
}

// Application fixtures

type ApplicationOption func(*v1alpha1.Application)

func NewApplication(name string, opts ...ApplicationOption) *v1alpha1.Application {
	app := &v1alpha1.Application{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			UID:               types.UID(name + "-uid"),
			Generation:        1,
			ResourceVersion:   "1",
			CreationTimestamp: metav1.NewTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func WithFinalizers(finalizers ...string) ApplicationOption {
	return func(a *v1alpha1.Application) {
		a.Finalizers = append(a.Finalizers, finalizers...)
	}
}

func WithDeletionTimestamp() ApplicationOption {
	return func(a *v1alpha1.Application) {
		now := metav1.NewTime(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
		a.DeletionTimestamp = &now
	}
}

func WithGeneration(generation int64) ApplicationOption {
	return func(a *v1alpha1.Application) {
		a.Generation = generation
	}
}

// WithRawStatus sets a status section from its JSON form.
func WithRawStatus(section, raw string) ApplicationOption {
	return func(a *v1alpha1.Application) {
		if a.Status == nil {
			a.Status = map[string]json.RawMessage{}
		}
		a.Status[section] = json.RawMessage(raw)
	}
}

// KafkaTopic fixtures

type KafkaTopicOption func(*unstructured.Unstructured)

func NewKafkaTopic(name string, opts ...KafkaTopicOption) *unstructured.Unstructured {
	topic := &unstructured.Unstructured{}
	topic.SetGroupVersionKind(v1alpha1.KafkaTopicGVK(""))
	topic.SetNamespace(TopicNamespace)
	topic.SetName(name)
	for _, opt := range opts {
		opt(topic)
	}
	return topic
}

// WithTopicReady sets the Strimzi Ready condition to status.
func WithTopicReady(status metav1.ConditionStatus) KafkaTopicOption {
	return func(u *unstructured.Unstructured) {
		_ = unstructured.SetNestedSlice(u.Object, []any{
			map[string]any{
				"type":   constants.KafkaTopicReadyCondition,
				"status": string(status),
			},
		}, "status", "conditions")
	}
}

func WithTopicApplication(application string) KafkaTopicOption {
	return func(u *unstructured.Unstructured) {
		u.SetAnnotations(map[string]string{constants.AnnotationApplicationName: application})
	}
}
