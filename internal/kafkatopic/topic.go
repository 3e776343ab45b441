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

package kafkatopic

import (
	"context"
	"fmt"
	"maps"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/constants"
	controllerutils "github.com/eventplane/topic-operator/internal/controller/utils"
	"github.com/eventplane/topic-operator/internal/utils"
)

// Settings describe where and how topics are provisioned.
type Settings struct {
	// Namespace holds the KafkaTopic resources.
	Namespace string
	// ClusterName is the Strimzi cluster the topics belong to.
	ClusterName string
	Partitions  int32
	Replicas    int32
	// Version is the served KafkaTopic API version.
	Version string
}

// GVK returns the KafkaTopic kind for the configured version.
func (s Settings) GVK() schema.GroupVersionKind {
	return v1alpha1.KafkaTopicGVK(s.Version)
}

// Key returns the KafkaTopic key of an application.
func (s Settings) Key(application string) client.ObjectKey {
	return client.ObjectKey{Namespace: s.Namespace, Name: utils.TopicResourceName(application)}
}

// Mutator writes the managed labels, annotations and spec of the application's topic.
// Labels and annotations set by others are kept.
func (s Settings) Mutator(application string) controllerutils.MutateFunc {
	return func(obj *unstructured.Unstructured) error {
		labels := maps.Clone(obj.GetLabels())
		if labels == nil {
			labels = map[string]string{}
		}
		labels[constants.LabelStrimziCluster] = s.ClusterName
		obj.SetLabels(labels)

		annotations := maps.Clone(obj.GetAnnotations())
		if annotations == nil {
			annotations = map[string]string{}
		}
		annotations[constants.AnnotationApplicationName] = application
		obj.SetAnnotations(annotations)

		spec, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&v1alpha1.KafkaTopicSpec{
			TopicName:  obj.GetName(),
			Partitions: s.Partitions,
			Replicas:   s.Replicas,
			Config:     map[string]any{},
		})
		if err != nil {
			return fmt.Errorf("failed to convert topic spec: %w", err)
		}
		return unstructured.SetNestedField(obj.Object, spec, "spec")
	}
}

// Ensure creates or updates the topic of an application.
func Ensure(ctx context.Context, c client.Client, s Settings, application string) (*unstructured.Unstructured, controllerutil.OperationResult, error) {
	return controllerutils.Ensure(ctx, c, s.GVK(), s.Key(application), s.Mutator(application), controllerutils.MetadataAndSpecEqual)
}

// Delete removes the topic of an application. A topic that is already gone counts as deleted.
func Delete(ctx context.Context, c client.Client, s Settings, application string) (bool, error) {
	return controllerutils.DeleteIfExists(ctx, c, s.GVK(), s.Key(application))
}

// Readiness reads the Strimzi Ready condition of a topic.
// It returns nil when the condition is missing or its status is neither True nor False.
func Readiness(topic *unstructured.Unstructured) *bool {
	if topic == nil {
		return nil
	}
	conditions, found, err := unstructured.NestedSlice(topic.Object, "status", "conditions")
	if err != nil || !found {
		return nil
	}
	for _, raw := range conditions {
		cond, ok := raw.(map[string]any)
		if !ok || cond["type"] != constants.KafkaTopicReadyCondition {
			continue
		}
		status, _ := cond["status"].(string)
		switch metav1.ConditionStatus(status) {
		case metav1.ConditionTrue:
			ready := true
			return &ready
		case metav1.ConditionFalse:
			ready := false
			return &ready
		default:
			return nil
		}
	}
	return nil
}

// ApplicationFor returns the application a topic belongs to.
func ApplicationFor(obj client.Object) (string, bool) {
	name, ok := obj.GetAnnotations()[constants.AnnotationApplicationName]
	return name, ok && name != ""
}
