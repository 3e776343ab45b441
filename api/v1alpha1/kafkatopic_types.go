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

package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/eventplane/topic-operator/internal/constants"
)

// KafkaTopicSpec is the subset of the Strimzi KafkaTopic spec managed by the operator.
type KafkaTopicSpec struct {
	// TopicName is the name of the topic inside the Kafka cluster.
	TopicName string `json:"topicName"`

	// +kubebuilder:validation:Minimum=1
	Partitions int32 `json:"partitions"`

	// +kubebuilder:validation:Minimum=1
	Replicas int32 `json:"replicas"`

	// Config holds topic level configuration. It is always written, even when empty.
	Config map[string]any `json:"config"`
}

// KafkaTopicGVK returns the group version kind of KafkaTopic for the given served version.
// An empty version selects the default.
func KafkaTopicGVK(version string) schema.GroupVersionKind {
	if version == "" {
		version = constants.KafkaTopicDefaultVersion
	}
	return schema.GroupVersionKind{
		Group:   constants.KafkaTopicGroup,
		Version: version,
		Kind:    constants.KafkaTopicKind,
	}
}
