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
	"encoding/json"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/eventplane/topic-operator/internal/constants"
)

// GroupVersion is the registry API version applications are served with.
var GroupVersion = schema.GroupVersion{Group: "registry.eventplane.io", Version: "v1alpha1"}

// Application is the registry object a topic is provisioned for.
//
// Spec and status are kept as raw sections. The operator only decodes the sections it owns,
// every other section is written back exactly as it was read.
type Application struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	// +optional
	Spec map[string]json.RawMessage `json:"spec,omitempty"`

	// +optional
	Status map[string]json.RawMessage `json:"status,omitempty"`
}

// KafkaAppStatus is the status section owned by the topic operator.
type KafkaAppStatus struct {
	// ObservedGeneration is the application generation the conditions were computed for.
	ObservedGeneration int64 `json:"observedGeneration"`

	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

func (s *KafkaAppStatus) GetConditions() []metav1.Condition {
	return s.Conditions
}

func (s *KafkaAppStatus) SetConditions(conditions []metav1.Condition) {
	s.Conditions = conditions
}

// IsDeleted reports whether deletion of the application has been requested.
func (a *Application) IsDeleted() bool {
	return a.DeletionTimestamp != nil
}

// Section decodes the named status section into out.
// It returns false when the section is absent.
func (a *Application) Section(name string, out any) (bool, error) {
	raw, ok := a.Status[name]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode status section %q: %w", name, err)
	}
	return true, nil
}

// SetSection encodes value into the named status section, leaving all other sections untouched.
func (a *Application) SetSection(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode status section %q: %w", name, err)
	}
	if a.Status == nil {
		a.Status = map[string]json.RawMessage{}
	}
	a.Status[name] = raw
	return nil
}

// KafkaStatus returns the kafka status section, or a zero value when it is missing.
func (a *Application) KafkaStatus() (KafkaAppStatus, error) {
	var status KafkaAppStatus
	if _, err := a.Section(constants.StatusSectionKafka, &status); err != nil {
		return KafkaAppStatus{}, err
	}
	return status, nil
}

// Conditions returns the top-level condition list of the status document.
func (a *Application) Conditions() ([]metav1.Condition, error) {
	var conditions []metav1.Condition
	if _, err := a.Section(constants.StatusConditionsKey, &conditions); err != nil {
		return nil, err
	}
	return conditions, nil
}

// SetConditions replaces the top-level condition list of the status document.
func (a *Application) SetConditions(conditions []metav1.Condition) error {
	return a.SetSection(constants.StatusConditionsKey, conditions)
}

// DeepCopyInto copies the receiver into out.
func (a *Application) DeepCopyInto(out *Application) {
	*out = *a
	out.TypeMeta = a.TypeMeta
	a.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	out.Spec = copyRawSections(a.Spec)
	out.Status = copyRawSections(a.Status)
}

// DeepCopy returns a deep copy of the application.
func (a *Application) DeepCopy() *Application {
	if a == nil {
		return nil
	}
	out := new(Application)
	a.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (a *Application) DeepCopyObject() runtime.Object {
	if c := a.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func copyRawSections(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = nil
			continue
		}
		c := make(json.RawMessage, len(v))
		copy(c, v)
		out[k] = c
	}
	return out
}
