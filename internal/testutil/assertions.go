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

package testutil

import (
	"strings"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// FindCondition returns the condition of the given type, or nil.
func FindCondition(conditions []metav1.Condition, condType string) *metav1.Condition {
	for i := range conditions {
		if conditions[i].Type == condType {
			return &conditions[i]
		}
	}
	return nil
}

func mustFindCondition(t *testing.T, conditions []metav1.Condition, condType string) metav1.Condition {
	t.Helper()
	cond := FindCondition(conditions, condType)
	if cond == nil {
		t.Fatalf("no %s condition among %d", condType, len(conditions))
	}
	return *cond
}

// AssertCondition checks status, and reason unless it is empty.
func AssertCondition(t *testing.T, conditions []metav1.Condition, condType string, status metav1.ConditionStatus, reason string) {
	t.Helper()
	cond := mustFindCondition(t, conditions, condType)
	if cond.Status != status {
		t.Errorf("%s: status is %s, want %s", condType, cond.Status, status)
	}
	if reason != "" && cond.Reason != reason {
		t.Errorf("%s: reason is %q, want %q", condType, cond.Reason, reason)
	}
}

func AssertObservedGeneration(t *testing.T, conditions []metav1.Condition, condType string, generation int64) {
	t.Helper()
	if got := mustFindCondition(t, conditions, condType).ObservedGeneration; got != generation {
		t.Errorf("%s: observed generation is %d, want %d", condType, got, generation)
	}
}

func AssertConditionNotExists(t *testing.T, conditions []metav1.Condition, condType string) {
	t.Helper()
	if FindCondition(conditions, condType) != nil {
		t.Fatalf("unexpected %s condition", condType)
	}
}

// AssertConditionMessage checks that the message mentions fragment.
func AssertConditionMessage(t *testing.T, conditions []metav1.Condition, condType string, fragment string) {
	t.Helper()
	if msg := mustFindCondition(t, conditions, condType).Message; !strings.Contains(msg, fragment) {
		t.Errorf("%s: message %q does not mention %q", condType, msg, fragment)
	}
}
