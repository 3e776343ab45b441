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

package controllerutils

import (
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	clocktesting "k8s.io/utils/clock/testing"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewConditionManager(t *testing.T) {
	conditions := []metav1.Condition{
		{Type: "Ready", Status: metav1.ConditionTrue, Reason: "Success", Message: "Ready"},
		{Type: "Available", Status: metav1.ConditionFalse, Reason: "Pending", Message: "Waiting"},
	}

	cm := NewConditionManager(conditions)

	if len(cm.conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(cm.conditions))
	}

	for i, cond := range conditions {
		if cm.conditions[i].Type != cond.Type {
			t.Errorf("expected type %s, got %s", cond.Type, cm.conditions[i].Type)
		}
		if cm.conditions[i].Status != cond.Status {
			t.Errorf("expected status %s, got %s", cond.Status, cm.conditions[i].Status)
		}
	}
}

func TestConditionManager_UpdateSameStatusKeepsTransitionTime(t *testing.T) {
	clk := clocktesting.NewFakePassiveClock(t0)
	cm := NewConditionManagerWithClock(nil, clk)

	cm.Update("Reconciled", ReadyProgressing(), 1)
	first := cm.Get("Reconciled").LastTransitionTime

	clk.SetTime(t0.Add(time.Minute))
	cm.Update("Reconciled", ReadyFailed("boom"), 2)

	cond := cm.Get("Reconciled")
	if !cond.LastTransitionTime.Equal(&first) {
		t.Errorf("expected transition time to stay %v, got %v", first, cond.LastTransitionTime)
	}
	if cond.Reason != "Failed" || cond.Message != "boom" {
		t.Errorf("expected reason and message to refresh, got %s/%s", cond.Reason, cond.Message)
	}
	if cond.ObservedGeneration != 2 {
		t.Errorf("expected observed generation 2, got %d", cond.ObservedGeneration)
	}
}

func TestConditionManager_UpdateStatusChangeMovesTransitionTime(t *testing.T) {
	clk := clocktesting.NewFakePassiveClock(t0)
	cm := NewConditionManagerWithClock(nil, clk)

	cm.Update("Reconciled", ReadyProgressing(), 1)

	later := t0.Add(time.Minute)
	clk.SetTime(later)
	cm.Update("Reconciled", ReadyComplete(), 1)

	cond := cm.Get("Reconciled")
	if cond.Status != metav1.ConditionTrue {
		t.Fatalf("expected True, got %s", cond.Status)
	}
	if !cond.LastTransitionTime.Time.Equal(later) {
		t.Errorf("expected transition time %v, got %v", later, cond.LastTransitionTime)
	}
}

func TestConditionManager_PreservesUnrelatedConditions(t *testing.T) {
	other := metav1.Condition{
		Type:               "Other",
		Status:             metav1.ConditionUnknown,
		Reason:             "Foreign",
		Message:            "owned elsewhere",
		LastTransitionTime: metav1.NewTime(t0.Add(-time.Hour)),
	}
	cm := NewConditionManagerWithClock([]metav1.Condition{other}, clocktesting.NewFakePassiveClock(t0))

	cm.Update("Reconciled", ReadyComplete(), 3)

	conditions := cm.Conditions()
	if len(conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conditions))
	}
	if conditions[0] != other {
		t.Errorf("expected unrelated condition untouched, got %+v", conditions[0])
	}
}

func TestConditionManager_UpdateAndGet(t *testing.T) {
	cm := NewConditionManager(nil)

	if cm.Get("Ready") != nil {
		t.Fatal("expected absent condition")
	}

	cm.Update("Ready", ReadyComplete(), 1)
	cm.Update("Synced", ReadyProgressing(), 1)
	cm.Update("Broken", ReadyFailed("boom"), 1)

	if cond := cm.Get("Ready"); cond == nil || cond.Status != metav1.ConditionTrue {
		t.Errorf("expected Ready=True, got %+v", cond)
	}
	if cond := cm.Get("Synced"); cond == nil || cond.Status != metav1.ConditionFalse {
		t.Errorf("expected Synced=False, got %+v", cond)
	}
	if cond := cm.Get("Broken"); cond == nil || cond.Message != "boom" {
		t.Errorf("expected Broken with message, got %+v", cond)
	}
	if cm.EventLevelFor("Ready") != LevelNormal {
		t.Errorf("expected normal event level")
	}
	if cm.EventLevelFor("Broken") != LevelWarning {
		t.Errorf("expected warning event level")
	}
}

func TestConditionManager_FirstNotTrue(t *testing.T) {
	cm := NewConditionManager(nil)
	cm.Update("A", ReadyComplete(), 1)
	cm.Update("B", ReadyComplete(), 1)

	if cm.FirstNotTrue() != nil {
		t.Error("expected no condition that is not true")
	}

	cm.Update("B", ReadyProgressing(), 1)
	if got := cm.FirstNotTrue(); got == nil || got.Type != "B" {
		t.Errorf("expected B to be first not true, got %+v", got)
	}
}

func TestReadyStates(t *testing.T) {
	tests := []struct {
		name   string
		state  ReadyState
		status metav1.ConditionStatus
		reason string
		level  EventLevel
	}{
		{"complete", ReadyComplete(), metav1.ConditionTrue, "AsExpected", LevelNormal},
		{"progressing", ReadyProgressing(), metav1.ConditionFalse, "Progressing", LevelNone},
		{"failed", ReadyFailed("x"), metav1.ConditionFalse, "Failed", LevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.state.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, tt.state.Status)
			}
			if tt.state.Reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, tt.state.Reason)
			}
			if tt.state.level() != tt.level {
				t.Errorf("expected level %q, got %q", tt.level, tt.state.level())
			}
		})
	}
}

func TestAggregateReady(t *testing.T) {
	allTrue := []metav1.Condition{
		{Type: "A", Status: metav1.ConditionTrue},
		{Type: "B", Status: metav1.ConditionTrue},
	}
	if got := AggregateReady(allTrue); got.Status != metav1.ConditionTrue {
		t.Errorf("expected True, got %+v", got)
	}

	if got := AggregateReady(nil); got.Status != metav1.ConditionTrue {
		t.Errorf("expected empty set to be ready, got %+v", got)
	}

	mixed := []metav1.Condition{
		{Type: "A", Status: metav1.ConditionTrue},
		{Type: "B", Status: metav1.ConditionFalse, Reason: "Failed", Message: "boom"},
		{Type: "C", Status: metav1.ConditionFalse, Reason: "Progressing"},
	}
	got := AggregateReady(mixed)
	if got.Status != metav1.ConditionFalse || got.Reason != "Failed" || got.Message != "boom" {
		t.Errorf("expected first failing condition mirrored, got %+v", got)
	}
}

func TestDiffConditionTransitions(t *testing.T) {
	old := []metav1.Condition{
		{Type: "A", Status: metav1.ConditionTrue, Reason: "X"},
		{Type: "B", Status: metav1.ConditionFalse, Reason: "Y"},
	}
	updated := []metav1.Condition{
		{Type: "A", Status: metav1.ConditionTrue, Reason: "X", Message: "changed"},
		{Type: "B", Status: metav1.ConditionTrue, Reason: "Y"},
		{Type: "C", Status: metav1.ConditionFalse, Reason: "Z"},
	}

	transitions := DiffConditionTransitions(old, updated)
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	if transitions[0].New.Type != "B" || transitions[0].Old == nil {
		t.Errorf("expected B change first, got %+v", transitions[0])
	}
	if transitions[1].New.Type != "C" || transitions[1].Old != nil {
		t.Errorf("expected C addition second, got %+v", transitions[1])
	}
}

func TestConditionManager_StoredConditionLevels(t *testing.T) {
	cm := NewConditionManager([]metav1.Condition{
		{Type: "Done", Status: metav1.ConditionTrue, Reason: "AsExpected"},
		{Type: "Broken", Status: metav1.ConditionFalse, Reason: "Failed"},
		{Type: "Waiting", Status: metav1.ConditionFalse, Reason: "Progressing"},
	})

	if got := cm.EventLevelFor("Done"); got != LevelNormal {
		t.Errorf("Done: expected normal, got %q", got)
	}
	if got := cm.EventLevelFor("Broken"); got != LevelWarning {
		t.Errorf("Broken: expected warning, got %q", got)
	}
	if got := cm.EventLevelFor("Waiting"); got != LevelNone {
		t.Errorf("Waiting: expected none, got %q", got)
	}
}
