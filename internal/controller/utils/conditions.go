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

package controllerutils

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/clock"

	"github.com/eventplane/topic-operator/internal/constants"
)

// ReadyState is the value a reconcile step reports for its condition.
type ReadyState struct {
	Status  metav1.ConditionStatus
	Reason  string
	Message string
}

// ReadyComplete reports that the step converged.
func ReadyComplete() ReadyState {
	return ReadyState{Status: metav1.ConditionTrue, Reason: constants.ReasonAsExpected}
}

// ReadyProgressing reports that the step is still waiting on something.
func ReadyProgressing() ReadyState {
	return ReadyState{Status: metav1.ConditionFalse, Reason: constants.ReasonProgressing}
}

// ReadyFailed reports that the step failed with message.
func ReadyFailed(message string) ReadyState {
	return ReadyState{Status: metav1.ConditionFalse, Reason: constants.ReasonFailed, Message: message}
}

func (s ReadyState) level() EventLevel {
	switch {
	case s.Status == metav1.ConditionTrue:
		return LevelNormal
	case s.Reason == constants.ReasonFailed:
		return LevelWarning
	default:
		return LevelNone
	}
}

// LevelOf derives the event level of a stored condition.
func LevelOf(condition metav1.Condition) EventLevel {
	return ReadyState{Status: condition.Status, Reason: condition.Reason}.level()
}

type LevelCondition struct {
	metav1.Condition
	Level EventLevel
}

// ConditionManager wraps a slice of metav1.Condition and provides helpers.
//
// A condition's LastTransitionTime only moves when its status changes. Conditions of
// types the manager is never asked about are kept in place.
type ConditionManager struct {
	clock      clock.PassiveClock
	conditions []LevelCondition
}

func NewConditionManager(existing []metav1.Condition) *ConditionManager {
	return NewConditionManagerWithClock(existing, clock.RealClock{})
}

func NewConditionManagerWithClock(existing []metav1.Condition, clk clock.PassiveClock) *ConditionManager {
	conditions := make([]LevelCondition, len(existing))
	for i := range existing {
		conditions[i] = LevelCondition{existing[i], LevelOf(existing[i])}
	}
	return &ConditionManager{
		clock:      clk,
		conditions: conditions,
	}
}

func (m *ConditionManager) Conditions() []metav1.Condition {
	conditions := make([]metav1.Condition, len(m.conditions))
	for i := range m.conditions {
		conditions[i] = m.conditions[i].Condition
	}
	return conditions
}

// Update sets the condition of the given type from a ready state.
func (m *ConditionManager) Update(conditionType string, state ReadyState, observedGeneration int64) {
	m.SetCondition(metav1.Condition{
		Type:               conditionType,
		Status:             state.Status,
		Reason:             state.Reason,
		Message:            state.Message,
		ObservedGeneration: observedGeneration,
	}, state.level())
}

// SetCondition sets or updates a condition by type.
func (m *ConditionManager) SetCondition(cond metav1.Condition, level EventLevel) {
	cond.LastTransitionTime = metav1.NewTime(m.clock.Now())

	idx := indexOfCondition(m.conditions, cond.Type)
	if idx == -1 {
		m.conditions = append(m.conditions, LevelCondition{
			Condition: cond,
			Level:     level,
		})
		return
	}

	existing := m.conditions[idx]
	// Reason, message and generation may refresh without counting as a transition.
	if existing.Status == cond.Status {
		cond.LastTransitionTime = existing.LastTransitionTime
	}

	m.conditions[idx].Condition = cond
	m.conditions[idx].Level = level
}

// FirstNotTrue returns the first managed condition whose status is not True, or nil.
func (m *ConditionManager) FirstNotTrue() *metav1.Condition {
	for i := range m.conditions {
		if m.conditions[i].Status != metav1.ConditionTrue {
			condition := m.conditions[i].Condition
			return &condition
		}
	}
	return nil
}

func (m *ConditionManager) Get(condType string) *metav1.Condition {
	index := indexOfCondition(m.conditions, condType)
	if index == -1 {
		return nil
	}
	condition := m.conditions[index]
	return &condition.Condition
}

func (m *ConditionManager) EventLevelFor(condType string) EventLevel {
	idx := indexOfCondition(m.conditions, condType)
	if idx == -1 {
		return LevelNone
	}
	return m.conditions[idx].Level
}

func indexOfCondition(conditions []LevelCondition, condType string) int {
	for i := range conditions {
		if conditions[i].Type == condType {
			return i
		}
	}
	return -1
}

type ConditionTransition struct {
	Old *metav1.Condition // nil if this condition is new
	New *metav1.Condition
}

// DiffConditionTransitions returns transitions between old and new condition sets.
// It compares by Type, and considers a transition interesting if Status or Reason changed.
// Transitions are returned in the order of newConditions.
func DiffConditionTransitions(oldConditions, newConditions []metav1.Condition) []ConditionTransition {
	var transitions []ConditionTransition

	oldByType := make(map[string]metav1.Condition, len(oldConditions))
	for _, condition := range oldConditions {
		oldByType[condition.Type] = condition
	}

	for i := range newConditions {
		newCondition := newConditions[i]
		oldCondition, found := oldByType[newCondition.Type]
		if !found {
			transitions = append(transitions, ConditionTransition{New: &newCondition})
			continue
		}

		if oldCondition.Status == newCondition.Status && oldCondition.Reason == newCondition.Reason {
			continue
		}

		transitions = append(transitions, ConditionTransition{
			Old: &oldCondition,
			New: &newCondition,
		})
	}

	return transitions
}

// AggregateReady computes the readiness condition summarizing a condition set.
// It is True when every condition is True, otherwise it mirrors the first condition that is not.
func AggregateReady(conditions []metav1.Condition) ReadyState {
	m := NewConditionManager(conditions)
	notTrue := m.FirstNotTrue()
	if notTrue == nil {
		return ReadyComplete()
	}
	reason := notTrue.Reason
	if reason == "" {
		reason = constants.ReasonNotReady
	}
	return ReadyState{Status: metav1.ConditionFalse, Reason: reason, Message: notTrue.Message}
}
