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
	"context"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/internal/utils"
)

// DefaultRetryDelay is used when a step asks for a retry without naming a delay.
// Zero means the key is requeued immediately.
const DefaultRetryDelay time.Duration = 0

// StepOutcome is the decision a construct step hands back to the constructor.
type StepOutcome[C any] struct {
	Context C
	// Retry stops the constructor after this step.
	Retry bool
	// RetryAfter is the requested delay. Nil selects DefaultRetryDelay.
	RetryAfter *time.Duration
}

// Continue lets the constructor proceed with the next step.
func Continue[C any](c C) StepOutcome[C] {
	return StepOutcome[C]{Context: c}
}

// Retry stops the constructor and asks for another pass after the given delay.
func Retry[C any](c C, after *time.Duration) StepOutcome[C] {
	return StepOutcome[C]{Context: c, Retry: true, RetryAfter: after}
}

// Step is a single idempotent unit of construction.
type Step[C any] interface {
	// Name is also the condition type the step reports into.
	Name() string
	Run(ctx context.Context, c C) (StepOutcome[C], error)
}

type stepFunc[C any] struct {
	name string
	fn   func(ctx context.Context, c C) (StepOutcome[C], error)
}

// StepFunc adapts a function into a Step.
func StepFunc[C any](name string, fn func(ctx context.Context, c C) (StepOutcome[C], error)) Step[C] {
	return &stepFunc[C]{name: name, fn: fn}
}

func (s *stepFunc[C]) Name() string {
	return s.name
}

func (s *stepFunc[C]) Run(ctx context.Context, c C) (StepOutcome[C], error) {
	return s.fn(ctx, c)
}

// ConstructionResult enumerates how a constructor run ended.
type ConstructionResult int

const (
	ConstructionComplete ConstructionResult = iota
	ConstructionRetry
	ConstructionFailed
)

func (r ConstructionResult) String() string {
	switch r {
	case ConstructionComplete:
		return "Complete"
	case ConstructionRetry:
		return "Retry"
	default:
		return "Failed"
	}
}

// Construction is the outcome of a constructor run.
type Construction[C any] struct {
	Result ConstructionResult
	// Context is the context produced by the last step that ran. It is the zero value when
	// Result is ConstructionFailed.
	Context C
	// RetryAfter is set when Result is ConstructionRetry.
	RetryAfter time.Duration
	// Err is set when Result is ConstructionFailed.
	Err ReconcileError
	// Conditions holds the per step conditions, updated by every step that ran.
	Conditions *ConditionManager
}

// Constructor runs an ordered list of steps front to back.
type Constructor[C any] struct {
	steps []Step[C]
}

func NewConstructor[C any](steps ...Step[C]) *Constructor[C] {
	return &Constructor[C]{steps: steps}
}

// Run executes the steps in order, starting from c.
//
// It stops at the first step that asks for a retry or fails. Every step that ran records its
// outcome as a condition of its own name, stamped with observedGeneration. Steps after the
// stopping point keep whatever condition they had before.
func (p *Constructor[C]) Run(ctx context.Context, conditions *ConditionManager, observedGeneration int64, c C) Construction[C] {
	logger := log.FromContext(ctx)

	for _, step := range p.steps {
		outcome, err := step.Run(ctx, c)
		if err != nil {
			classified := ClassifyError(err)
			conditions.Update(step.Name(), ReadyFailed(classified.Error()), observedGeneration)
			utils.Debug(logger, "construct step failed", "step", step.Name(), "kind", classified.Kind().String(), "error", err)
			return Construction[C]{
				Result:     ConstructionFailed,
				Err:        classified,
				Conditions: conditions,
			}
		}

		c = outcome.Context
		if outcome.Retry {
			conditions.Update(step.Name(), ReadyProgressing(), observedGeneration)
			delay := DefaultRetryDelay
			if outcome.RetryAfter != nil {
				delay = *outcome.RetryAfter
			}
			utils.Debug(logger, "construct step requested retry", "step", step.Name(), "after", delay)
			return Construction[C]{
				Result:     ConstructionRetry,
				Context:    c,
				RetryAfter: delay,
				Conditions: conditions,
			}
		}

		conditions.Update(step.Name(), ReadyComplete(), observedGeneration)
		utils.Trace(logger, "construct step done", "step", step.Name())
	}

	return Construction[C]{
		Result:     ConstructionComplete,
		Context:    c,
		Conditions: conditions,
	}
}
