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
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/internal/utils"
)

// ReconcileState is the path a reconcile pass takes for one object version.
type ReconcileState int

const (
	// StateConstruct drives the external resources toward the desired state.
	StateConstruct ReconcileState = iota
	// StateDeconstruct removes the external resources and then the finalizer.
	StateDeconstruct
	// StateIgnore leaves the object alone.
	StateIgnore
)

func (s ReconcileState) String() string {
	switch s {
	case StateConstruct:
		return "Construct"
	case StateDeconstruct:
		return "Deconstruct"
	default:
		return "Ignore"
	}
}

// EvalState picks the reconcile path from the finalizer and deletion markers.
// An object that is not being deleted is always constructed, whether or not it already
// carries the finalizer.
func EvalState(hasFinalizer, deleted bool) ReconcileState {
	switch {
	case !deleted:
		return StateConstruct
	case hasFinalizer:
		return StateDeconstruct
	default:
		return StateIgnore
	}
}

// ProcessOutcome tells the caller what to persist and whether to come back.
type ProcessOutcome[T any] struct {
	Object T
	// Requeue asks for another pass.
	Requeue bool
	// RequeueAfter is the delay before the next pass. Nil with Requeue set selects the
	// caller's backoff policy.
	RequeueAfter *time.Duration
}

// OutcomeComplete reports a finished pass.
func OutcomeComplete[T any](obj T) ProcessOutcome[T] {
	return ProcessOutcome[T]{Object: obj}
}

// OutcomeRetry asks for another pass after the given delay, or with backoff when after is nil.
func OutcomeRetry[T any](obj T, after *time.Duration) ProcessOutcome[T] {
	return ProcessOutcome[T]{Object: obj, Requeue: true, RequeueAfter: after}
}

// StateReconciler implements the construct and deconstruct paths for one kind of object.
type StateReconciler[T client.Object] interface {
	Construct(ctx context.Context, obj T) (ProcessOutcome[T], error)
	Deconstruct(ctx context.Context, obj T) (ProcessOutcome[T], error)
}

// Process evaluates the reconcile state of obj and runs the matching path.
// The ignore path hands obj back unchanged.
func Process[T client.Object](ctx context.Context, finalizer string, obj T, r StateReconciler[T]) (ProcessOutcome[T], error) {
	state := EvalState(controllerutil.ContainsFinalizer(obj, finalizer), obj.GetDeletionTimestamp() != nil)
	utils.Debug(log.FromContext(ctx), "evaluated reconcile state", "state", state.String())

	switch state {
	case StateConstruct:
		return r.Construct(ctx, obj)
	case StateDeconstruct:
		return r.Deconstruct(ctx, obj)
	case StateIgnore:
		return OutcomeComplete(obj), nil
	default:
		return ProcessOutcome[T]{}, fmt.Errorf("unknown reconcile state %d", state)
	}
}
