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

package application

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/constants"
	controllerutils "github.com/eventplane/topic-operator/internal/controller/utils"
	"github.com/eventplane/topic-operator/internal/kafkatopic"
	"github.com/eventplane/topic-operator/internal/utils"
)

// DefaultReadinessPollInterval is how long to wait before looking at a topic that is not ready yet.
const DefaultReadinessPollInterval = 15 * time.Second

type (
	Outcome      = controllerutils.ProcessOutcome[*v1alpha1.Application]
	Construction = controllerutils.Construction[*constructContext]
)

// ApplicationReconciler provisions a Strimzi KafkaTopic for each application.
type ApplicationReconciler struct {
	Client   client.Client
	Settings kafkatopic.Settings
	// ReadinessPollInterval defaults to DefaultReadinessPollInterval.
	ReadinessPollInterval time.Duration
	// Clock defaults to the real clock.
	Clock clock.PassiveClock
}

var _ controllerutils.StateReconciler[*v1alpha1.Application] = &ApplicationReconciler{}

type constructContext struct {
	app   *v1alpha1.Application
	topic *unstructured.Unstructured
}

// Reconcile runs one pass for app and returns the object to persist.
func (r *ApplicationReconciler) Reconcile(ctx context.Context, app *v1alpha1.Application) (Outcome, error) {
	return controllerutils.Process(ctx, constants.ApplicationFinalizer, app, r)
}

// Construct runs the construct steps and records their outcome in the kafka status section.
// A failure is recorded on a copy of app taken before any step ran.
func (r *ApplicationReconciler) Construct(ctx context.Context, app *v1alpha1.Application) (Outcome, error) {
	ctx = log.IntoContext(ctx, log.FromContext(ctx).WithValues("phase", "construct"))
	original := app.DeepCopy()
	generation := app.Generation

	cm := sectionConditions(app, r.clock())
	construction := r.constructor().Run(ctx, cm, generation, &constructContext{app: app})

	return r.conclude(ctx, original, construction, generation)
}

// conclude turns a construction into the outcome to persist.
func (r *ApplicationReconciler) conclude(ctx context.Context, original *v1alpha1.Application, construction Construction, generation int64) (Outcome, error) {
	cm := construction.Conditions

	switch construction.Result {
	case controllerutils.ConstructionComplete:
		cm.Update(constants.ConditionReconciled, controllerutils.ReadyComplete(), generation)
		if err := finishReady(construction.Context.app, cm, generation, r.clock()); err != nil {
			return Outcome{}, err
		}
		return controllerutils.OutcomeComplete(construction.Context.app), nil

	case controllerutils.ConstructionRetry:
		cm.Update(constants.ConditionReconciled, controllerutils.ReadyProgressing(), generation)
		if err := finishReady(construction.Context.app, cm, generation, r.clock()); err != nil {
			return Outcome{}, err
		}
		after := construction.RetryAfter
		return controllerutils.OutcomeRetry(construction.Context.app, &after), nil

	default:
		cm.Update(constants.ConditionReconciled, controllerutils.ReadyFailed(construction.Err.Error()), generation)
		if err := finishReady(original, cm, generation, r.clock()); err != nil {
			return Outcome{}, err
		}
		if controllerutils.IsPermanent(construction.Err) {
			log.FromContext(ctx).Error(construction.Err, "construction failed permanently")
			return controllerutils.OutcomeComplete(original), nil
		}
		return controllerutils.OutcomeRetry(original, nil), nil
	}
}

// Deconstruct deletes the topic and then drops the finalizer. The finalizer stays in place
// until the delete call succeeded or the topic was found missing.
func (r *ApplicationReconciler) Deconstruct(ctx context.Context, app *v1alpha1.Application) (Outcome, error) {
	logger := log.FromContext(ctx).WithValues("phase", "deconstruct")

	deleted, err := kafkatopic.Delete(ctx, r.Client, r.Settings, app.Name)
	if err != nil {
		return Outcome{}, err
	}
	utils.Debug(logger, "topic removed", "topic", r.Settings.Key(app.Name).Name, "deleted", deleted)

	controllerutil.RemoveFinalizer(app, constants.ApplicationFinalizer)
	return controllerutils.OutcomeComplete(app), nil
}

// Recover records a failed reconcile pass on app.
func (r *ApplicationReconciler) Recover(app *v1alpha1.Application, message string) (*v1alpha1.Application, error) {
	cm := sectionConditions(app, r.clock())
	cm.Update(constants.ConditionReconciled, controllerutils.ReadyFailed(message), app.Generation)
	if err := finishReady(app, cm, app.Generation, r.clock()); err != nil {
		return nil, err
	}
	return app, nil
}

func (r *ApplicationReconciler) constructor() *controllerutils.Constructor[*constructContext] {
	return controllerutils.NewConstructor(
		controllerutils.StepFunc(constants.ConditionHasFinalizer, r.ensureFinalizer),
		controllerutils.StepFunc(constants.ConditionCreateTopic, r.ensureTopic),
		&topicReadyStep{pollInterval: r.pollInterval()},
	)
}

// ensureFinalizer adds the finalizer and asks for an immediate retry, so that the finalizer is
// stored before the topic exists.
func (r *ApplicationReconciler) ensureFinalizer(_ context.Context, c *constructContext) (controllerutils.StepOutcome[*constructContext], error) {
	if controllerutil.AddFinalizer(c.app, constants.ApplicationFinalizer) {
		return controllerutils.Retry(c, nil), nil
	}
	return controllerutils.Continue(c), nil
}

func (r *ApplicationReconciler) ensureTopic(ctx context.Context, c *constructContext) (controllerutils.StepOutcome[*constructContext], error) {
	topic, result, err := kafkatopic.Ensure(ctx, r.Client, r.Settings, c.app.Name)
	if err != nil {
		return controllerutils.StepOutcome[*constructContext]{}, err
	}
	utils.Debug(log.FromContext(ctx), "topic ensured", "topic", topic.GetName(), "result", result)
	c.topic = topic
	return controllerutils.Continue(c), nil
}

// topicReadyStep waits for Strimzi to report the topic as ready.
type topicReadyStep struct {
	pollInterval time.Duration
}

func (s *topicReadyStep) Name() string {
	return constants.ConditionTopicReady
}

func (s *topicReadyStep) Run(_ context.Context, c *constructContext) (controllerutils.StepOutcome[*constructContext], error) {
	if ready := kafkatopic.Readiness(c.topic); ready != nil && *ready {
		return controllerutils.Continue(c), nil
	}
	after := s.pollInterval
	return controllerutils.Retry(c, &after), nil
}

func (r *ApplicationReconciler) clock() clock.PassiveClock {
	if r.Clock == nil {
		return clock.RealClock{}
	}
	return r.Clock
}

func (r *ApplicationReconciler) pollInterval() time.Duration {
	if r.ReadinessPollInterval <= 0 {
		return DefaultReadinessPollInterval
	}
	return r.ReadinessPollInterval
}
