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

package controller

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/application"
	controllerutils "github.com/eventplane/topic-operator/internal/controller/utils"
	"github.com/eventplane/topic-operator/internal/dispatch"
	"github.com/eventplane/topic-operator/internal/registry"
	"github.com/eventplane/topic-operator/internal/utils"
)

const applicationControllerName = "application"

// Registry is where applications are read from and written back to.
type Registry interface {
	GetApplication(ctx context.Context, name string) (*v1alpha1.Application, error)
	UpdateApplication(ctx context.Context, app *v1alpha1.Application) error
}

var _ Registry = &registry.Client{}

// ApplicationController runs one reconcile pass per key: fetch the application, reconcile it,
// and write it back when something changed.
type ApplicationController struct {
	Registry   Registry
	Reconciler *application.ApplicationReconciler
	// Recorder is optional. Condition transitions are recorded on the application's KafkaTopic.
	Recorder record.EventRecorder
}

var _ dispatch.Reconciler = &ApplicationController{}

// +kubebuilder:rbac:groups=kafka.strimzi.io,resources=kafkatopics,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=apiextensions.k8s.io,resources=customresourcedefinitions,verbs=get
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

func (c *ApplicationController) Reconcile(ctx context.Context, key string) (dispatch.Result, error) {
	logger := log.FromContext(ctx)

	app, err := c.Registry.GetApplication(ctx, key)
	if err != nil {
		if registry.IsNotFound(err) {
			utils.Debug(logger, "application not found, nothing to do")
			return dispatch.Result{}, nil
		}
		return dispatch.Result{}, fmt.Errorf("failed to fetch application %s: %w", key, err)
	}

	// The reconciler works on app in place, the snapshot is what the registry holds.
	snapshot := app.DeepCopy()

	outcome, err := c.Reconciler.Reconcile(ctx, app)
	if err != nil {
		return c.recover(ctx, snapshot, err)
	}

	if err := c.persist(ctx, snapshot, outcome.Object); err != nil {
		return dispatch.Result{}, err
	}

	return dispatch.Result{
		Requeue:      outcome.Requeue,
		RequeueAfter: outcome.RequeueAfter,
	}, nil
}

// recover records a failed pass on the snapshot. Temporary failures are retried with backoff.
func (c *ApplicationController) recover(ctx context.Context, snapshot *v1alpha1.Application, cause error) (dispatch.Result, error) {
	logger := log.FromContext(ctx)
	reconcileErr := controllerutils.ClassifyError(cause)

	recovered, err := c.Reconciler.Recover(snapshot.DeepCopy(), reconcileErr.Error())
	if err != nil {
		logger.Error(err, "failed to record reconcile failure", "cause", reconcileErr.Error())
	} else if err := c.persist(ctx, snapshot, recovered); err != nil {
		return dispatch.Result{}, err
	}

	if controllerutils.IsPermanent(reconcileErr) {
		logger.Error(reconcileErr, "reconcile failed permanently, waiting for the next change")
		return dispatch.Result{}, nil
	}
	return dispatch.Result{}, reconcileErr
}

// persist writes updated back when it differs from the snapshot and reports condition changes.
func (c *ApplicationController) persist(ctx context.Context, snapshot, updated *v1alpha1.Application) error {
	if equality.Semantic.DeepEqual(snapshot, updated) {
		utils.Debug(log.FromContext(ctx), "application unchanged, skipping update")
		return nil
	}

	if err := c.Registry.UpdateApplication(ctx, updated); err != nil {
		return fmt.Errorf("failed to update application %s: %w", updated.Name, err)
	}

	c.emitTransitions(ctx, snapshot, updated)
	return nil
}

func (c *ApplicationController) emitTransitions(ctx context.Context, before, after *v1alpha1.Application) {
	// Sections that fail to decode count as empty.
	old, _ := before.KafkaStatus()
	current, _ := after.KafkaStatus()

	transitions := controllerutils.DiffConditionTransitions(old.Conditions, current.Conditions)
	if len(transitions) == 0 {
		return
	}

	manager := controllerutils.NewConditionManager(current.Conditions)
	controllerutils.EmitConditionLogs(ctx, transitions, manager)
	controllerutils.EmitConditionTransitions(c.Recorder, c.topicReference(after.Name), transitions, manager)
}

func (c *ApplicationController) topicReference(application string) *unstructured.Unstructured {
	settings := c.Reconciler.Settings
	key := settings.Key(application)

	ref := &unstructured.Unstructured{}
	ref.SetGroupVersionKind(settings.GVK())
	ref.SetNamespace(key.Namespace)
	ref.SetName(key.Name)
	return ref
}
