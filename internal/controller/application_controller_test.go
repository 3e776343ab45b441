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
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/tools/record"
	clocktesting "k8s.io/utils/clock/testing"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/application"
	"github.com/eventplane/topic-operator/internal/constants"
	"github.com/eventplane/topic-operator/internal/kafkatopic"
	"github.com/eventplane/topic-operator/internal/testutil"
)

const pollInterval = 30 * time.Second

func testSettings() kafkatopic.Settings {
	return kafkatopic.Settings{
		Namespace:   testutil.TopicNamespace,
		ClusterName: testutil.ClusterName,
		Partitions:  3,
		Replicas:    1,
	}
}

func kafkaStatus(app *v1alpha1.Application) v1alpha1.KafkaAppStatus {
	status, err := app.KafkaStatus()
	Expect(err).NotTo(HaveOccurred())
	return status
}

func topConditions(app *v1alpha1.Application) []metav1.Condition {
	conditions, err := app.Conditions()
	Expect(err).NotTo(HaveOccurred())
	return conditions
}

func conditionStatus(conditions []metav1.Condition, condType string) metav1.ConditionStatus {
	condition := testutil.FindCondition(conditions, condType)
	if condition == nil {
		return ""
	}
	return condition.Status
}

var _ = Describe("ApplicationController", func() {
	var (
		ctx        context.Context
		k8sClient  client.Client
		reg        *memoryRegistry
		recorder   *record.FakeRecorder
		controller *ApplicationController
		topicKey   client.ObjectKey
	)

	build := func(funcs *interceptor.Funcs, apps ...*v1alpha1.Application) {
		builder := testutil.NewFakeClient()
		if funcs != nil {
			builder = builder.WithInterceptorFuncs(*funcs)
		}
		k8sClient = builder.Build()
		reg = newMemoryRegistry(apps...)
		recorder = record.NewFakeRecorder(100)
		controller = &ApplicationController{
			Registry: reg,
			Reconciler: &application.ApplicationReconciler{
				Client:                k8sClient,
				Settings:              testSettings(),
				ReadinessPollInterval: pollInterval,
				Clock:                 clocktesting.NewFakePassiveClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
			Recorder: recorder,
		}
	}

	getTopic := func() (*unstructured.Unstructured, error) {
		topic := &unstructured.Unstructured{}
		topic.SetGroupVersionKind(testSettings().GVK())
		return topic, k8sClient.Get(ctx, topicKey, topic)
	}

	markTopicReady := func() {
		topic, err := getTopic()
		Expect(err).NotTo(HaveOccurred())
		testutil.WithTopicReady(metav1.ConditionTrue)(topic)
		Expect(k8sClient.Update(ctx, topic)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		topicKey = testSettings().Key("orders")
	})

	It("ignores applications missing from the registry", func() {
		build(nil)

		result, err := controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeFalse())
		Expect(reg.updateCount()).To(BeZero())
	})

	It("provisions a topic and reports readiness once Strimzi does", func() {
		build(nil, testutil.NewApplication("orders"))

		By("storing the finalizer before anything else")
		result, err := controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeTrue())
		Expect(result.RequeueAfter).NotTo(BeNil())
		Expect(*result.RequeueAfter).To(BeZero())
		Expect(reg.stored("orders").Finalizers).To(ConsistOf(constants.ApplicationFinalizer))
		_, err = getTopic()
		Expect(apierrors.IsNotFound(err)).To(BeTrue())

		By("creating the topic and waiting for it")
		result, err = controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeTrue())
		Expect(*result.RequeueAfter).To(Equal(pollInterval))
		topic, err := getTopic()
		Expect(err).NotTo(HaveOccurred())
		Expect(topic.GetLabels()).To(HaveKeyWithValue(constants.LabelStrimziCluster, testutil.ClusterName))

		stored := reg.stored("orders")
		status := kafkaStatus(stored)
		Expect(conditionStatus(status.Conditions, constants.ConditionCreateTopic)).To(Equal(metav1.ConditionTrue))
		Expect(conditionStatus(status.Conditions, constants.ConditionTopicReady)).To(Equal(metav1.ConditionFalse))
		Expect(conditionStatus(topConditions(stored), constants.ConditionKafkaReady)).To(Equal(metav1.ConditionFalse))

		By("completing once the topic is ready")
		markTopicReady()
		result, err = controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeFalse())

		stored = reg.stored("orders")
		status = kafkaStatus(stored)
		Expect(status.ObservedGeneration).To(Equal(int64(1)))
		Expect(conditionStatus(status.Conditions, constants.ConditionTopicReady)).To(Equal(metav1.ConditionTrue))
		Expect(conditionStatus(status.Conditions, constants.ConditionReconciled)).To(Equal(metav1.ConditionTrue))
		Expect(conditionStatus(topConditions(stored), constants.ConditionKafkaReady)).To(Equal(metav1.ConditionTrue))
		Eventually(recorder.Events).Should(Receive(ContainSubstring(constants.ConditionTopicReady + constants.ReasonAsExpected)))
	})

	It("does not write an application that is already converged", func() {
		build(nil, testutil.NewApplication("orders"))

		_, err := controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		_, err = controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		markTopicReady()
		_, err = controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())

		writes := reg.updateCount()
		result, err := controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeFalse())
		Expect(reg.updateCount()).To(Equal(writes))
	})

	It("deletes the topic and then releases the application", func() {
		app := testutil.NewApplication("orders",
			testutil.WithFinalizers(constants.ApplicationFinalizer),
			testutil.WithDeletionTimestamp(),
		)
		build(nil, app)
		Expect(k8sClient.Create(ctx, testutil.NewKafkaTopic(topicKey.Name))).To(Succeed())

		result, err := controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeFalse())

		_, err = getTopic()
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
		Expect(reg.stored("orders").Finalizers).To(BeEmpty())
	})

	It("records a failed delete and keeps the finalizer", func() {
		app := testutil.NewApplication("orders",
			testutil.WithFinalizers(constants.ApplicationFinalizer),
			testutil.WithDeletionTimestamp(),
		)
		build(&interceptor.Funcs{
			Delete: func(_ context.Context, _ client.WithWatch, _ client.Object, _ ...client.DeleteOption) error {
				return apierrors.NewServiceUnavailable("api server down")
			},
		}, app)

		_, err := controller.Reconcile(ctx, "orders")
		Expect(err).To(HaveOccurred())

		stored := reg.stored("orders")
		Expect(stored.Finalizers).To(ConsistOf(constants.ApplicationFinalizer))
		reconciled := testutil.FindCondition(kafkaStatus(stored).Conditions, constants.ConditionReconciled)
		Expect(reconciled).NotTo(BeNil())
		Expect(reconciled.Status).To(Equal(metav1.ConditionFalse))
		Expect(reconciled.Reason).To(Equal(constants.ReasonFailed))
		Expect(reconciled.Message).To(ContainSubstring("api server down"))
	})

	It("does not retry failures that cannot resolve on their own", func() {
		build(nil, testutil.NewApplication("orders",
			testutil.WithRawStatus(constants.StatusConditionsKey, `"not a list"`),
		))

		result, err := controller.Reconcile(ctx, "orders")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Requeue).To(BeFalse())
		Expect(reg.updateCount()).To(BeZero())
	})

	It("returns registry write failures to the caller", func() {
		build(nil, testutil.NewApplication("orders"))
		reg.updateErr = errors.New("registry unavailable")

		_, err := controller.Reconcile(ctx, "orders")
		Expect(err).To(MatchError(ContainSubstring("registry unavailable")))
	})

	It("records events against the topic of the application", func() {
		build(nil)
		ref := controller.topicReference("orders")
		Expect(ref.GroupVersionKind()).To(Equal(schema.GroupVersionKind{
			Group:   constants.KafkaTopicGroup,
			Version: constants.KafkaTopicDefaultVersion,
			Kind:    constants.KafkaTopicKind,
		}))
		Expect(ref.GetNamespace()).To(Equal(testutil.TopicNamespace))
		Expect(ref.GetName()).To(Equal(topicKey.Name))
	})
})
