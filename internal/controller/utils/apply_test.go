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
	"errors"
	"testing"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/testutil"
)

type writeCounter struct {
	creates int
	updates int
	deletes int
}

func (w *writeCounter) funcs() interceptor.Funcs {
	return interceptor.Funcs{
		Create: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
			w.creates++
			return c.Create(ctx, obj, opts...)
		},
		Update: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.UpdateOption) error {
			w.updates++
			return c.Update(ctx, obj, opts...)
		},
		Delete: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.DeleteOption) error {
			w.deletes++
			return c.Delete(ctx, obj, opts...)
		},
	}
}

func (w *writeCounter) writes() int {
	return w.creates + w.updates + w.deletes
}

func topicMutator(partitions int64) MutateFunc {
	return func(obj *unstructured.Unstructured) error {
		obj.SetLabels(map[string]string{"strimzi.io/cluster": "c1"})
		return unstructured.SetNestedMap(obj.Object, map[string]any{
			"topicName":  obj.GetName(),
			"partitions": partitions,
			"replicas":   int64(1),
			"config":     map[string]any{},
		}, "spec")
	}
}

var topicKey = client.ObjectKey{Namespace: testutil.TopicNamespace, Name: "events-foo"}

func TestEnsure_CreatesThenNoop(t *testing.T) {
	counter := &writeCounter{}
	c := testutil.NewFakeClient().WithInterceptorFuncs(counter.funcs()).Build()
	gvk := v1alpha1.KafkaTopicGVK("")
	ctx := context.Background()

	obj, result, err := Ensure(ctx, c, gvk, topicKey, topicMutator(3), MetadataAndSpecEqual)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if result != controllerutil.OperationResultCreated {
		t.Errorf("expected created, got %s", result)
	}
	if obj.GetName() != "events-foo" {
		t.Errorf("unexpected name %s", obj.GetName())
	}

	_, result, err = Ensure(ctx, c, gvk, topicKey, topicMutator(3), MetadataAndSpecEqual)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if result != controllerutil.OperationResultNone {
		t.Errorf("expected no-op, got %s", result)
	}
	if counter.writes() != 1 {
		t.Errorf("expected exactly one write, got %d", counter.writes())
	}
}

func TestEnsure_UpdatesOnSpecChange(t *testing.T) {
	counter := &writeCounter{}
	c := testutil.NewFakeClient().WithInterceptorFuncs(counter.funcs()).Build()
	gvk := v1alpha1.KafkaTopicGVK("")
	ctx := context.Background()

	if _, _, err := Ensure(ctx, c, gvk, topicKey, topicMutator(3), MetadataAndSpecEqual); err != nil {
		t.Fatalf("create: %v", err)
	}
	obj, result, err := Ensure(ctx, c, gvk, topicKey, topicMutator(6), MetadataAndSpecEqual)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result != controllerutil.OperationResultUpdated {
		t.Errorf("expected updated, got %s", result)
	}
	partitions, _, _ := unstructured.NestedInt64(obj.Object, "spec", "partitions")
	if partitions != 6 {
		t.Errorf("expected 6 partitions, got %d", partitions)
	}
	if counter.creates != 1 || counter.updates != 1 {
		t.Errorf("expected one create and one update, got %d/%d", counter.creates, counter.updates)
	}
}

func TestEnsure_IgnoresStatus(t *testing.T) {
	existing := testutil.NewKafkaTopic("events-foo", testutil.WithTopicReady("True"))
	if err := topicMutator(3)(existing); err != nil {
		t.Fatal(err)
	}
	counter := &writeCounter{}
	c := testutil.NewFakeClient(existing).WithInterceptorFuncs(counter.funcs()).Build()

	obj, result, err := Ensure(context.Background(), c, v1alpha1.KafkaTopicGVK(""), topicKey, topicMutator(3), MetadataAndSpecEqual)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if result != controllerutil.OperationResultNone || counter.writes() != 0 {
		t.Errorf("expected no write, got %s with %d writes", result, counter.writes())
	}
	if _, found, _ := unstructured.NestedSlice(obj.Object, "status", "conditions"); !found {
		t.Error("expected observed status to be returned")
	}
}

func TestEnsure_GetFailureIsTemporary(t *testing.T) {
	c := testutil.NewFakeClient().WithInterceptorFuncs(interceptor.Funcs{
		Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
			return apierrors.NewServiceUnavailable("down")
		},
	}).Build()

	_, _, err := Ensure(context.Background(), c, v1alpha1.KafkaTopicGVK(""), topicKey, topicMutator(3), MetadataAndSpecEqual)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Error("expected temporary error")
	}
}

func TestEnsure_CreateRejectionIsTemporary(t *testing.T) {
	gk := schema.GroupKind{Group: "kafka.strimzi.io", Kind: "KafkaTopic"}
	c := testutil.NewFakeClient().WithInterceptorFuncs(interceptor.Funcs{
		Create: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
			return apierrors.NewInvalid(gk, obj.GetName(), nil)
		},
	}).Build()

	_, _, err := Ensure(context.Background(), c, v1alpha1.KafkaTopicGVK(""), topicKey, topicMutator(3), MetadataAndSpecEqual)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Error("expected API failures to be retried")
	}
}

func TestEnsure_MutateFailureIsPermanent(t *testing.T) {
	c := testutil.NewFakeClient().Build()
	mutate := func(*unstructured.Unstructured) error { return errors.New("cannot build") }

	_, _, err := Ensure(context.Background(), c, v1alpha1.KafkaTopicGVK(""), topicKey, mutate, MetadataAndSpecEqual)
	if !IsPermanent(err) {
		t.Errorf("expected permanent error, got %v", err)
	}
}

func TestMetadataAndSpecEqual(t *testing.T) {
	base := testutil.NewKafkaTopic("t")
	_ = topicMutator(3)(base)

	same := base.DeepCopy()
	_ = unstructured.SetNestedField(same.Object, "changed", "status", "anything")
	if !MetadataAndSpecEqual(base, same) {
		t.Error("status must not count as a difference")
	}

	relabeled := base.DeepCopy()
	relabeled.SetLabels(map[string]string{"strimzi.io/cluster": "other"})
	if MetadataAndSpecEqual(base, relabeled) {
		t.Error("expected label change to be detected")
	}

	annotated := base.DeepCopy()
	annotated.SetAnnotations(map[string]string{"x": "y"})
	if MetadataAndSpecEqual(base, annotated) {
		t.Error("expected annotation change to be detected")
	}

	respecced := base.DeepCopy()
	_ = unstructured.SetNestedField(respecced.Object, int64(9), "spec", "partitions")
	if MetadataAndSpecEqual(base, respecced) {
		t.Error("expected spec change to be detected")
	}
}

func TestMetadataAndSpecEqual_MalformedSpec(t *testing.T) {
	broken := testutil.NewKafkaTopic("t")
	broken.Object["spec"] = "partitions=3"

	if MetadataAndSpecEqual(broken, broken.DeepCopy()) {
		t.Error("a spec that is not an object must never match")
	}

	missing := testutil.NewKafkaTopic("t")
	if !MetadataAndSpecEqual(missing, missing.DeepCopy()) {
		t.Error("two objects without spec should match")
	}
}

func TestEnsure_RewritesMalformedSpec(t *testing.T) {
	broken := testutil.NewKafkaTopic(topicKey.Name)
	broken.SetLabels(map[string]string{"strimzi.io/cluster": "c1"})
	broken.Object["spec"] = "partitions=3"

	counter := &writeCounter{}
	c := testutil.NewFakeClient(broken).WithInterceptorFuncs(counter.funcs()).Build()
	gvk := v1alpha1.KafkaTopicGVK("")

	obj, result, err := Ensure(context.Background(), c, gvk, topicKey, topicMutator(3), MetadataAndSpecEqual)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if result != controllerutil.OperationResultUpdated {
		t.Errorf("expected updated, got %s", result)
	}
	partitions, found, _ := unstructured.NestedInt64(obj.Object, "spec", "partitions")
	if !found || partitions != 3 {
		t.Errorf("expected spec rewritten with 3 partitions, got %d (found=%v)", partitions, found)
	}
	if counter.updates != 1 || counter.writes() != 1 {
		t.Errorf("expected exactly one update, got %d creates %d updates", counter.creates, counter.updates)
	}
}

func TestDeleteIfExists(t *testing.T) {
	existing := testutil.NewKafkaTopic("events-foo")
	counter := &writeCounter{}
	c := testutil.NewFakeClient(existing).WithInterceptorFuncs(counter.funcs()).Build()
	gvk := v1alpha1.KafkaTopicGVK("")

	deleted, err := DeleteIfExists(context.Background(), c, gvk, topicKey)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got %v/%v", deleted, err)
	}

	deleted, err = DeleteIfExists(context.Background(), c, gvk, topicKey)
	if err != nil {
		t.Fatalf("expected missing object to count as deleted: %v", err)
	}
	if deleted {
		t.Error("expected nothing to delete the second time")
	}
}
