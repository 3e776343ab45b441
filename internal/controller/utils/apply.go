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

	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
)

// MutateFunc writes the desired state into obj. It is applied to a fresh object when
// creating and to a copy of the observed object when updating.
type MutateFunc func(obj *unstructured.Unstructured) error

// EqualFunc reports whether the observed object already matches the desired one.
type EqualFunc func(observed, desired *unstructured.Unstructured) bool

// Ensure creates or updates a single object so that it matches the desired state.
//
// The object is fetched first. A missing object is built with mutate and created. An existing
// object is copied, mutated and written back only when equal reports a difference, so calling
// Ensure again with the same desired state issues no write.
//
// API failures are returned as temporary errors, mutate failures as permanent ones.
func Ensure(
	ctx context.Context,
	c client.Client,
	gvk schema.GroupVersionKind,
	key client.ObjectKey,
	mutate MutateFunc,
	equal EqualFunc,
) (*unstructured.Unstructured, controllerutil.OperationResult, error) {
	observed := &unstructured.Unstructured{}
	observed.SetGroupVersionKind(gvk)

	if err := c.Get(ctx, key, observed); err != nil {
		if !apierrors.IsNotFound(err) {
			return nil, controllerutil.OperationResultNone,
				NewTemporaryError("FetchFailed", fmt.Sprintf("failed to get %s %s", gvk.Kind, key), err)
		}

		created := &unstructured.Unstructured{}
		created.SetGroupVersionKind(gvk)
		created.SetNamespace(key.Namespace)
		created.SetName(key.Name)
		if err := mutate(created); err != nil {
			return nil, controllerutil.OperationResultNone,
				NewPermanentError("InvalidDesiredState", err.Error(), err)
		}
		if err := c.Create(ctx, created); err != nil {
			return nil, controllerutil.OperationResultNone,
				NewTemporaryError("CreateFailed", fmt.Sprintf("failed to create %s %s: %v", gvk.Kind, key, err), err)
		}
		return created, controllerutil.OperationResultCreated, nil
	}

	desired := observed.DeepCopy()
	if err := mutate(desired); err != nil {
		return nil, controllerutil.OperationResultNone,
			NewPermanentError("InvalidDesiredState", err.Error(), err)
	}
	if equal(observed, desired) {
		return observed, controllerutil.OperationResultNone, nil
	}

	if err := c.Update(ctx, desired); err != nil {
		return nil, controllerutil.OperationResultNone,
			NewTemporaryError("UpdateFailed", fmt.Sprintf("failed to update %s %s: %v", gvk.Kind, key, err), err)
	}
	return desired, controllerutil.OperationResultUpdated, nil
}

// MetadataAndSpecEqual compares labels, annotations and spec of two objects.
// Status is owned by whoever runs the object and never takes part in the comparison.
// A spec that is present but not an object never matches, so Ensure rewrites it.
func MetadataAndSpecEqual(observed, desired *unstructured.Unstructured) bool {
	if !equality.Semantic.DeepEqual(observed.GetLabels(), desired.GetLabels()) {
		return false
	}
	if !equality.Semantic.DeepEqual(observed.GetAnnotations(), desired.GetAnnotations()) {
		return false
	}
	observedSpec, err := specOf(observed)
	if err != nil {
		return false
	}
	desiredSpec, err := specOf(desired)
	if err != nil {
		return false
	}
	return equality.Semantic.DeepEqual(observedSpec, desiredSpec)
}

func specOf(obj *unstructured.Unstructured) (map[string]any, error) {
	spec, found, err := unstructured.NestedFieldNoCopy(obj.Object, "spec")
	if err != nil || !found {
		return nil, err
	}
	m, ok := spec.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("spec of %s is %T, not an object", obj.GetName(), spec)
	}
	return m, nil
}

// DeleteIfExists deletes the object with the given key. An object that is already gone
// counts as deleted.
func DeleteIfExists(ctx context.Context, c client.Client, gvk schema.GroupVersionKind, key client.ObjectKey) (bool, error) {
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(gvk)
	obj.SetNamespace(key.Namespace)
	obj.SetName(key.Name)

	if err := c.Delete(ctx, obj); err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, NewTemporaryError("DeleteFailed", fmt.Sprintf("failed to delete %s %s: %v", gvk.Kind, key, err), err)
	}
	return true, nil
}
