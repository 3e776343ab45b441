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

package kafkatopic

import (
	"context"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/internal/constants"
)

// DiscoverVersion returns the KafkaTopic version to talk to, read from the installed CRD.
// The served storage version wins, then the first served version. A missing CRD falls back to
// the default version so the operator can start before Strimzi is installed.
func DiscoverVersion(ctx context.Context, reader client.Reader) (string, error) {
	crd := &apiextensionsv1.CustomResourceDefinition{}
	if err := reader.Get(ctx, client.ObjectKey{Name: constants.KafkaTopicCRDName}, crd); err != nil {
		if apierrors.IsNotFound(err) {
			log.FromContext(ctx).Info("KafkaTopic CRD not installed, using default version",
				"version", constants.KafkaTopicDefaultVersion)
			return constants.KafkaTopicDefaultVersion, nil
		}
		return "", fmt.Errorf("failed to read CRD %s: %w", constants.KafkaTopicCRDName, err)
	}

	return servedVersion(crd)
}

func servedVersion(crd *apiextensionsv1.CustomResourceDefinition) (string, error) {
	var firstServed string
	for _, v := range crd.Spec.Versions {
		if !v.Served {
			continue
		}
		if v.Storage {
			return v.Name, nil
		}
		if firstServed == "" {
			firstServed = v.Name
		}
	}
	if firstServed == "" {
		return "", fmt.Errorf("CRD %s serves no version", crd.Name)
	}
	return firstServed, nil
}
