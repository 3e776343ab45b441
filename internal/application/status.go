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
	"k8s.io/utils/clock"

	"github.com/eventplane/topic-operator/api/v1alpha1"
	"github.com/eventplane/topic-operator/internal/constants"
	controllerutils "github.com/eventplane/topic-operator/internal/controller/utils"
)

// sectionConditions returns the conditions of the kafka status section. A section that cannot
// be decoded is treated as empty, the next write replaces it.
func sectionConditions(app *v1alpha1.Application, clk clock.PassiveClock) *controllerutils.ConditionManager {
	status, err := app.KafkaStatus()
	if err != nil {
		return controllerutils.NewConditionManagerWithClock(nil, clk)
	}
	return controllerutils.NewConditionManagerWithClock(status.Conditions, clk)
}

// finishReady writes the kafka status section and the KafkaReady summary into app.
// Top-level conditions of other types are left as they are.
func finishReady(app *v1alpha1.Application, cm *controllerutils.ConditionManager, observedGeneration int64, clk clock.PassiveClock) error {
	conditions := cm.Conditions()

	if err := app.SetSection(constants.StatusSectionKafka, v1alpha1.KafkaAppStatus{
		ObservedGeneration: observedGeneration,
		Conditions:         conditions,
	}); err != nil {
		return err
	}

	existing, err := app.Conditions()
	if err != nil {
		return controllerutils.NewPermanentError("InvalidStatus", "top-level conditions cannot be decoded", err)
	}
	top := controllerutils.NewConditionManagerWithClock(existing, clk)
	top.Update(constants.ConditionKafkaReady, controllerutils.AggregateReady(conditions), observedGeneration)

	return app.SetConditions(top.Conditions())
}
