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

package constants

const (
	// LabelDomain is the base domain used for labels and annotations owned by this operator.
	LabelDomain = "eventplane.io"

	// ApplicationFinalizer blocks deletion of an application until its topic is gone.
	ApplicationFinalizer = "kafka"

	// AnnotationApplicationName maps a KafkaTopic back to the application it belongs to.
	AnnotationApplicationName = LabelDomain + "/application-name"

	// LabelStrimziCluster selects the Kafka cluster whose topic operator manages a KafkaTopic.
	LabelStrimziCluster = "strimzi.io/cluster"

	// TopicNamePrefix is the prefix of topic names that are derived without hashing.
	TopicNamePrefix = "events-"

	// TopicHashedNamePrefix is the prefix of topic names that fall back to hashing.
	TopicHashedNamePrefix = "evt-"
)

// Status sections
const (
	// StatusSectionKafka holds the conditions owned by this operator.
	StatusSectionKafka = "kafka"

	// StatusConditionsKey is the key of the top-level condition list in an application status.
	StatusConditionsKey = "conditions"
)

// Condition types
const (
	// ConditionKafkaReady is the aggregated readiness of the kafka section.
	ConditionKafkaReady = "KafkaReady"

	// ConditionReconciled reports the outcome of the last reconcile pass.
	ConditionReconciled = "Reconciled"

	// Per step conditions
	ConditionHasFinalizer = "HasFinalizer"
	ConditionCreateTopic  = "CreateTopic"
	ConditionTopicReady   = "TopicReady"
)

// Condition reasons
const (
	ReasonAsExpected  = "AsExpected"
	ReasonProgressing = "Progressing"
	ReasonFailed      = "Failed"
	ReasonNotReady    = "NotReady"
)

// Strimzi KafkaTopic resource
const (
	KafkaTopicGroup          = "kafka.strimzi.io"
	KafkaTopicKind           = "KafkaTopic"
	KafkaTopicDefaultVersion = "v1beta2"
	KafkaTopicCRDName        = "kafkatopics." + KafkaTopicGroup

	// KafkaTopicReadyCondition is the condition type Strimzi uses to report topic readiness.
	KafkaTopicReadyCondition = "Ready"
)

// Registry event stream
const (
	// EventKindApplication is the kind of registry events that concern applications.
	EventKindApplication = "Application"

	// EventPathCreated is the change path reported when an application is created.
	EventPathCreated = "."

	// EventPathMetadata is the change path reported when application metadata changes.
	EventPathMetadata = ".metadata"
)
