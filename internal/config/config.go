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

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/eventplane/topic-operator/internal/utils"
)

// Config is the process configuration.
type Config struct {
	Controller  ControllerConfig  `json:"controller"`
	WorkQueue   WorkQueueConfig   `json:"workQueue"`
	Registry    RegistryConfig    `json:"registry"`
	KafkaSource KafkaSourceConfig `json:"kafkaSource"`
	Manager     ManagerConfig     `json:"manager"`
}

type ControllerConfig struct {
	// TopicNamespace is where KafkaTopics are created.
	TopicNamespace string `json:"topicNamespace"`
	// ClusterName is the Strimzi Kafka cluster the topics belong to.
	ClusterName string `json:"clusterName"`
	Partitions  int32  `json:"partitions"`
	Replicas    int32  `json:"replicas"`
	// TopicVersion pins the KafkaTopic API version. Empty means discover it from the CRD.
	TopicVersion          string          `json:"topicVersion,omitempty"`
	ReadinessPollInterval metav1.Duration `json:"readinessPollInterval"`
}

type WorkQueueConfig struct {
	BaseDelay        metav1.Duration `json:"baseDelay"`
	MaxDelay         metav1.Duration `json:"maxDelay"`
	QPS              float64         `json:"qps"`
	Burst            int             `json:"burst"`
	ReconcileTimeout metav1.Duration `json:"reconcileTimeout"`
}

type RegistryConfig struct {
	URL          string          `json:"url"`
	TokenURL     string          `json:"tokenUrl,omitempty"`
	ClientID     string          `json:"clientId,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
	Scopes       []string        `json:"scopes,omitempty"`
	Timeout      metav1.Duration `json:"timeout"`
}

// KafkaSourceConfig is optional. Without brokers no registry events are consumed.
type KafkaSourceConfig struct {
	Brokers  []string `json:"brokers,omitempty"`
	Topic    string   `json:"topic,omitempty"`
	GroupID  string   `json:"groupId,omitempty"`
	MinBytes int      `json:"minBytes"`
	MaxBytes int      `json:"maxBytes"`
}

func (k KafkaSourceConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type ManagerConfig struct {
	MetricsBindAddress      string `json:"metricsBindAddress"`
	HealthProbeBindAddress  string `json:"healthProbeBindAddress"`
	LeaderElection          bool   `json:"leaderElection"`
	LeaderElectionID        string `json:"leaderElectionId"`
	LeaderElectionNamespace string `json:"leaderElectionNamespace,omitempty"`
}

// Default returns the built-in defaults. Topic namespace and cluster name have none.
func Default() Config {
	return Config{
		Controller: ControllerConfig{
			Partitions:            3,
			Replicas:              1,
			ReadinessPollInterval: metav1.Duration{Duration: 15 * time.Second},
		},
		WorkQueue: WorkQueueConfig{
			BaseDelay:        metav1.Duration{Duration: 5 * time.Millisecond},
			MaxDelay:         metav1.Duration{Duration: 5 * time.Minute},
			QPS:              10,
			Burst:            100,
			ReconcileTimeout: metav1.Duration{Duration: time.Minute},
		},
		Registry: RegistryConfig{
			URL:     "http://registry:8080",
			Timeout: metav1.Duration{Duration: 30 * time.Second},
		},
		KafkaSource: KafkaSourceConfig{
			MinBytes: 1,
			MaxBytes: 10e6,
		},
		Manager: ManagerConfig{
			MetricsBindAddress:     ":8080",
			HealthProbeBindAddress: ":8081",
			LeaderElectionID:       "topic-operator.eventplane.io",
		},
	}
}

// Load reads the optional YAML file at path and applies environment overrides from lookup.
// Fields left empty by both keep their default.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if lookup != nil {
		if err := applyEnv(&cfg, lookup); err != nil {
			return Config{}, err
		}
	}

	merged := Default()
	if err := utils.MergeConfigs(&merged, cfg); err != nil {
		return Config{}, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return merged, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Controller.TopicNamespace == "" {
		errs = append(errs, errors.New("controller.topicNamespace is required"))
	}
	if c.Controller.ClusterName == "" {
		errs = append(errs, errors.New("controller.clusterName is required"))
	}
	if c.Controller.Partitions < 1 {
		errs = append(errs, fmt.Errorf("controller.partitions must be positive, got %d", c.Controller.Partitions))
	}
	if c.Controller.Replicas < 1 {
		errs = append(errs, fmt.Errorf("controller.replicas must be positive, got %d", c.Controller.Replicas))
	}

	if c.WorkQueue.BaseDelay.Duration > c.WorkQueue.MaxDelay.Duration {
		errs = append(errs, fmt.Errorf("workQueue.baseDelay %s exceeds maxDelay %s", c.WorkQueue.BaseDelay.Duration, c.WorkQueue.MaxDelay.Duration))
	}

	if u, err := url.Parse(c.Registry.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("registry.url %q is not an absolute URL", c.Registry.URL))
	}
	if c.Registry.ClientID != "" && c.Registry.TokenURL == "" {
		errs = append(errs, errors.New("registry.tokenUrl is required with registry.clientId"))
	}

	if c.KafkaSource.Enabled() {
		if c.KafkaSource.Topic == "" {
			errs = append(errs, errors.New("kafkaSource.topic is required with kafkaSource.brokers"))
		}
		if c.KafkaSource.GroupID == "" {
			errs = append(errs, errors.New("kafkaSource.groupId is required with kafkaSource.brokers"))
		}
	}

	return errors.Join(errs...)
}
