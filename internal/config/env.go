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
	"strconv"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Environment keys are SECTION__FIELD, for example CONTROLLER__TOPIC_NAMESPACE.
type envBinding struct {
	key string
	set func(string) error
}

func envBindings(c *Config) []envBinding {
	return []envBinding{
		stringEnv("CONTROLLER__TOPIC_NAMESPACE", &c.Controller.TopicNamespace),
		stringEnv("CONTROLLER__CLUSTER_NAME", &c.Controller.ClusterName),
		int32Env("CONTROLLER__PARTITIONS", &c.Controller.Partitions),
		int32Env("CONTROLLER__REPLICAS", &c.Controller.Replicas),
		stringEnv("CONTROLLER__TOPIC_VERSION", &c.Controller.TopicVersion),
		durationEnv("CONTROLLER__READINESS_POLL_INTERVAL", &c.Controller.ReadinessPollInterval),

		durationEnv("WORK_QUEUE__BASE_DELAY", &c.WorkQueue.BaseDelay),
		durationEnv("WORK_QUEUE__MAX_DELAY", &c.WorkQueue.MaxDelay),
		floatEnv("WORK_QUEUE__QPS", &c.WorkQueue.QPS),
		intEnv("WORK_QUEUE__BURST", &c.WorkQueue.Burst),
		durationEnv("WORK_QUEUE__RECONCILE_TIMEOUT", &c.WorkQueue.ReconcileTimeout),

		stringEnv("REGISTRY__URL", &c.Registry.URL),
		stringEnv("REGISTRY__TOKEN_URL", &c.Registry.TokenURL),
		stringEnv("REGISTRY__CLIENT_ID", &c.Registry.ClientID),
		stringEnv("REGISTRY__CLIENT_SECRET", &c.Registry.ClientSecret),
		listEnv("REGISTRY__SCOPES", &c.Registry.Scopes),
		durationEnv("REGISTRY__TIMEOUT", &c.Registry.Timeout),

		listEnv("KAFKA_SOURCE__BROKERS", &c.KafkaSource.Brokers),
		stringEnv("KAFKA_SOURCE__TOPIC", &c.KafkaSource.Topic),
		stringEnv("KAFKA_SOURCE__GROUP_ID", &c.KafkaSource.GroupID),
		intEnv("KAFKA_SOURCE__MIN_BYTES", &c.KafkaSource.MinBytes),
		intEnv("KAFKA_SOURCE__MAX_BYTES", &c.KafkaSource.MaxBytes),

		stringEnv("MANAGER__METRICS_BIND_ADDRESS", &c.Manager.MetricsBindAddress),
		stringEnv("MANAGER__HEALTH_PROBE_BIND_ADDRESS", &c.Manager.HealthProbeBindAddress),
		boolEnv("MANAGER__LEADER_ELECTION", &c.Manager.LeaderElection),
		stringEnv("MANAGER__LEADER_ELECTION_ID", &c.Manager.LeaderElectionID),
		stringEnv("MANAGER__LEADER_ELECTION_NAMESPACE", &c.Manager.LeaderElectionNamespace),
	}
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	var errs []error
	for _, binding := range envBindings(c) {
		value, ok := lookup(binding.key)
		if !ok {
			continue
		}
		if err := binding.set(strings.TrimSpace(value)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", binding.key, err))
		}
	}
	return errors.Join(errs...)
}

func stringEnv(key string, target *string) envBinding {
	return envBinding{key, func(v string) error {
		*target = v
		return nil
	}}
}

func listEnv(key string, target *[]string) envBinding {
	return envBinding{key, func(v string) error {
		var items []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*target = items
		return nil
	}}
}

func intEnv(key string, target *int) envBinding {
	return envBinding{key, func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*target = n
		return nil
	}}
}

func int32Env(key string, target *int32) envBinding {
	return envBinding{key, func(v string) error {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return err
		}
		*target = int32(n)
		return nil
	}}
}

func floatEnv(key string, target *float64) envBinding {
	return envBinding{key, func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*target = f
		return nil
	}}
}

func boolEnv(key string, target *bool) envBinding {
	return envBinding{key, func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*target = b
		return nil
	}}
}

func durationEnv(key string, target *metav1.Duration) envBinding {
	return envBinding{key, func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*target = metav1.Duration{Duration: d}
		return nil
	}}
}
