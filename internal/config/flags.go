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
	"github.com/spf13/pflag"
)

// Flags holds command-line overrides. Only flags that were set on the command line win over
// the file and the environment.
type Flags struct {
	fs       *pflag.FlagSet
	values   Config
	appliers map[string]func(dst, src *Config)
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs, appliers: map[string]func(dst, src *Config){}}
	d := Default()
	v := &f.values

	fs.StringVar(&v.Controller.TopicNamespace, "topic-namespace", "", "Namespace the KafkaTopics are created in.")
	f.on("topic-namespace", func(dst, src *Config) { dst.Controller.TopicNamespace = src.Controller.TopicNamespace })

	fs.StringVar(&v.Controller.ClusterName, "cluster-name", "", "Strimzi Kafka cluster the topics belong to.")
	f.on("cluster-name", func(dst, src *Config) { dst.Controller.ClusterName = src.Controller.ClusterName })

	fs.Int32Var(&v.Controller.Partitions, "partitions", d.Controller.Partitions, "Partitions of new topics.")
	f.on("partitions", func(dst, src *Config) { dst.Controller.Partitions = src.Controller.Partitions })

	fs.Int32Var(&v.Controller.Replicas, "replicas", d.Controller.Replicas, "Replicas of new topics.")
	f.on("replicas", func(dst, src *Config) { dst.Controller.Replicas = src.Controller.Replicas })

	fs.StringVar(&v.Controller.TopicVersion, "topic-version", "", "KafkaTopic API version. Discovered from the CRD when empty.")
	f.on("topic-version", func(dst, src *Config) { dst.Controller.TopicVersion = src.Controller.TopicVersion })

	fs.StringVar(&v.Registry.URL, "registry-url", d.Registry.URL, "Base URL of the application registry.")
	f.on("registry-url", func(dst, src *Config) { dst.Registry.URL = src.Registry.URL })

	fs.StringSliceVar(&v.KafkaSource.Brokers, "kafka-brokers", nil, "Brokers of the registry event stream.")
	f.on("kafka-brokers", func(dst, src *Config) { dst.KafkaSource.Brokers = src.KafkaSource.Brokers })

	fs.StringVar(&v.KafkaSource.Topic, "kafka-topic", "", "Topic of the registry event stream.")
	f.on("kafka-topic", func(dst, src *Config) { dst.KafkaSource.Topic = src.KafkaSource.Topic })

	fs.StringVar(&v.KafkaSource.GroupID, "kafka-group-id", "", "Consumer group for the registry event stream.")
	f.on("kafka-group-id", func(dst, src *Config) { dst.KafkaSource.GroupID = src.KafkaSource.GroupID })

	fs.StringVar(&v.Manager.MetricsBindAddress, "metrics-bind-address", d.Manager.MetricsBindAddress, "Address the metrics endpoint binds to.")
	f.on("metrics-bind-address", func(dst, src *Config) { dst.Manager.MetricsBindAddress = src.Manager.MetricsBindAddress })

	fs.StringVar(&v.Manager.HealthProbeBindAddress, "health-probe-bind-address", d.Manager.HealthProbeBindAddress, "Address the probe endpoint binds to.")
	f.on("health-probe-bind-address", func(dst, src *Config) {
		dst.Manager.HealthProbeBindAddress = src.Manager.HealthProbeBindAddress
	})

	fs.BoolVar(&v.Manager.LeaderElection, "leader-elect", false, "Enable leader election.")
	f.on("leader-elect", func(dst, src *Config) { dst.Manager.LeaderElection = src.Manager.LeaderElection })

	return f
}

func (f *Flags) on(name string, apply func(dst, src *Config)) {
	f.appliers[name] = apply
}

// Apply copies every flag that was set on the command line into cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(flag *pflag.Flag) {
		if apply, ok := f.appliers[flag.Name]; ok {
			apply(cfg, &f.values)
		}
	})
}
