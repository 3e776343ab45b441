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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/eventplane/topic-operator/internal/application"
	"github.com/eventplane/topic-operator/internal/config"
	"github.com/eventplane/topic-operator/internal/controller"
	"github.com/eventplane/topic-operator/internal/dispatch"
	"github.com/eventplane/topic-operator/internal/events"
	"github.com/eventplane/topic-operator/internal/kafkatopic"
	"github.com/eventplane/topic-operator/internal/registry"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(apiextensionsv1.AddToScheme(scheme))
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	zapOpts := zap.Options{}

	cmd := &cobra.Command{
		Use:          "topic-operator",
		Short:        "Provision Strimzi KafkaTopics for registry applications",
		SilenceUsage: true,
	}

	flags := config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file.")

	goFlags := flag.NewFlagSet("zap", flag.ExitOnError)
	zapOpts.BindFlags(goFlags)
	cmd.Flags().AddGoFlagSet(goFlags)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts)))

		cfg, err := config.Load(configPath, os.LookupEnv)
		if err != nil {
			return err
		}
		flags.Apply(&cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		return run(ctrl.SetupSignalHandler(), cfg)
	}

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                  scheme,
		Metrics:                 metricsserver.Options{BindAddress: cfg.Manager.MetricsBindAddress},
		HealthProbeBindAddress:  cfg.Manager.HealthProbeBindAddress,
		LeaderElection:          cfg.Manager.LeaderElection,
		LeaderElectionID:        cfg.Manager.LeaderElectionID,
		LeaderElectionNamespace: cfg.Manager.LeaderElectionNamespace,
		Cache: cache.Options{
			DefaultNamespaces: map[string]cache.Config{cfg.Controller.TopicNamespace: {}},
		},
	})
	if err != nil {
		setupLog.Error(err, "unable to create manager")
		return err
	}

	version := cfg.Controller.TopicVersion
	if version == "" {
		if version, err = kafkatopic.DiscoverVersion(ctx, mgr.GetAPIReader()); err != nil {
			setupLog.Error(err, "unable to discover KafkaTopic version")
			return err
		}
	}
	settings := kafkatopic.Settings{
		Namespace:   cfg.Controller.TopicNamespace,
		ClusterName: cfg.Controller.ClusterName,
		Partitions:  cfg.Controller.Partitions,
		Replicas:    cfg.Controller.Replicas,
		Version:     version,
	}
	setupLog.Info("provisioning topics", "namespace", settings.Namespace, "cluster", settings.ClusterName, "version", version)

	registryClient, err := registry.NewClient(ctx, registry.Options{
		URL:          cfg.Registry.URL,
		TokenURL:     cfg.Registry.TokenURL,
		ClientID:     cfg.Registry.ClientID,
		ClientSecret: cfg.Registry.ClientSecret,
		Scopes:       cfg.Registry.Scopes,
		Timeout:      cfg.Registry.Timeout.Duration,
	})
	if err != nil {
		setupLog.Error(err, "unable to create registry client")
		return err
	}

	appController := &controller.ApplicationController{
		Registry: registryClient,
		Reconciler: &application.ApplicationReconciler{
			Client:                mgr.GetClient(),
			Settings:              settings,
			ReadinessPollInterval: cfg.Controller.ReadinessPollInterval.Duration,
		},
		Recorder: mgr.GetEventRecorderFor("topic-operator"),
	}

	dispatcher := dispatch.New(appController, dispatch.Options{
		Name:             "application",
		BaseDelay:        cfg.WorkQueue.BaseDelay.Duration,
		MaxDelay:         cfg.WorkQueue.MaxDelay.Duration,
		QPS:              cfg.WorkQueue.QPS,
		Burst:            cfg.WorkQueue.Burst,
		ReconcileTimeout: cfg.WorkQueue.ReconcileTimeout.Duration,
	})

	topicSource, err := controller.NewTopicSource(ctx, mgr.GetCache(), settings)
	if err != nil {
		setupLog.Error(err, "unable to watch KafkaTopics")
		return err
	}
	dispatcher.AddSource(topicSource)

	if cfg.KafkaSource.Enabled() {
		kafkaSource, err := events.NewKafkaSource(events.KafkaSourceConfig{
			Brokers:  cfg.KafkaSource.Brokers,
			Topic:    cfg.KafkaSource.Topic,
			GroupID:  cfg.KafkaSource.GroupID,
			MinBytes: cfg.KafkaSource.MinBytes,
			MaxBytes: cfg.KafkaSource.MaxBytes,
		})
		if err != nil {
			setupLog.Error(err, "unable to create registry event source")
			return err
		}
		dispatcher.AddSource(kafkaSource)
	} else {
		setupLog.Info("no kafka brokers configured, registry events are not consumed")
	}

	if err := mgr.Add(dispatcher); err != nil {
		setupLog.Error(err, "unable to add dispatcher")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", dispatcher.ReadyCheck); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		return err
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "problem running manager")
		return err
	}
	return nil
}
