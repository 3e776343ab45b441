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

package dispatch

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"k8s.io/client-go/util/workqueue"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/eventplane/topic-operator/internal/utils"
)

// Result tells the dispatcher whether and when to run a key again.
type Result struct {
	Requeue bool
	// RequeueAfter is only read when Requeue is set. Nil selects the queue's exponential
	// backoff, zero requeues immediately.
	RequeueAfter *time.Duration
}

// Reconciler handles one key at a time.
type Reconciler interface {
	Reconcile(ctx context.Context, key string) (Result, error)
}

// ReconcilerFunc adapts a function into a Reconciler.
type ReconcilerFunc func(ctx context.Context, key string) (Result, error)

func (f ReconcilerFunc) Reconcile(ctx context.Context, key string) (Result, error) {
	return f(ctx, key)
}

// Source turns notifications of some external system into keys.
type Source interface {
	Name() string
	// Run blocks until ctx is done, calling emit for every relevant notification.
	Run(ctx context.Context, emit func(key string)) error
}

// Options configure a Dispatcher.
type Options struct {
	Name string
	// BaseDelay and MaxDelay bound the per key exponential backoff.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// QPS and Burst bound the overall retry rate.
	QPS   float64
	Burst int
	// ReconcileTimeout bounds a single pass.
	ReconcileTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "dispatcher"
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 5 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 1000 * time.Second
	}
	if o.QPS <= 0 {
		o.QPS = 10
	}
	if o.Burst <= 0 {
		o.Burst = 100
	}
	if o.ReconcileTimeout <= 0 {
		o.ReconcileTimeout = time.Minute
	}
	return o
}

// Dispatcher merges the keys of all sources into one work queue, drained by a single worker.
//
// The queue collapses repeated keys while they wait, and never hands out a key that is being
// processed. A key added during processing runs again right after.
type Dispatcher struct {
	opts       Options
	reconciler Reconciler
	queue      workqueue.TypedRateLimitingInterface[string]
	sources    []Source
	started    atomic.Bool
}

func New(reconciler Reconciler, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	limiter := workqueue.NewTypedMaxOfRateLimiter(
		workqueue.NewTypedItemExponentialFailureRateLimiter[string](opts.BaseDelay, opts.MaxDelay),
		&workqueue.TypedBucketRateLimiter[string]{Limiter: rate.NewLimiter(rate.Limit(opts.QPS), opts.Burst)},
	)
	return &Dispatcher{
		opts:       opts,
		reconciler: reconciler,
		queue: workqueue.NewTypedRateLimitingQueueWithConfig(limiter, workqueue.TypedRateLimitingQueueConfig[string]{
			Name: opts.Name,
		}),
	}
}

// AddSource registers a source. Sources must be added before Start.
func (d *Dispatcher) AddSource(s Source) {
	d.sources = append(d.sources, s)
}

// Enqueue schedules key for an immediate pass.
func (d *Dispatcher) Enqueue(key string) {
	d.queue.Add(key)
}

// Len returns the number of keys waiting to be processed.
func (d *Dispatcher) Len() int {
	return d.queue.Len()
}

// NumRequeues returns how many times key has been retried with backoff since its last success.
func (d *Dispatcher) NumRequeues(key string) int {
	return d.queue.NumRequeues(key)
}

// ReadyCheck reports ready once the worker runs. It fits healthz.Checker.
func (d *Dispatcher) ReadyCheck(_ *http.Request) error {
	if !d.started.Load() {
		return errors.New("dispatcher not started")
	}
	return nil
}

// Start runs the sources and the worker until ctx is done or a source fails.
// The pass in progress at that point is allowed to finish. Start implements manager.Runnable.
func (d *Dispatcher) Start(ctx context.Context) error {
	logger := log.FromContext(ctx).WithValues("dispatcher", d.opts.Name)
	ctx = log.IntoContext(ctx, logger)

	g, gctx := errgroup.WithContext(ctx)

	for _, source := range d.sources {
		g.Go(func() error {
			logger.Info("starting event source", "source", source.Name())
			return source.Run(gctx, func(key string) {
				eventsTotal.WithLabelValues(d.opts.Name, source.Name()).Inc()
				d.Enqueue(key)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		d.queue.ShutDown()
		return nil
	})

	g.Go(func() error {
		d.started.Store(true)
		defer d.started.Store(false)
		for d.processNext(gctx) {
		}
		return nil
	})

	logger.Info("dispatcher started", "sources", len(d.sources))
	err := g.Wait()
	logger.Info("dispatcher stopped")
	return err
}

func (d *Dispatcher) processNext(ctx context.Context) bool {
	key, shutdown := d.queue.Get()
	if shutdown {
		return false
	}
	defer d.queue.Done(key)

	if ctx.Err() != nil {
		return false
	}

	ctx, logger := utils.WithApplication(ctx, key)

	// A pass that started is not cut short by shutdown.
	passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.ReconcileTimeout)
	defer cancel()

	start := time.Now()
	result, err := d.reconciler.Reconcile(passCtx, key)
	reconcileDuration.WithLabelValues(d.opts.Name).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		logger.Error(err, "reconcile failed", "requeues", d.queue.NumRequeues(key))
		reconcileTotal.WithLabelValues(d.opts.Name, resultError).Inc()
		d.queue.AddRateLimited(key)

	case result.Requeue && result.RequeueAfter == nil:
		utils.Debug(logger, "requeue with backoff", "requeues", d.queue.NumRequeues(key))
		reconcileTotal.WithLabelValues(d.opts.Name, resultRequeue).Inc()
		d.queue.AddRateLimited(key)

	case result.Requeue && *result.RequeueAfter > 0:
		utils.Debug(logger, "requeue after delay", "after", *result.RequeueAfter)
		reconcileTotal.WithLabelValues(d.opts.Name, resultRequeueAfter).Inc()
		d.queue.Forget(key)
		d.queue.AddAfter(key, *result.RequeueAfter)

	case result.Requeue:
		utils.Debug(logger, "requeue immediately")
		reconcileTotal.WithLabelValues(d.opts.Name, resultRequeueAfter).Inc()
		d.queue.Forget(key)
		d.queue.Add(key)

	default:
		reconcileTotal.WithLabelValues(d.opts.Name, resultSuccess).Inc()
		d.queue.Forget(key)
	}

	return true
}
