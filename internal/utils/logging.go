package utils

import (
	"context"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	DebugLogLevel = 1
	TraceLogLevel = 2
)

func Debug(logger logr.Logger, fmt string, keysAndValues ...any) {
	logger.V(DebugLogLevel).Info(fmt, keysAndValues...)
}

func Trace(logger logr.Logger, fmt string, keysAndValues ...any) {
	logger.V(TraceLogLevel).Info(fmt, keysAndValues...)
}

// WithApplication returns a context whose logger carries the application key.
func WithApplication(ctx context.Context, application string) (context.Context, logr.Logger) {
	logger := log.FromContext(ctx).WithValues("application", application)
	return log.IntoContext(ctx, logger), logger
}
