// Package providers contains dependency injection providers for canonurl.
package providers

import (
	"io"

	"github.com/samber/do/v2"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/logger"
	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/retry"
	"github.com/rohmanhakim/canonurl/pkg/timeutil"
)

// LogOutput is where the logger writes. A nil Writer means stderr.
type LogOutput struct {
	io.Writer
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	out := do.MustInvoke[LogOutput](i)

	log := logger.New(logger.Config{
		Writer: out.Writer,
		Format: cfg.LogFormat(),
		Level:  logger.ParseLevel(cfg.LogLevel()),
	})

	log.Debug("logger ready",
		"log_level", cfg.LogLevel(),
		"log_format", cfg.LogFormat(),
		"store_driver", cfg.StoreDriver(),
	)

	return log, nil
}

// ProvideMetadataSink provides the event recorder shared by the registry and the resolver.
func ProvideMetadataSink(i do.Injector) (metadata.MetadataSink, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return metadata.NewRecorder(log.Logger), nil
}

// ProvideRetryParam provides the retry policy for store operations.
func ProvideRetryParam(i do.Injector) (retry.RetryParam, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	), nil
}
