// Package di wires every canonurl component into a samber/do container.
package di

import (
	"io"

	"github.com/samber/do/v2"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/di/providers"
)

// NewContainer creates the container for cfg. Logs go to logOutput.
// Services are built lazily on first invoke.
func NewContainer(cfg config.Config, logOutput io.Writer) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, &cfg)
	do.ProvideValue(injector, providers.LogOutput{Writer: logOutput})
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetadataSink)
	do.Provide(injector, providers.ProvideRetryParam)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Normalization
	do.Provide(injector, providers.ProvideSlugTable)
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideNormalizer)
	do.Provide(injector, providers.ProvideResolver)

	return injector
}
