package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/identity"
	"github.com/rohmanhakim/canonurl/internal/logger"
	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/internal/normalize"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/slug"
	"github.com/rohmanhakim/canonurl/pkg/failure"
	"github.com/rohmanhakim/canonurl/pkg/retry"
)

// ProvideSlugTable provides the built-in slug rules merged with configured ones.
func ProvideSlugTable(i do.Injector) (*slug.Table, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return slug.NewTable(cfg.SlugRules())
}

// ProvideRegistry provides the offender registry, its cache already rebuilt from the store.
func ProvideRegistry(i do.Injector) (*offender.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sink := do.MustInvoke[metadata.MetadataSink](i)
	store := do.MustInvoke[*StoreHandle](i)
	retryParam := do.MustInvoke[retry.RetryParam](i)

	registry := offender.NewRegistry(store, sink)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	result := retry.Retry(ctx, retryParam, func(ctx context.Context) (int, failure.ClassifiedError) {
		if err := registry.RebuildCacheFromStore(ctx); err != nil {
			return 0, failure.Classify(err)
		}
		return registry.Len(), nil
	})
	if result.IsFailure() {
		return nil, result.Err()
	}

	log.Debug("offender cache rebuilt", "entries", result.Value(), "attempts", result.Attempts())
	return registry, nil
}

// ProvideNormalizer provides the URL normalizer backed by the registry and slug table.
func ProvideNormalizer(i do.Injector) (*normalize.Normalizer, error) {
	registry := do.MustInvoke[*offender.Registry](i)
	table := do.MustInvoke[*slug.Table](i)
	return normalize.NewNormalizer(registry, table, nil), nil
}

// ProvideResolver provides the identity resolver; collisions teach the registry.
func ProvideResolver(i do.Injector) (*identity.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sink := do.MustInvoke[metadata.MetadataSink](i)
	normalizer := do.MustInvoke[*normalize.Normalizer](i)
	registry := do.MustInvoke[*offender.Registry](i)

	return identity.NewResolver(
		normalizer,
		registry,
		cfg.IdentityHashAlgo(),
		cfg.IdentityCacheSize(),
		cfg.IdentityCacheTTL(),
		sink,
	)
}
