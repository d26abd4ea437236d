package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/offender"
)

var registerCmd = &cobra.Command{
	Use:   "register <hostname> [key...]",
	Short: "Register a query-string offender",
	Long: `Register hostname as a query-string offender. Keys name the query arguments
that identify a page; without keys every non-tracking argument is kept.
Registering again adds keys, it never removes them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(injector do.Injector, cfg config.Config) error {
			registry, err := do.Invoke[*offender.Registry](injector)
			if err != nil {
				return err
			}

			hostname, keys := args[0], args[1:]
			if err := retryStore(cmd.Context(), injector, cfg, func(ctx context.Context) error {
				return registry.Register(ctx, hostname, keys...)
			}); err != nil {
				return err
			}

			rec, _ := registry.Lookup(hostname)
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\t%s\n", rec.Hostname, formatKeys(rec.SignificantKeys))
			return nil
		})
	},
}

func formatKeys(keys []string) string {
	if len(keys) == 0 {
		return "*"
	}
	return strings.Join(keys, ",")
}
