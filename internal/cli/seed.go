package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/di/providers"
	"github.com/rohmanhakim/canonurl/internal/offender"
)

var seedSkipDefaults bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the bootstrap offender list to the store",
	Long: `Write the built-in offender list, plus any offenders from the config file,
to the store. Seeding twice is harmless: keys are unioned with what is stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(injector do.Injector, cfg config.Config) error {
			store, err := do.Invoke[*providers.StoreHandle](injector)
			if err != nil {
				return err
			}

			records := bootstrapRecords(cfg, !seedSkipDefaults)
			if err := retryStore(cmd.Context(), injector, cfg, func(ctx context.Context) error {
				return offender.Seed(ctx, store, records, cfg.SeedConcurrency())
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d offenders\n", len(records))
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedSkipDefaults, "skip-defaults", false, "seed only the offenders from the config file")
}

// bootstrapRecords merges the built-in list with configured offenders, sorted by hostname.
func bootstrapRecords(cfg config.Config, withDefaults bool) []offender.Record {
	merged := map[string]offender.Record{}
	add := func(rec offender.Record) {
		if existing, ok := merged[rec.Hostname]; ok {
			rec = existing.Merge(rec.SignificantKeys)
		}
		merged[rec.Hostname] = rec
	}

	if withDefaults {
		for _, rec := range offender.DefaultBootstrap() {
			add(rec)
		}
	}
	for host, keys := range cfg.Offenders() {
		add(offender.NewRecord(host, keys...))
	}

	records := make([]offender.Record, 0, len(merged))
	for _, rec := range merged {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Hostname < records[j].Hostname
	})
	return records
}
