package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/offender"
)

var offendersJSON bool

var offendersCmd = &cobra.Command{
	Use:   "offenders",
	Short: "List registered query-string offenders",
	Long: `List every offender in the store as "hostname<TAB>keys". A "*" means every
non-tracking query argument is significant.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(injector do.Injector, _ config.Config) error {
			registry, err := do.Invoke[*offender.Registry](injector)
			if err != nil {
				return err
			}

			records := registry.Records()
			if offendersJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rec.Hostname, formatKeys(rec.SignificantKeys))
			}
			return nil
		})
	},
}

func init() {
	offendersCmd.Flags().BoolVar(&offendersJSON, "json", false, "print records as a JSON array")
}
