package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/identity"
	"github.com/rohmanhakim/canonurl/pkg/failure"
)

var identityObserve bool

var identityCmd = &cobra.Command{
	Use:   "identity [url...]",
	Short: "Print the identity ID and canonical form of each URL",
	Long: `Print "id<TAB>canonical" for each URL given as an argument, or for each stdin
line when there are none. The ID is a tagged digest of the canonical URL.

With --observe, every input is "url<SPACE>fingerprint" where fingerprint is a
digest of the fetched content. When two URLs share a canonical form but not a
fingerprint, the query keys that tell them apart are registered as significant
for the host, and the line gets a third column listing them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(injector do.Injector, _ config.Config) error {
			resolver, err := do.Invoke[*identity.Resolver](injector)
			if err != nil {
				return err
			}

			if !identityObserve {
				return eachInput(cmd, args, func(raw string) {
					id := resolver.Resolve(raw)
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id.ID, id.Canonical)
				})
			}

			var firstErr error
			inputErr := eachInput(cmd, args, func(line string) {
				raw, fingerprint, _ := strings.Cut(line, " ")
				obs, err := resolver.Observe(cmd.Context(), raw, strings.TrimSpace(fingerprint))
				if err != nil && failure.IsFatal(err) && firstErr == nil {
					firstErr = err
				}
				if obs.Collision {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", obs.Identity.ID, obs.Identity.Canonical, formatLearned(obs.Learned))
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", obs.Identity.ID, obs.Identity.Canonical)
			})
			if inputErr != nil {
				return inputErr
			}
			return firstErr
		})
	},
}

func init() {
	identityCmd.Flags().BoolVar(&identityObserve, "observe", false, `read "url fingerprint" pairs and learn offenders from collisions`)
}

func formatLearned(keys []string) string {
	if len(keys) == 0 {
		return "collision"
	}
	return "learned " + strings.Join(keys, ",")
}
