package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [url...]",
	Short: "Print the canonical form of each URL",
	Long: `Print the canonical form of each URL given as an argument, one per line.
Without arguments, URLs are read from stdin, one per line; blank lines are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(injector do.Injector, _ config.Config) error {
			normalizer, err := do.Invoke[*normalize.Normalizer](injector)
			if err != nil {
				return err
			}
			return eachInput(cmd, args, func(raw string) {
				fmt.Fprintln(cmd.OutOrStdout(), normalizer.Normalize(raw))
			})
		})
	},
}

// eachInput calls fn for every argument, or for every non-blank stdin line when there are none.
func eachInput(cmd *cobra.Command, args []string, fn func(raw string)) error {
	if len(args) > 0 {
		for _, arg := range args {
			fn(arg)
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
