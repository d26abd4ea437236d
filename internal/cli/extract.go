package cmd

import (
	"fmt"
	"net/url"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/extract"
	"github.com/rohmanhakim/canonurl/internal/normalize"
	"github.com/rohmanhakim/canonurl/pkg/fileutil"
)

var (
	extractFormat string
	extractBase   string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the canonical form of every link in a document",
	Long: `Print the canonical form of every link in an HTML or Markdown document, once
each, in document order. The format is taken from --format or else the file
extension. Relative links are resolved against --base.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		format := extractFormat
		if format == "" {
			format = formatFromExtension(path)
		}

		var base *url.URL
		if extractBase != "" {
			parsed, err := url.Parse(extractBase)
			if err != nil {
				return fmt.Errorf("invalid --base %q: %w", extractBase, err)
			}
			base = parsed
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		links, err := extract.FromDocument(f, format, base)
		if err != nil {
			return err
		}

		return withContainer(cmd, func(injector do.Injector, _ config.Config) error {
			normalizer, err := do.Invoke[*normalize.Normalizer](injector)
			if err != nil {
				return err
			}

			seen := map[string]struct{}{}
			for _, link := range links {
				canonical := normalizer.Normalize(link)
				if _, dup := seen[canonical]; dup {
					continue
				}
				seen[canonical] = struct{}{}
				fmt.Fprintln(cmd.OutOrStdout(), canonical)
			}
			return nil
		})
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", "", "document format: html or markdown")
	extractCmd.Flags().StringVar(&extractBase, "base", "", "URL relative links are resolved against")
}

func formatFromExtension(path string) string {
	switch fileutil.Extension(path) {
	case "md", "markdown":
		return extract.FormatMarkdown
	default:
		return extract.FormatHTML
	}
}
