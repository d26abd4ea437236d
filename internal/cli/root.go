package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/di"
	"github.com/rohmanhakim/canonurl/pkg/failure"
	"github.com/rohmanhakim/canonurl/pkg/retry"
)

var (
	cfgFile     string
	storeDriver string
	storePath   string
	storeDSN    string
	logLevel    string
	logFormat   string
	timeout     time.Duration
	maxAttempt  int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canonurl",
	Short: "Canonicalize URLs so every spelling of a page maps to one string.",
	Long: `canonurl maps the many spellings of a web page's URL onto a single
canonical string, suitable as a deduplication or cache key.

Query strings are dropped unless the host is a registered query-string
offender, a host whose page identity lives in the query. Offenders are kept
in a durable store and loaded into an in-memory registry at startup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// ExecuteWithArgs runs the command tree against explicit arguments and streams.
func ExecuteWithArgs(args []string, in io.Reader, out io.Writer, errOut io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, JSON or YAML (e.g., /home/myuser/canonurl.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "offender store driver: memory, sqlite, badger, redis or postgres")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "sqlite database file or badger directory")
	rootCmd.PersistentFlags().StringVar(&storeDSN, "store-dsn", "", "redis address or postgres URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "upper bound on a store operation, retries included")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "attempts per store operation")

	rootCmd.AddCommand(
		normalizeCmd,
		registerCmd,
		offendersCmd,
		seedCmd,
		extractCmd,
		identityCmd,
		versionCmd,
	)
}

// InitConfigWithError builds the config from the config file, if any, with flag
// values layered on top, returning any errors.
func InitConfigWithError() (config.Config, error) {
	configBuilder := config.WithDefault()

	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		configBuilder = &cfg
	}

	// Override with CLI flag values where provided
	if storeDriver != "" {
		configBuilder = configBuilder.WithStoreDriver(storeDriver)
	}

	if storePath != "" {
		configBuilder = configBuilder.WithStorePath(storePath)
	}

	if storeDSN != "" {
		configBuilder = configBuilder.WithStoreDSN(storeDSN)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if logFormat != "" {
		configBuilder = configBuilder.WithLogFormat(logFormat)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// withContainer builds the config and the container, runs fn, then shuts the container down.
func withContainer(cmd *cobra.Command, fn func(injector do.Injector, cfg config.Config) error) error {
	cfg, err := InitConfigWithError()
	if err != nil {
		return err
	}

	injector := di.NewContainer(cfg, cmd.ErrOrStderr())
	defer injector.Shutdown()

	return fn(injector, cfg)
}

// retryStore runs a store-touching operation under the configured retry policy
// and timeout.
func retryStore(ctx context.Context, injector do.Injector, cfg config.Config, fn func(ctx context.Context) error) error {
	retryParam, err := do.Invoke[retry.RetryParam](injector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	result := retry.Retry(ctx, retryParam, func(ctx context.Context) (struct{}, failure.ClassifiedError) {
		return struct{}{}, failure.Classify(fn(ctx))
	})
	if result.IsFailure() {
		return result.Err()
	}
	return nil
}

func ResetFlags() {
	cfgFile = ""
	storeDriver = ""
	storePath = ""
	storeDSN = ""
	logLevel = ""
	logFormat = ""
	timeout = 0
	maxAttempt = 0
	extractFormat = ""
	extractBase = ""
	offendersJSON = false
	seedSkipDefaults = false
	identityObserve = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetStoreDriverForTest(driver string) {
	storeDriver = driver
}

func SetStorePathForTest(path string) {
	storePath = path
}

func SetStoreDSNForTest(dsn string) {
	storeDSN = dsn
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}
