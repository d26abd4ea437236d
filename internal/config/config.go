package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rohmanhakim/canonurl/internal/slug"
	"github.com/rohmanhakim/canonurl/internal/storage"
	"github.com/rohmanhakim/canonurl/pkg/hashutil"
	"gopkg.in/yaml.v3"
)

type Config struct {
	//===============
	// Store
	//===============
	// Backend holding the offender records: memory, sqlite, badger, redis or postgres
	storeDriver string
	// Database file (sqlite) or directory (badger)
	storePath string
	// Connection string: a redis address or a postgres URL
	storeDSN string
	// Upper bound on a single store operation, retries included
	timeout time.Duration
	// Number of concurrent writers used when seeding the store
	seedConcurrency int

	//===============
	// Retry
	//===============
	// maximum attempt during retry
	maxAttempt int
	// Randomized variation added on top of each backoff delay
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Logging
	//===============
	logLevel  string
	logFormat string

	//===============
	// Normalization
	//===============
	// Extra slug rules, hostname to path pattern with one capture group
	slugRules map[string]string
	// Offenders seeded into the store on top of the built-in list, hostname to significant keys
	offenders map[string][]string

	//===============
	// Identity
	//===============
	identityHashAlgo hashutil.HashAlgo
	// Number of canonical URLs whose first observation is remembered
	identityCacheSize int
	// How long an observation is remembered
	identityCacheTTL time.Duration
}

type configDTO struct {
	StoreDriver            string              `json:"storeDriver,omitempty" yaml:"storeDriver,omitempty" validate:"omitempty,oneof=memory sqlite badger redis postgres"`
	StorePath              string              `json:"storePath,omitempty" yaml:"storePath,omitempty"`
	StoreDSN               string              `json:"storeDsn,omitempty" yaml:"storeDsn,omitempty"`
	Timeout                time.Duration       `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
	SeedConcurrency        int                 `json:"seedConcurrency,omitempty" yaml:"seedConcurrency,omitempty" validate:"gte=0,lte=64"`
	MaxAttempt             int                 `json:"maxAttempt,omitempty" yaml:"maxAttempt,omitempty" validate:"gte=0,lte=100"`
	Jitter                 time.Duration       `json:"jitter,omitempty" yaml:"jitter,omitempty" validate:"gte=0"`
	RandomSeed             int64               `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	BackoffInitialDuration time.Duration       `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration,omitempty" validate:"gte=0"`
	BackoffMultiplier      float64             `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty" validate:"omitempty,gte=1"`
	BackoffMaxDuration     time.Duration       `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration,omitempty" validate:"gte=0"`
	LogLevel               string              `json:"logLevel,omitempty" yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat              string              `json:"logFormat,omitempty" yaml:"logFormat,omitempty" validate:"omitempty,oneof=text json"`
	SlugRules              map[string]string   `json:"slugRules,omitempty" yaml:"slugRules,omitempty" validate:"dive,keys,required,endkeys,required"`
	Offenders              map[string][]string `json:"offenders,omitempty" yaml:"offenders,omitempty" validate:"dive,keys,required,hostname_rfc1123,endkeys,dive,required"`
	IdentityHashAlgo       string              `json:"identityHashAlgo,omitempty" yaml:"identityHashAlgo,omitempty" validate:"omitempty,oneof=sha256 blake3"`
	IdentityCacheSize      int                 `json:"identityCacheSize,omitempty" yaml:"identityCacheSize,omitempty" validate:"gte=0"`
	IdentityCacheTTL       time.Duration       `json:"identityCacheTTL,omitempty" yaml:"identityCacheTTL,omitempty" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func newConfigFromDTO(dto configDTO) (Config, error) {
	if err := validate.Struct(dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	cfg := WithDefault()

	// Only override if a non-zero value is provided
	if dto.StoreDriver != "" {
		cfg.storeDriver = dto.StoreDriver
	}
	if dto.StorePath != "" {
		cfg.storePath = dto.StorePath
	}
	cfg.storeDSN = dto.StoreDSN
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.SeedConcurrency != 0 {
		cfg.seedConcurrency = dto.SeedConcurrency
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	if dto.LogFormat != "" {
		cfg.logFormat = dto.LogFormat
	}
	if len(dto.SlugRules) > 0 {
		cfg.slugRules = dto.SlugRules
	}
	if len(dto.Offenders) > 0 {
		cfg.offenders = dto.Offenders
	}
	if dto.IdentityHashAlgo != "" {
		cfg.identityHashAlgo = hashutil.HashAlgo(dto.IdentityHashAlgo)
	}
	if dto.IdentityCacheSize != 0 {
		cfg.identityCacheSize = dto.IdentityCacheSize
	}
	if dto.IdentityCacheTTL != 0 {
		cfg.identityCacheTTL = dto.IdentityCacheTTL
	}

	return cfg.Build()
}

// WithConfigFile reads a JSON (.json) or YAML (.yaml, .yml) config file.
// Durations are nanoseconds in JSON and Go duration strings ("5s") in YAML.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(configContent, &cfgDTO)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with default values for all fields.
// The default store is a sqlite file in the working directory.
func WithDefault() *Config {
	defaultConfig := Config{
		storeDriver:            storage.DriverSQLite,
		storePath:              "canonurl.db",
		timeout:                10 * time.Second,
		seedConcurrency:        4,
		maxAttempt:             3,
		jitter:                 50 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     5 * time.Second,
		logLevel:               "info",
		logFormat:              "text",
		slugRules:              map[string]string{},
		offenders:              map[string][]string{},
		identityHashAlgo:       hashutil.HashAlgoSHA256,
		identityCacheSize:      4096,
		identityCacheTTL:       time.Hour,
	}
	return &defaultConfig
}

func (c *Config) WithStoreDriver(driver string) *Config {
	c.storeDriver = driver
	return c
}

func (c *Config) WithStorePath(path string) *Config {
	c.storePath = path
	return c
}

func (c *Config) WithStoreDSN(dsn string) *Config {
	c.storeDSN = dsn
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithSeedConcurrency(concurrency int) *Config {
	c.seedConcurrency = concurrency
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = format
	return c
}

func (c *Config) WithSlugRules(rules map[string]string) *Config {
	c.slugRules = rules
	return c
}

func (c *Config) WithOffenders(offenders map[string][]string) *Config {
	c.offenders = offenders
	return c
}

func (c *Config) WithIdentityHashAlgo(algo hashutil.HashAlgo) *Config {
	c.identityHashAlgo = algo
	return c
}

func (c *Config) WithIdentityCacheSize(size int) *Config {
	c.identityCacheSize = size
	return c
}

func (c *Config) WithIdentityCacheTTL(ttl time.Duration) *Config {
	c.identityCacheTTL = ttl
	return c
}

func (c *Config) Build() (Config, error) {
	if !slices.Contains(storage.Drivers(), c.storeDriver) {
		return Config{}, fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.storeDriver)
	}
	switch c.storeDriver {
	case storage.DriverSQLite, storage.DriverBadger:
		if c.storePath == "" {
			return Config{}, fmt.Errorf("%w: store driver %s needs a store path", ErrInvalidConfig, c.storeDriver)
		}
	case storage.DriverRedis, storage.DriverPostgres:
		if c.storeDSN == "" {
			return Config{}, fmt.Errorf("%w: store driver %s needs a store dsn", ErrInvalidConfig, c.storeDriver)
		}
	}

	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.seedConcurrency < 1 {
		return Config{}, fmt.Errorf("%w: seedConcurrency must be at least 1", ErrInvalidConfig)
	}
	if _, err := hashutil.ParseAlgo(string(c.identityHashAlgo)); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if _, err := slug.NewTable(c.slugRules); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	return *c, nil
}

func (c Config) StoreDriver() string {
	return c.storeDriver
}

func (c Config) StorePath() string {
	return c.storePath
}

func (c Config) StoreDSN() string {
	return c.storeDSN
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) SeedConcurrency() int {
	return c.seedConcurrency
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}

func (c Config) SlugRules() map[string]string {
	return maps.Clone(c.slugRules)
}

func (c Config) Offenders() map[string][]string {
	offenders := make(map[string][]string, len(c.offenders))
	for host, keys := range c.offenders {
		offenders[host] = slices.Clone(keys)
	}
	return offenders
}

func (c Config) IdentityHashAlgo() hashutil.HashAlgo {
	return c.identityHashAlgo
}

func (c Config) IdentityCacheSize() int {
	return c.identityCacheSize
}

func (c Config) IdentityCacheTTL() time.Duration {
	return c.identityCacheTTL
}
