// Package config loads runtime settings from .ls-odl.yaml, LSODL_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. LSODL_LOG_LEVEL.
const EnvPrefix = "LSODL"

// ResolverConfig configures name resolution.
type ResolverConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AlignmentConfig holds site defaults for alignments.
type AlignmentConfig struct {
	GuiderBright bool `mapstructure:"guider_bright"`
}

// ObserverConfig is the observing site used for summaries.
type ObserverConfig struct {
	Name   string  `mapstructure:"name"`
	LatDeg float64 `mapstructure:"lat_deg"`
	LonDeg float64 `mapstructure:"lon_deg"`
}

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter"` // none, stdout or otlp
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Config holds all runtime configuration.
type Config struct {
	LogLevel    string          `mapstructure:"log_level"`
	ProfilesDir string          `mapstructure:"profiles_dir"`
	CatalogPath string          `mapstructure:"catalog_path"`
	Instrument  string          `mapstructure:"instrument"`
	Resolver    ResolverConfig  `mapstructure:"resolver"`
	Alignment   AlignmentConfig `mapstructure:"alignment"`
	Observer    ObserverConfig  `mapstructure:"observer"`
	Serve       ServeConfig     `mapstructure:"serve"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
}

// Init points viper at cfgFile, or at .ls-odl.yaml in the working or home
// directory, and enables environment overrides. A missing default config
// file is not an error; a missing explicit one is.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".ls-odl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("profiles_dir", "")
	viper.SetDefault("catalog_path", defaultCatalogPath())
	viper.SetDefault("instrument", "")
	viper.SetDefault("resolver.url", "https://cds.unistra.fr/cgi-bin/nph-sesame/-oI/SNV")
	viper.SetDefault("resolver.timeout", 30*time.Second)
	viper.SetDefault("alignment.guider_bright", true)
	viper.SetDefault("observer.name", "Mauna Kea")
	viper.SetDefault("observer.lat_deg", 19.8263)
	viper.SetDefault("observer.lon_deg", -155.4747)
	viper.SetDefault("serve.addr", ":8080")
	viper.SetDefault("tracing.exporter", "none")
	viper.SetDefault("tracing.endpoint", "localhost:4317")
	viper.SetDefault("tracing.insecure", true)
	viper.SetDefault("tracing.sample_ratio", 1.0)
}

func defaultCatalogPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ls-odl.db"
	}
	return filepath.Join(dir, "ls-odl", "catalog.db")
}

// Load returns the effective configuration, with built-in defaults for
// values not set by config file, environment or flags.
func Load() (Config, error) {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Resolver.Timeout <= 0 {
		return Config{}, fmt.Errorf("resolver.timeout must be positive, got %v", cfg.Resolver.Timeout)
	}
	if r := cfg.Tracing.SampleRatio; r < 0 || r > 1 {
		return Config{}, fmt.Errorf("tracing.sample_ratio must be in [0, 1], got %g", r)
	}
	return cfg, nil
}
