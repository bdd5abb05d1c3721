// Package config loads runtime configuration. Precedence: flags over
// environment variables (POOLD_*) over config file over defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	// Ledger
	LedgerEndpoints      []string
	LedgerWSEndpoint     string
	LedgerCallTimeout    time.Duration
	ProgramID            string
	HistoricalProgramIDs []string
	SignerPublicKey      string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	// Reconciliation
	ReconcileInterval time.Duration

	// Serving
	MetricsAddr string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("ledger-call-timeout", 10*time.Second)
	v.SetDefault("reconcile-interval", 5*time.Minute)
	v.SetDefault("metrics-addr", ":9091")
	v.SetDefault("log-level", "info")
	v.SetDefault("use-memory", false)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("poold")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LedgerEndpoints:      getStringSlice(v, "ledger-endpoint"),
		LedgerWSEndpoint:     v.GetString("ledger-ws-endpoint"),
		LedgerCallTimeout:    v.GetDuration("ledger-call-timeout"),
		ProgramID:            v.GetString("program-id"),
		HistoricalProgramIDs: getStringSlice(v, "historical-program-id"),
		SignerPublicKey:      v.GetString("signer-public-key"),
		PostgresDSN:          v.GetString("postgres-dsn"),
		ClickhouseDSN:        v.GetString("clickhouse-dsn"),
		UseMemory:            v.GetBool("use-memory"),
		ReconcileInterval:    v.GetDuration("reconcile-interval"),
		MetricsAddr:          v.GetString("metrics-addr"),
		LogLevel:             v.GetString("log-level"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if len(c.LedgerEndpoints) == 0 {
		return fmt.Errorf("at least one ledger endpoint is required")
	}
	if c.ProgramID == "" {
		return fmt.Errorf("program-id is required")
	}
	if !c.UseMemory && c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn is required unless use-memory is set")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
