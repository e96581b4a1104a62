// Package config loads the SDK configuration from a config file and
// environment variables. Environment variables use the VB_ prefix and
// override file values (VB_API_KEY, VB_USER_UUID, ...).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/vitalbridge/vitalbridge/internal/api"
	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/window"
)

// Config is the resolved SDK configuration.
type Config struct {
	// APIBaseURL is the aggregation server's base URL.
	APIBaseURL string `mapstructure:"api_base_url"`
	// APIKey authenticates every server call.
	APIKey string `mapstructure:"api_key"`
	// UserUUID identifies the user on the server.
	UserUUID string `mapstructure:"user_uuid"`
	// Platform is the platform identifier sent on connect/disconnect.
	Platform string `mapstructure:"platform"`
	// DataSource labels uploaded batches on the server.
	DataSource string `mapstructure:"data_source"`
	// BackfillDays bounds the first sync's lookback window.
	BackfillDays int `mapstructure:"backfill_days"`
	// SyncTypes are the data type keys fetched on every sync.
	SyncTypes []string `mapstructure:"sync_types"`
	// StateDBPath is where the sync-state database lives.
	StateDBPath string `mapstructure:"state_db_path"`
	// SamplesDir is the directory the file-backed health store reads.
	SamplesDir string `mapstructure:"samples_dir"`
	// LogFile receives daemon logs; empty logs to stderr.
	LogFile string `mapstructure:"log_file"`
}

// defaultSyncTypes is the out-of-the-box synced set. Deployments narrow or
// widen it via sync_types.
var defaultSyncTypes = []catalog.Key{
	catalog.Steps,
	catalog.HeartRate,
	catalog.DistanceWalkingRunning,
	catalog.ActiveEnergyBurned,
	catalog.BloodPressureSystolic,
	catalog.BloodOxygen,
	catalog.BloodGlucose,
	catalog.BodyTemperature,
	catalog.Height,
	catalog.Weight,
	catalog.BodyMassIndex,
	catalog.Water,
	catalog.BodyFatPercentage,
}

// Load reads configuration from the given file (empty means search the
// default locations), applies defaults, then overlays VB_-prefixed
// environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api_base_url", "")
	v.SetDefault("platform", api.PlatformAppleHealthKit)
	v.SetDefault("data_source", "sdk_healthkit")
	v.SetDefault("backfill_days", window.DefaultBackfillDays)
	v.SetDefault("sync_types", keyStrings(defaultSyncTypes))
	v.SetDefault("state_db_path", defaultStatePath())
	v.SetDefault("samples_dir", "")
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("VB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("vitalbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".vitalbridge"))
		}
		// A missing default config is fine; env vars can carry the whole
		// configuration.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.BackfillDays <= 0 {
		return nil, fmt.Errorf("backfill_days must be positive, got %d", cfg.BackfillDays)
	}
	return &cfg, nil
}

// SyncKeys validates and parses the configured sync types. Duplicates are
// dropped so one key never produces two concurrent queries racing into the
// same batch slot.
func (c *Config) SyncKeys() ([]catalog.Key, error) {
	if len(c.SyncTypes) == 0 {
		return nil, fmt.Errorf("sync_types cannot be empty")
	}
	seen := make(map[catalog.Key]bool, len(c.SyncTypes))
	keys := make([]catalog.Key, 0, len(c.SyncTypes))
	for _, s := range c.SyncTypes {
		key, err := catalog.ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("invalid sync type: %w", err)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys, nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vitalbridge", "state.db")
	}
	return filepath.Join(home, ".vitalbridge", "state.db")
}

func keyStrings(keys []catalog.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
