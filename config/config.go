package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, BQC_PROJECT_ID -> project_id
const EnvPrefix = "BQC_"

type Config struct {
	// Bound at startup when set, in project -> dataset -> table order
	ProjectID string `koanf:"project_id"`
	DatasetID string `koanf:"dataset_id"`
	TableID   string `koanf:"table_id"`

	// Service account key, falls back to application default credentials when empty
	CredentialsFile string `koanf:"credentials_file"`
	ClientTTLSec    int64  `koanf:"client_ttl_sec"`
	// Rows fetched when a filter or search misses the cache, 0 reads the whole table
	FilterLimit int64 `koanf:"filter_limit"`
	// Rows returned by get_table_data when no limit is given
	DefaultLimit int64 `koanf:"default_limit"`
}

func (c *Config) ClientTTL() time.Duration {
	return time.Duration(c.ClientTTLSec) * time.Second
}

// Load layers defaults, the optional yaml file at path and BQC_ env vars, later wins.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"client_ttl_sec": 3600,
		"filter_limit":   0,
		"default_limit":  10,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.DatasetID != "" && cfg.ProjectID == "" {
		return nil, fmt.Errorf("dataset_id %q set without project_id", cfg.DatasetID)
	}
	if cfg.TableID != "" && cfg.DatasetID == "" {
		return nil, fmt.Errorf("table_id %q set without dataset_id", cfg.TableID)
	}
	if cfg.DefaultLimit < 1 {
		return nil, fmt.Errorf("default_limit must be at least 1, got %d", cfg.DefaultLimit)
	}
	return &cfg, nil
}
