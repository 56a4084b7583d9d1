package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if BONUS_CONFIG is set
//  3. env (prefix BONUS_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("BONUS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: BONUS_ADDR, BONUS_SOURCE_TOKEN, ...
	// Map env keys like BONUS_SOURCE_TOKEN -> source_token (flat keys).
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("BONUS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "bonus_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.SourcePageSize <= 0 {
		return fmt.Errorf("%w: source_page_size must be positive", ErrInvalidConfig)
	}
	if c.SourceMaxPages <= 0 {
		return fmt.Errorf("%w: source_max_pages must be positive", ErrInvalidConfig)
	}
	if c.GlobalRate <= 0 {
		return fmt.Errorf("%w: global_rate must be positive", ErrInvalidConfig)
	}
	if c.DayCutoffHour < 0 || c.DayCutoffHour > 23 {
		return fmt.Errorf("%w: day_cutoff_hour must be within 0..23", ErrInvalidConfig)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}
