// Package config binds the runtime environment variables recognized by
// genforge (spec.md §6) via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved runtime configuration.
type Config struct {
	APIKey              string
	LogLevel            string
	AgentHealthInterval time.Duration
	AgentNudgeInterval  time.Duration
	CacheCapacity       int
}

const (
	defaultHealthIntervalMs = 60_000
	defaultNudgeIntervalMs  = 30_000
	defaultCacheCapacity    = 50
)

// Load reads the recognized environment variables and returns a Config.
// A missing API_KEY is not an error here — callers that require one (the
// generation forge) enforce it at their own construction time, per spec.md
// §7's synchronous-construction-error list.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AGENT_HEALTH_INTERVAL_MS", defaultHealthIntervalMs)
	v.SetDefault("AGENT_NUDGE_INTERVAL_MS", defaultNudgeIntervalMs)
	v.SetDefault("CACHE_CAPACITY", defaultCacheCapacity)

	for _, key := range []string{"API_KEY", "LOG_LEVEL", "AGENT_HEALTH_INTERVAL_MS", "AGENT_NUDGE_INTERVAL_MS", "CACHE_CAPACITY"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	cacheCapacity := v.GetInt("CACHE_CAPACITY")
	if cacheCapacity < 1 {
		cacheCapacity = defaultCacheCapacity
	}

	return &Config{
		APIKey:              v.GetString("API_KEY"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		AgentHealthInterval: time.Duration(v.GetInt("AGENT_HEALTH_INTERVAL_MS")) * time.Millisecond,
		AgentNudgeInterval:  time.Duration(v.GetInt("AGENT_NUDGE_INTERVAL_MS")) * time.Millisecond,
		CacheCapacity:       cacheCapacity,
	}, nil
}
