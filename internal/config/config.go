package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TIMELINE_TRACKER_CONFIG"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	rateLimitDelayEnv = "RATE_LIMIT_DELAY_SEC"

	defaultEndpoint       = "https://api.openai.com/v1/chat/completions"
	defaultModel          = "gpt-5"
	defaultRateLimitDelay = 0.1
	defaultUserAgent      = "UKNaturalisationTimelineTracker/2.0"
	defaultBatchDelay     = 1.0
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Fetch   FetchConfig   `yaml:"fetch"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// OpenAIConfig defines how to contact the extraction model.
type OpenAIConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"apiKey"`
	RateLimitDelaySec float64 `yaml:"rateLimitDelaySec"`
}

// RateLimitDelay converts the configured seconds into a duration.
func (c OpenAIConfig) RateLimitDelay() time.Duration {
	return time.Duration(c.RateLimitDelaySec * float64(time.Second))
}

// FetchConfig tunes the thread fetch collaborator.
type FetchConfig struct {
	UserAgent     string  `yaml:"userAgent"`
	BatchDelaySec float64 `yaml:"batchDelaySec"`
}

// BatchDelay is the pause between consecutive comment-batch requests.
func (c FetchConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelaySec * float64(time.Second))
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		OpenAI: OpenAIConfig{
			Endpoint:          defaultEndpoint,
			Model:             defaultModel,
			RateLimitDelaySec: defaultRateLimitDelay,
		},
		Fetch: FetchConfig{
			UserAgent:     defaultUserAgent,
			BatchDelaySec: defaultBatchDelay,
		},
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.RateLimitDelaySec > 0 {
		base.OpenAI.RateLimitDelaySec = override.OpenAI.RateLimitDelaySec
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.BatchDelaySec > 0 {
		base.Fetch.BatchDelaySec = override.Fetch.BatchDelaySec
	}
	return base
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv(openAIAPIKeyEnv); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if model := os.Getenv(openAIModelEnv); model != "" {
		cfg.OpenAI.Model = model
	}
	if delay := os.Getenv(rateLimitDelayEnv); delay != "" {
		if parsed, err := strconv.ParseFloat(delay, 64); err != nil {
			log.Printf("config: invalid %s=%q: %v (keeping %.2f)", rateLimitDelayEnv, delay, err, cfg.OpenAI.RateLimitDelaySec)
		} else if parsed >= 0 {
			cfg.OpenAI.RateLimitDelaySec = parsed
		}
	}
}
