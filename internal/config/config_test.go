package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")
	t.Setenv(openAIModelEnv, "")
	t.Setenv(rateLimitDelayEnv, "")

	cfg := Load()

	if cfg.OpenAI.Endpoint != defaultEndpoint {
		t.Fatalf("endpoint: %q", cfg.OpenAI.Endpoint)
	}
	if cfg.OpenAI.Model != defaultModel {
		t.Fatalf("model: %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.RateLimitDelaySec != defaultRateLimitDelay {
		t.Fatalf("rate limit delay: %v", cfg.OpenAI.RateLimitDelaySec)
	}
	if cfg.Fetch.UserAgent != defaultUserAgent {
		t.Fatalf("user agent: %q", cfg.Fetch.UserAgent)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("log level: %q", cfg.Logging.Level)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
openai:
  model: gpt-4o-mini
  rateLimitDelaySec: 2.5
fetch:
  userAgent: TimelineTrackerTest/1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(openAIAPIKeyEnv, "")
	t.Setenv(openAIModelEnv, "")
	t.Setenv(rateLimitDelayEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level: %q", cfg.Logging.Level)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("model: %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.RateLimitDelaySec != 2.5 {
		t.Fatalf("rate limit delay: %v", cfg.OpenAI.RateLimitDelaySec)
	}
	// Unset file fields keep their defaults.
	if cfg.OpenAI.Endpoint != defaultEndpoint {
		t.Fatalf("endpoint: %q", cfg.OpenAI.Endpoint)
	}
	if cfg.Fetch.UserAgent != "TimelineTrackerTest/1.0" {
		t.Fatalf("user agent: %q", cfg.Fetch.UserAgent)
	}
}

func TestLoadEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  model: from-file\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(openAIAPIKeyEnv, "env-key")
	t.Setenv(openAIModelEnv, "from-env")
	t.Setenv(rateLimitDelayEnv, "0")

	cfg := Load()

	if cfg.OpenAI.APIKey != "env-key" {
		t.Fatalf("api key: %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "from-env" {
		t.Fatalf("model: %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.RateLimitDelaySec != 0 {
		t.Fatalf("rate limit delay: %v", cfg.OpenAI.RateLimitDelaySec)
	}
}

func TestLoadInvalidDelayKeepsDefault(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")
	t.Setenv(openAIModelEnv, "")
	t.Setenv(rateLimitDelayEnv, "not-a-number")

	cfg := Load()

	if cfg.OpenAI.RateLimitDelaySec != defaultRateLimitDelay {
		t.Fatalf("rate limit delay: %v", cfg.OpenAI.RateLimitDelaySec)
	}
}
