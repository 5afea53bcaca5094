// Package config loads the agent configuration from an optional YAML file
// and SELLERSIGHT_-prefixed environment variables, environment winning.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	Pinecone   PineconeConfig   `koanf:"pinecone"`
	Exa        ExaConfig        `koanf:"exa"`
	Moderation ModerationConfig `koanf:"moderation"`
	Agent      AgentConfig      `koanf:"agent"`
	Storage    StorageConfig    `koanf:"storage"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout is the wall-clock ceiling per turn, e.g. "30s".
	RequestTimeout string `koanf:"request_timeout"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	// ReasoningEffort is forwarded to reasoning-capable models; empty omits it.
	ReasoningEffort string `koanf:"reasoning_effort"`
}

type PineconeConfig struct {
	APIKey string `koanf:"api_key"`
	// IndexHost is the full https host of the serverless index.
	IndexHost string `koanf:"index_host"`
	Namespace string `koanf:"namespace"`
	TopK      int    `koanf:"top_k"`
}

type ExaConfig struct {
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	NumResults int    `koanf:"num_results"`
}

type ModerationConfig struct {
	Model string `koanf:"model"`
}

type AgentConfig struct {
	// MaxSteps bounds the tool-calling loop per turn.
	MaxSteps int `koanf:"max_steps"`
	// SendReasoning controls whether reasoning deltas reach the client.
	SendReasoning bool `koanf:"send_reasoning"`
}

type StorageConfig struct {
	// Type selects the turn audit store: sqlite, memory, none.
	Type   string       `koanf:"type"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// Load reads configuration. path may be "" to skip the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment overrides: SELLERSIGHT_OPENAI_API_KEY -> openai.api_key.
	// Only the first underscore splits the section from the key; the rest of
	// the name keeps its underscores.
	if err := k.Load(env.Provider("SELLERSIGHT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "SELLERSIGHT_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":             3000,
		"server.request_timeout":  "30s",
		"openai.model":            "gpt-5-mini",
		"openai.reasoning_effort": "low",
		"pinecone.namespace":      "default",
		"pinecone.top_k":          10,
		"exa.num_results":         3,
		"moderation.model":        "omni-moderation-latest",
		"agent.max_steps":         10,
		"agent.send_reasoning":    true,
		"storage.type":            "none",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}
}

// Validate fails fast on missing credentials or out-of-range values so a
// misconfigured process never partially operates.
func (c *Config) Validate() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "openai.api_key")
	}
	if c.Pinecone.APIKey == "" {
		missing = append(missing, "pinecone.api_key")
	}
	if c.Pinecone.IndexHost == "" {
		missing = append(missing, "pinecone.index_host")
	}
	if c.Exa.APIKey == "" {
		missing = append(missing, "exa.api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be at least 1, got %d", c.Agent.MaxSteps)
	}
	if c.Pinecone.TopK < 1 {
		return fmt.Errorf("pinecone.top_k must be at least 1, got %d", c.Pinecone.TopK)
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path required when storage.type is sqlite")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	return nil
}

// RequestTimeout parses the per-request wall-clock ceiling.
func (c *Config) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.request_timeout %q: %w", c.Server.RequestTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	return d, nil
}
