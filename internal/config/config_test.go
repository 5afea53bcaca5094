package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != "30s" {
		t.Errorf("server.request_timeout = %q, want 30s", cfg.Server.RequestTimeout)
	}
	if cfg.OpenAI.Model != "gpt-5-mini" {
		t.Errorf("openai.model = %q, want gpt-5-mini", cfg.OpenAI.Model)
	}
	if cfg.Pinecone.Namespace != "default" {
		t.Errorf("pinecone.namespace = %q, want default", cfg.Pinecone.Namespace)
	}
	if cfg.Pinecone.TopK != 10 {
		t.Errorf("pinecone.top_k = %d, want 10", cfg.Pinecone.TopK)
	}
	if cfg.Exa.NumResults != 3 {
		t.Errorf("exa.num_results = %d, want 3", cfg.Exa.NumResults)
	}
	if cfg.Moderation.Model != "omni-moderation-latest" {
		t.Errorf("moderation.model = %q, want omni-moderation-latest", cfg.Moderation.Model)
	}
	if cfg.Agent.MaxSteps != 10 {
		t.Errorf("agent.max_steps = %d, want 10", cfg.Agent.MaxSteps)
	}
	if !cfg.Agent.SendReasoning {
		t.Error("agent.send_reasoning = false, want true")
	}
	if cfg.Storage.Type != "none" {
		t.Errorf("storage.type = %q, want none", cfg.Storage.Type)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SELLERSIGHT_OPENAI_API_KEY", "sk-test")
	t.Setenv("SELLERSIGHT_SERVER_PORT", "8080")
	t.Setenv("SELLERSIGHT_AGENT_MAX_STEPS", "5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("openai.api_key = %q, want sk-test", cfg.OpenAI.APIKey)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Agent.MaxSteps != 5 {
		t.Errorf("agent.max_steps = %d, want 5", cfg.Agent.MaxSteps)
	}
}

func TestLoad_FileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9090\npinecone:\n  top_k: 7\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Pinecone.TopK != 7 {
		t.Errorf("pinecone.top_k = %d, want 7", cfg.Pinecone.TopK)
	}
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("SELLERSIGHT_SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want env override 7070", cfg.Server.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 3000, RequestTimeout: "30s"},
		OpenAI:   OpenAIConfig{APIKey: "sk", Model: "gpt-5-mini"},
		Pinecone: PineconeConfig{APIKey: "pc", IndexHost: "https://idx.example.com", TopK: 10},
		Exa:      ExaConfig{APIKey: "exa", NumResults: 3},
		Agent:    AgentConfig{MaxSteps: 10},
		Storage:  StorageConfig{Type: "none"},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.APIKey = ""
	cfg.Exa.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	for _, key := range []string{"openai.api_key", "exa.api_key"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q missing %s", err, key)
		}
	}
}

func TestValidate_Ranges(t *testing.T) {
	cfg := validConfig()
	cfg.Agent.MaxSteps = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for max_steps 0")
	}

	cfg = validConfig()
	cfg.Server.RequestTimeout = "never"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unparseable timeout")
	}

	cfg = validConfig()
	cfg.Storage.Type = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown storage type")
	}

	cfg = validConfig()
	cfg.Storage.Type = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sqlite without a path")
	}
}

func TestRequestTimeout(t *testing.T) {
	cfg := validConfig()
	d, err := cfg.RequestTimeout()
	if err != nil {
		t.Fatalf("RequestTimeout() error: %v", err)
	}
	if d != 30*time.Second {
		t.Errorf("RequestTimeout() = %s, want 30s", d)
	}

	cfg.Server.RequestTimeout = "-5s"
	if _, err := cfg.RequestTimeout(); err == nil {
		t.Error("expected error for negative timeout")
	}
}
