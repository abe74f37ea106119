// Package config provides configuration management for the ingestion
// pipeline. It loads settings from environment variables with the BRAIN_
// prefix, after first merging a .env file when one is present, and provides
// sensible defaults for all configuration options.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/studyops/brain/internal/llm"
)

// Config holds all configuration settings for the pipeline.
type Config struct {
	Storage  StorageConfig
	LLM      LLMConfig
	Notebook NotebookConfig
	Ingest   IngestConfig
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresDSN   string // Connection string, used when engine is postgres
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	LLMProvider     string        // LLM provider: ollama, openai, anthropic, none (default: ollama)
	OllamaURL       string        // Ollama API URL (default: http://localhost:11434)
	OllamaModel     string        // Ollama model name (default: qwen2.5:7b)
	OpenAIAPIKey    string        // OpenAI API key
	OpenAIModel     string        // OpenAI model name (default: gpt-4)
	AnthropicAPIKey string        // Anthropic API key
	AnthropicModel  string        // Anthropic model name (default: claude-3-5-sonnet-20241022)
	Timeout         time.Duration // Per-request timeout (default: 45s)
}

// NotebookConfig contains the connection settings for the external
// notebook's local REST API.
type NotebookConfig struct {
	VaultURL   string // Vault API base URL (default: https://127.0.0.1:27124)
	VaultToken string // Bearer token for the vault API
	NotePath   string // Note receiving the managed block (default: WRAP Highlights.md)
}

// IngestConfig contains the pipeline's filesystem locations.
type IngestConfig struct {
	InboxDir     string // Directory watched for incoming documents (default: ./inbox)
	ProcessedDir string // Where ingested files are moved (default: ./inbox/processed)
	FailedDir    string // Where rejected files are moved (default: ./inbox/failed)
	PatchesDir   string // Where deferred note patches are written (default: ./patches)
}

// LoadConfig loads configuration from a .env file (when present) and
// environment variables, with defaults for everything unset. Variables
// already exported in the environment win over .env entries.
func LoadConfig() (*Config, error) {
	// godotenv never overrides exported variables; a missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Storage: StorageConfig{
			StorageEngine: getEnv("BRAIN_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("BRAIN_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("BRAIN_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			LLMProvider:     getEnv("BRAIN_LLM_PROVIDER", "ollama"),
			OllamaURL:       getEnv("BRAIN_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("BRAIN_OLLAMA_MODEL", "qwen2.5:7b"),
			OpenAIAPIKey:    getEnv("BRAIN_OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("BRAIN_OPENAI_MODEL", "gpt-4"),
			AnthropicAPIKey: getEnv("BRAIN_ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("BRAIN_ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			Timeout:         getEnvDuration("BRAIN_LLM_TIMEOUT", 45*time.Second),
		},
		Notebook: NotebookConfig{
			VaultURL:   getEnv("BRAIN_VAULT_URL", "https://127.0.0.1:27124"),
			VaultToken: getEnv("BRAIN_VAULT_TOKEN", ""),
			NotePath:   getEnv("BRAIN_NOTE_PATH", "WRAP Highlights.md"),
		},
		Ingest: IngestConfig{
			InboxDir:     getEnv("BRAIN_INBOX_DIR", "./inbox"),
			ProcessedDir: getEnv("BRAIN_PROCESSED_DIR", "./inbox/processed"),
			FailedDir:    getEnv("BRAIN_FAILED_DIR", "./inbox/failed"),
			PatchesDir:   getEnv("BRAIN_PATCHES_DIR", "./patches"),
		},
	}
	return cfg, nil
}

// LLMClientConfig maps the loaded settings onto the llm package's
// provider-neutral client configuration.
func (c *Config) LLMClientConfig() llm.Config {
	cfg := llm.Config{
		Provider: c.LLM.LLMProvider,
		Timeout:  c.LLM.Timeout,
	}
	switch c.LLM.LLMProvider {
	case "openai":
		cfg.APIKey = c.LLM.OpenAIAPIKey
		cfg.Model = c.LLM.OpenAIModel
	case "anthropic":
		cfg.APIKey = c.LLM.AnthropicAPIKey
		cfg.Model = c.LLM.AnthropicModel
	default:
		cfg.BaseURL = c.LLM.OllamaURL
		cfg.Model = c.LLM.OllamaModel
	}
	return cfg
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (e.g. "30s")
// or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
