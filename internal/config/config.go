// Package config loads application configuration from a TOML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DocsConfig configures the documents folder and upload limits.
type DocsConfig struct {
	// Folder is the directory holding the document library.
	Folder string `toml:"folder"`

	// MaxFileSizeMB caps uploads in mebibytes.
	MaxFileSizeMB int64 `toml:"max_file_size_mb"`
}

// IndexConfig configures chunking and search parameters.
type IndexConfig struct {
	// ChunkSizeWords is the word budget per chunk.
	ChunkSizeWords int `toml:"chunk_size_words"`

	// DefaultTopK is the number of semantic results when unspecified.
	DefaultTopK int `toml:"default_top_k"`

	// MaxTopK caps the number of semantic results per query.
	MaxTopK int `toml:"max_top_k"`

	// PreviewLength is the snippet length for search results.
	PreviewLength int `toml:"preview_length"`
}

// OllamaConfig configures the local model server.
type OllamaConfig struct {
	// URL is the Ollama base URL.
	URL string `toml:"url"`

	// EmbedModel is the embedding model name.
	EmbedModel string `toml:"embed_model"`

	// ChatModel is the answer generation model name.
	ChatModel string `toml:"chat_model"`

	// TimeoutSecs bounds each Ollama request.
	TimeoutSecs int `toml:"timeout_secs"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	// Host is the listen address.
	Host string `toml:"host"`

	// Port is the listen port.
	Port int `toml:"port"`
}

// Config is the root application configuration.
type Config struct {
	Docs    DocsConfig   `toml:"docs"`
	Index   IndexConfig  `toml:"index"`
	Ollama  OllamaConfig `toml:"ollama"`
	API     APIConfig    `toml:"api"`
	Verbose bool         `toml:"verbose"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		Docs: DocsConfig{
			Folder:        "docs",
			MaxFileSizeMB: 50,
		},
		Index: IndexConfig{
			ChunkSizeWords: 500,
			DefaultTopK:    5,
			MaxTopK:        20,
			PreviewLength:  250,
		},
		Ollama: OllamaConfig{
			URL:         "http://localhost:11434",
			EmbedModel:  "nomic-embed-text",
			ChatModel:   "llama3.2",
			TimeoutSecs: 30,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
	}
}

// Load reads configuration from the given TOML file, falling back to
// defaults when the file does not exist, then applies REFCHAT_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// No config file - defaults apply.
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers REFCHAT_* environment variables on top of the
// loaded values. Environment always wins over the file.
func applyEnvOverrides(cfg *Config) {
	setString("REFCHAT_DOCS_FOLDER", &cfg.Docs.Folder)
	setInt64("REFCHAT_MAX_FILE_SIZE_MB", &cfg.Docs.MaxFileSizeMB)
	setInt("REFCHAT_CHUNK_SIZE_WORDS", &cfg.Index.ChunkSizeWords)
	setInt("REFCHAT_DEFAULT_TOP_K", &cfg.Index.DefaultTopK)
	setInt("REFCHAT_MAX_TOP_K", &cfg.Index.MaxTopK)
	setInt("REFCHAT_PREVIEW_LENGTH", &cfg.Index.PreviewLength)
	setString("REFCHAT_OLLAMA_URL", &cfg.Ollama.URL)
	setString("REFCHAT_EMBED_MODEL", &cfg.Ollama.EmbedModel)
	setString("REFCHAT_CHAT_MODEL", &cfg.Ollama.ChatModel)
	setInt("REFCHAT_OLLAMA_TIMEOUT", &cfg.Ollama.TimeoutSecs)
	setString("REFCHAT_API_HOST", &cfg.API.Host)
	setInt("REFCHAT_API_PORT", &cfg.API.Port)
	setBool("REFCHAT_VERBOSE", &cfg.Verbose)
}

// Validate checks invariants the rest of the application relies on.
func (c *Config) Validate() error {
	if c.Docs.Folder == "" {
		return errors.New("docs folder must not be empty")
	}
	if c.Docs.MaxFileSizeMB <= 0 {
		return errors.New("max file size must be positive")
	}
	if c.Index.ChunkSizeWords <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.Index.DefaultTopK <= 0 {
		return errors.New("default top_k must be positive")
	}
	if c.Index.MaxTopK < c.Index.DefaultTopK {
		return fmt.Errorf("max top_k (%d) must be >= default top_k (%d)", c.Index.MaxTopK, c.Index.DefaultTopK)
	}
	if c.Index.PreviewLength <= 0 {
		return errors.New("preview length must be positive")
	}
	if c.Ollama.URL == "" {
		return errors.New("ollama url must not be empty")
	}
	if c.Ollama.TimeoutSecs <= 0 {
		return errors.New("ollama timeout must be positive")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	return nil
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Docs.MaxFileSizeMB << 20
}

// OllamaTimeout returns the per-request Ollama timeout.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

// ListenAddr returns the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
