// Package config loads recall's settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "recall"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DBFile is the default SQLite file name under the data directory.
	DBFile = "embeddings.db"
)

// Embedding backends.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// ErrInvalidConfig is returned when the settings file has bad values.
var ErrInvalidConfig = errors.New("invalid config")

// Settings is the content of config.yml.
type Settings struct {
	Retrieval         RetrievalSettings    `yaml:"retrieval"`
	Embedder          EmbedderSettings     `yaml:"embedder"`
	Models            ModelSettings        `yaml:"models"`
	ModelCacheTTLSecs int                  `yaml:"model_cache_ttl_secs"`
	Connectivity      ConnectivitySettings `yaml:"connectivity"`
	Store             StoreSettings        `yaml:"store"`
	Notes             NotesSettings        `yaml:"notes"`
}

// RetrievalSettings switches semantic retrieval on or off.
type RetrievalSettings struct {
	Enabled *bool `yaml:"enabled"` // nil means enabled
}

// EmbedderSettings selects and configures the embedding backend.
type EmbedderSettings struct {
	Backend           string  `yaml:"backend"`
	OllamaURL         string  `yaml:"ollama_url"`
	OpenAIBaseURL     string  `yaml:"openai_base_url"`
	OpenAIAPIKeyEnv   string  `yaml:"openai_api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ModelSettings pins models per use case. Empty means auto-select.
type ModelSettings struct {
	Embedding string `yaml:"embedding"`
	Chat      string `yaml:"chat"`
}

// ConnectivitySettings tunes the reachability probe.
type ConnectivitySettings struct {
	TTLSecs int `yaml:"ttl_secs"`
	WaitMs  int `yaml:"wait_ms"`
}

// StoreSettings selects where embeddings are kept.
type StoreSettings struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// NotesSettings says where notes come from.
type NotesSettings struct {
	Dir   string `yaml:"dir"`
	JSONL string `yaml:"jsonl"`
}

// DefaultPath returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/recall/config.yml.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultDBPath returns the default SQLite path.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/recall/embeddings.db.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DBFile
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, ConfigDir, DBFile)
}

// Load reads settings from path, or from DefaultPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}

	var s Settings
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &s); err != nil {
				return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	s.applyDefaults()
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyDefaults fills every unset field.
func (s *Settings) applyDefaults() {
	if s.Embedder.Backend == "" {
		s.Embedder.Backend = BackendOllama
	}
	if s.Embedder.OllamaURL == "" {
		s.Embedder.OllamaURL = "http://localhost:11434"
	}
	if s.Embedder.OpenAIAPIKeyEnv == "" {
		s.Embedder.OpenAIAPIKeyEnv = "OPENAI_API_KEY"
	}
	if s.Embedder.TimeoutSecs <= 0 {
		s.Embedder.TimeoutSecs = 30
	}
	if s.ModelCacheTTLSecs <= 0 {
		s.ModelCacheTTLSecs = 300
	}
	if s.Connectivity.TTLSecs <= 0 {
		s.Connectivity.TTLSecs = 30
	}
	if s.Connectivity.WaitMs <= 0 {
		s.Connectivity.WaitMs = 1500
	}
	if s.Store.Backend == "" {
		s.Store.Backend = StoreSQLite
	}
	if s.Store.Path == "" {
		s.Store.Path = DefaultDBPath()
	}
	s.Store.Path = ExpandTilde(s.Store.Path)
	s.Notes.Dir = ExpandTilde(s.Notes.Dir)
	s.Notes.JSONL = ExpandTilde(s.Notes.JSONL)
}

func (s *Settings) validate() error {
	switch s.Embedder.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("%w: unknown embedder backend %q (want %s or %s)", ErrInvalidConfig, s.Embedder.Backend, BackendOllama, BackendOpenAI)
	}
	switch s.Store.Backend {
	case StoreSQLite, StoreMemory:
	case StorePostgres:
		if s.Store.PostgresDSN == "" {
			return fmt.Errorf("%w: store.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, s.Store.Backend)
	}
	if s.Embedder.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedder.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// RetrievalEnabled reports whether semantic retrieval is switched on.
func (s *Settings) RetrievalEnabled() bool {
	return s.Retrieval.Enabled == nil || *s.Retrieval.Enabled
}

// EmbedTimeout is the per-request timeout for the embedding backend.
func (s *Settings) EmbedTimeout() time.Duration {
	return time.Duration(s.Embedder.TimeoutSecs) * time.Second
}

// ModelCacheTTL is how long resolved model names are reused.
func (s *Settings) ModelCacheTTL() time.Duration {
	return time.Duration(s.ModelCacheTTLSecs) * time.Second
}

// ConnectivityTTL is how long a probe result is reused.
func (s *Settings) ConnectivityTTL() time.Duration {
	return time.Duration(s.Connectivity.TTLSecs) * time.Second
}

// ConnectivityWait is how long a caller waits on a running probe.
func (s *Settings) ConnectivityWait() time.Duration {
	return time.Duration(s.Connectivity.WaitMs) * time.Millisecond
}

// OpenAIAPIKey reads the API key from the configured environment variable.
func (s *Settings) OpenAIAPIKey() string {
	return os.Getenv(s.Embedder.OpenAIAPIKeyEnv)
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
