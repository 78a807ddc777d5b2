package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := DefaultPath(), "/custom/config/recall/config.yml"; got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := DefaultPath(), filepath.Join(home, ".config", "recall", "config.yml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got, want := DefaultDBPath(), "/data/recall/embeddings.db"; got != want {
		t.Errorf("DefaultDBPath() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "/data")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !s.RetrievalEnabled() {
		t.Error("retrieval should default to enabled")
	}
	if s.Embedder.Backend != BackendOllama {
		t.Errorf("Backend = %q, want %q", s.Embedder.Backend, BackendOllama)
	}
	if s.Store.Backend != StoreSQLite || s.Store.Path != "/data/recall/embeddings.db" {
		t.Errorf("Store = %+v", s.Store)
	}
	if s.EmbedTimeout() != 30*time.Second {
		t.Errorf("EmbedTimeout() = %v, want 30s", s.EmbedTimeout())
	}
	if s.ConnectivityWait() != 1500*time.Millisecond {
		t.Errorf("ConnectivityWait() = %v, want 1.5s", s.ConnectivityWait())
	}
	if s.ConnectivityTTL() != 30*time.Second {
		t.Errorf("ConnectivityTTL() = %v, want 30s", s.ConnectivityTTL())
	}
	if s.ModelCacheTTL() != 5*time.Minute {
		t.Errorf("ModelCacheTTL() = %v, want 5m", s.ModelCacheTTL())
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
retrieval:
  enabled: false
embedder:
  backend: openai
  openai_base_url: http://localhost:8080/v1
  openai_api_key_env: TEST_RECALL_KEY
  timeout_secs: 5
  requests_per_second: 2.5
models:
  embedding: nomic-embed-text
connectivity:
  ttl_secs: 10
  wait_ms: 250
store:
  backend: memory
notes:
  dir: ~/notes
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_RECALL_KEY", "sk-test")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.RetrievalEnabled() {
		t.Error("RetrievalEnabled() = true, want false")
	}
	if s.Embedder.Backend != BackendOpenAI || s.Embedder.RequestsPerSecond != 2.5 {
		t.Errorf("Embedder = %+v", s.Embedder)
	}
	if s.OpenAIAPIKey() != "sk-test" {
		t.Errorf("OpenAIAPIKey() = %q, want sk-test", s.OpenAIAPIKey())
	}
	if s.Models.Embedding != "nomic-embed-text" || s.Models.Chat != "" {
		t.Errorf("Models = %+v", s.Models)
	}
	if s.ConnectivityWait() != 250*time.Millisecond {
		t.Errorf("ConnectivityWait() = %v", s.ConnectivityWait())
	}
	home, err := os.UserHomeDir()
	if err == nil && s.Notes.Dir != filepath.Join(home, "notes") {
		t.Errorf("Notes.Dir = %q, want tilde expanded", s.Notes.Dir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "retrieval: [unclosed"},
		{"unknown embedder", "embedder:\n  backend: cohere\n"},
		{"unknown store", "store:\n  backend: redis\n"},
		{"postgres without dsn", "store:\n  backend: postgres\n"},
		{"negative rate", "embedder:\n  requests_per_second: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/x", filepath.Join(home, "x")},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"rel/~/path", "rel/~/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandTilde(tt.in); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
