package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/config"
)

func TestDefaultsApplied(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")

	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be reported missing")
	}
	if cfg.Server.Bind != "127.0.0.1:8300" {
		t.Fatalf("unexpected default bind: %q", cfg.Server.Bind)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Fatalf("unexpected default base url: %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.APIKey != "env-key" {
		t.Fatalf("expected api key from environment, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Cache.BackfillDepth <= 0 {
		t.Fatalf("expected positive backfill depth, got %d", cfg.Cache.BackfillDepth)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
bind = "0.0.0.0:9000"
debug = true

[tmdb]
api_key = "file-key"
language = "fi"

[database]
path = "` + filepath.Join(dir, "db", "catalog.db") + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if !cfg.Server.Debug {
		t.Fatal("expected debug mode enabled")
	}
	if cfg.TMDB.APIKey != "file-key" {
		t.Fatalf("unexpected api key: %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.Language != "fi" {
		t.Fatalf("unexpected language: %q", cfg.TMDB.Language)
	}
}

func TestLanguageTagNormalized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[tmdb]
api_key = "key"
language = "en-us"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.Language != "en-US" {
		t.Fatalf("expected canonical language tag, got %q", cfg.TMDB.Language)
	}
}

func TestMissingAPIKeyRejected(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")

	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error when api key unset")
	}
	if !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvalidBindRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
bind = "not-an-address"

[tmdb]
api_key = "key"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for malformed bind address")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[tmdb]") {
		t.Fatal("sample config missing tmdb section")
	}
}
