package source_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	source "coinflow/pkg/source"
	_ "coinflow/pkg/source/coingecko"
)

func TestLoadSourceConfig(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
default: coingecko
providers:
  coingecko:
    type: coingecko
    base_url: https://api.coingecko.com/api/v3
    vs_currency: usd
    timeout: 6s
`
	path := filepath.Join(dir, "source.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := source.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Default != "coingecko" {
		t.Fatalf("unexpected default: %s", cfg.Default)
	}

	providers, err := cfg.BuildProviders()
	if err != nil {
		t.Fatalf("BuildProviders error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(providers))
	}
	if _, ok := providers["coingecko"]; !ok {
		t.Fatalf("provider map missing coingecko")
	}
}

func TestSourceConfigInvalidType(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
providers:
  demo:
    type: foobar
`
	path := filepath.Join(dir, "source.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := source.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestSourceConfigEmptyProviders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.yaml")
	if err := os.WriteFile(path, []byte("providers: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := source.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "providers cannot be empty") {
		t.Fatalf("expected empty providers error, got %v", err)
	}
}

func TestSourceConfigBadTimeout(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
providers:
  coingecko:
    type: coingecko
    timeout: soon
`
	path := filepath.Join(dir, "source.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := source.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid timeout") {
		t.Fatalf("expected invalid timeout error, got %v", err)
	}
}
