package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadResolvesRelativeDSN(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{
		"basic_config": {"server_address": ":8090", "provider": "openai"},
		"databases": {
			"sqlite3": {"dsn": "data/app.db"},
			"memory": {"dsn": ":memory:"}
		},
		"providers": {"openai": {"model": "gpt-4o-mini", "api_key": "k"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := filepath.Join(dir, "data", "app.db")
	if cfg.Databases["sqlite3"].DSN != want {
		t.Fatalf("relative dsn not resolved: %q", cfg.Databases["sqlite3"].DSN)
	}
	if cfg.Databases["memory"].DSN != ":memory:" {
		t.Fatalf(":memory: dsn must stay untouched: %q", cfg.Databases["memory"].DSN)
	}
	if cfg.BasicConfig.Provider != "openai" {
		t.Fatalf("provider not loaded: %q", cfg.BasicConfig.Provider)
	}
}

func TestLoadRequiresDatabase(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"basic_config": {"server_address": ":8090"}}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing databases")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"basic_config": `)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
