package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
database:
  driver: sqlite
  path: data/test.db
dispatch:
  message_min_score: 50
  dedup: false
scheduler:
  enabled: false
  spec: "@every 10m"
matching:
  job_weights:
    skills: 50
    title: 20
    location: 15
    work_type: 10
    work_env: 5
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Database.Path != "data/test.db" {
		t.Fatalf("unexpected server/database config %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.Dispatch.Dedup == nil || *cfg.Dispatch.Dedup {
		t.Fatalf("expected dedup disabled, got %v", cfg.Dispatch.Dedup)
	}
	if cfg.Scheduler.On() || cfg.Scheduler.Spec != "@every 10m" {
		t.Fatalf("expected inline scheduler config, got %+v", cfg.Scheduler)
	}
	if cfg.Matching.JobWeights.Skills != 50 {
		t.Fatalf("expected job weights loaded, got %+v", cfg.Matching.JobWeights)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"weights": "matching:\n  job_weights:\n    skills: 10\n",
		"policy":  "dispatch:\n  email_min_score: 60\n  message_min_score: 40\n",
		"driver":  "database:\n  driver: mysql\n",
		"dsn":     "database:\n  driver: postgres\n",
		"ttl":     "redis:\n  dedup_ttl: soon\n",
		"yaml":    "server: [",
	}
	for name, content := range cases {
		path := writeFile(t, name+".yaml", content)
		if _, err := loadConfig(path); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Parallel()

	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadConfigExampleFile(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(filepath.Join("..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("loadConfig example error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if !cfg.Scheduler.On() || cfg.Scheduler.Spec != "@every 5m" {
		t.Fatalf("expected scheduler enabled every 5m, got %+v", cfg.Scheduler)
	}
	if cfg.Email.Enabled() {
		t.Fatalf("expected smtp disabled in the example config")
	}
}
