package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"jobmatch/internal/events"
	"jobmatch/internal/storage"

	"go.uber.org/zap"
)

func TestBuildDepsRejectsBadDedupTTL(t *testing.T) {
	t.Parallel()

	cfg := AppConfig{
		Database: storage.Config{Path: filepath.Join(t.TempDir(), "app.db")},
		Redis:    events.Config{URL: "redis://127.0.0.1:1/0", DedupTTL: "soon"},
	}
	_, cleanup, err := buildDeps(context.Background(), cfg, zap.NewNop())
	defer cleanup()
	if err == nil || !strings.Contains(err.Error(), "dedup_ttl") {
		t.Fatalf("expected dedup_ttl error, got %v", err)
	}
}

func TestBuildDepsWithoutRedis(t *testing.T) {
	t.Parallel()

	cfg := AppConfig{Database: storage.Config{Path: filepath.Join(t.TempDir(), "app.db")}}
	deps, cleanup, err := buildDeps(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildDeps error: %v", err)
	}
	defer cleanup()
	if deps.store == nil || deps.service == nil || deps.profiles == nil || deps.sched == nil {
		t.Fatalf("expected all dependencies built, got %+v", deps)
	}
}
