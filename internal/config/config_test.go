package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MCHESS_HOST", "")
	t.Setenv("MCHESS_CONFIG", "")
	os.Unsetenv("MCHESS_HOST")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "localhost:8001" || cfg.Actor != "WebAgent" {
		t.Fatalf("unexpected defaults: host=%q actor=%q", cfg.Host, cfg.Actor)
	}
	if cfg.ReconnectDelay != time.Second {
		t.Fatalf("expected 1s reconnect delay, got %s", cfg.ReconnectDelay)
	}
	if got := cfg.WSURL(); got != "ws://localhost:8001/ws" {
		t.Fatalf("WSURL = %q", got)
	}
}

func TestLoadSecureScheme(t *testing.T) {
	t.Setenv("MCHESS_HOST", "chess.example.org")
	t.Setenv("MCHESS_SECURE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.WSURL(); got != "wss://chess.example.org/ws" {
		t.Fatalf("WSURL = %q", got)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mchess.yaml")
	body := "host: board.local:9000\nreconnect_delay: 250ms\nhttp_addr: \":8090\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MCHESS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "board.local:9000" || cfg.ReconnectDelay != 250*time.Millisecond || cfg.HTTPAddr != ":8090" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.Actor != "WebAgent" {
		t.Fatalf("env default lost under overlay: actor=%q", cfg.Actor)
	}
}

func TestLoadRejectsURLHost(t *testing.T) {
	t.Setenv("MCHESS_HOST", "ws://localhost:8001")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for scheme in host")
	}
}
