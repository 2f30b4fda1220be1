package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunarc.yaml")
	body := "host: 127.0.0.1\nport: 9000\nworkers: 16\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 9000 || cfg.Workers != 16 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Unset fields keep the compiled-in default.
	if cfg.GRPCPort != Defaults().GRPCPort {
		t.Errorf("expected grpc_port to keep default, got %d", cfg.GRPCPort)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("LUNARC_TEST_VAR", "")
	if got := EnvOrDefault("LUNARC_TEST_VAR", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	t.Setenv("LUNARC_TEST_VAR", "set")
	if got := EnvOrDefault("LUNARC_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("expected set value, got %q", got)
	}
}
