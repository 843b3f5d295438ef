package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pulserelay/pulserelay/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// clearEnv blanks the override variables so ambient environment cannot leak
// into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("CORS_ORIGIN", "")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != config.DefaultPort {
		t.Errorf("port: got %d, want %d", cfg.Server.Port, config.DefaultPort)
	}
	if cfg.Server.CORSOrigin != config.DefaultCORSOrigin {
		t.Errorf("cors_origin: got %q, want %q", cfg.Server.CORSOrigin, config.DefaultCORSOrigin)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8085
  cors_origin: "https://app.example.com"
`)
	clearEnv(t)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8085 {
		t.Errorf("port: got %d, want 8085", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "https://app.example.com" {
		t.Errorf("cors_origin: got %q", cfg.Server.CORSOrigin)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
`)
	clearEnv(t)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.CORSOrigin != config.DefaultCORSOrigin {
		t.Errorf("cors_origin: got %q, want default", cfg.Server.CORSOrigin)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8085
  cors_origin: "https://file.example.com"
`)
	t.Setenv("PORT", "4000")
	t.Setenv("CORS_ORIGIN", "https://env.example.com")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("port: got %d, want env override 4000", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "https://env.example.com" {
		t.Errorf("cors_origin: got %q, want env override", cfg.Server.CORSOrigin)
	}
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load: expected error for non-numeric PORT")
	}
}

func TestLoad_PortOutOfRange(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 70000
`)
	clearEnv(t)
	if _, err := config.Load(path); err == nil {
		t.Fatal("Load: expected error for out-of-range port")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: valid")
	if _, err := config.Load(path); err == nil {
		t.Fatal("Load: expected parse error")
	}
}
