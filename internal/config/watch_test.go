package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pulserelay/pulserelay/internal/config"
)

func TestWatch_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  cors_origin: "https://old.example.com"
`)
	initial, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *config.Config, 1)
	go func() {
		if err := config.Watch(ctx, path, initial, func(c *config.Config) {
			select {
			case changed <- c:
			default:
			}
		}); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	// Give the watcher a moment to arm before rewriting the file.
	time.Sleep(50 * time.Millisecond)
	update := []byte("server:\n  cors_origin: \"https://new.example.com\"\n")
	if err := os.WriteFile(path, update, 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.CORSOrigin != "https://new.example.com" {
			t.Errorf("cors_origin: got %q, want https://new.example.com", cfg.Server.CORSOrigin)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onChange not called after config rewrite")
	}
}

func TestWatch_IgnoresNoOpRewrite(t *testing.T) {
	clearEnv(t)
	content := "server:\n  cors_origin: \"https://same.example.com\"\n"
	path := writeConfig(t, content)
	initial, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *config.Config, 1)
	go func() {
		config.Watch(ctx, path, initial, func(c *config.Config) { //nolint:errcheck
			select {
			case changed <- c:
			default:
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-changed:
		t.Fatal("onChange called for a rewrite with identical settings")
	case <-time.After(300 * time.Millisecond):
	}
}
