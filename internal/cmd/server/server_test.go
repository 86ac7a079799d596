package server

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DICE_PORT", "DICE_LISTEN_ADDR", "DICE_LIMITS_PROFILE", "DICE_REPLAYABLE_SEEDS", "DICE_OTEL_ENDPOINT"} {
		t.Setenv(key, "")
	}
	if err := os.Unsetenv("DICE_PORT"); err != nil {
		t.Fatalf("unset DICE_PORT: %v", err)
	}
	if err := os.Unsetenv("DICE_REPLAYABLE_SEEDS"); err != nil {
		t.Fatalf("unset DICE_REPLAYABLE_SEEDS: %v", err)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	clearEnv(t)
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.ListenAddr() != ":8080" {
		t.Fatalf("expected listen addr :8080, got %q", cfg.ListenAddr())
	}
	if cfg.ReplayableSeeds {
		t.Fatal("expected replayable seeds off by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DICE_PORT", "9100")
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-limits", "strict.yaml", "-replayable-seeds"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("expected env port 9100, got %d", cfg.Port)
	}
	if cfg.ListenAddr() != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.ListenAddr())
	}
	if cfg.Limits != "strict.yaml" || !cfg.ReplayableSeeds {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	clearEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, Config{Addr: "127.0.0.1:0"}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunRejectsInvalidProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "limits.yaml")
	if err := os.WriteFile(path, []byte("max_rerolls: 0\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	err := Run(context.Background(), Config{Addr: "127.0.0.1:0", Limits: path})
	if err == nil || !strings.Contains(err.Error(), "invalid limits") {
		t.Fatalf("expected invalid limits error, got %v", err)
	}
}
