package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "LOG_LEVEL", "FAKE_SERVER_CONFIG"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
listen_addr: ":9000"
database_url: postgres://file
log_level: debug
expr_cost_limit: 500
request_timeout: 5s
`)
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := Default()
	want.ListenAddr = ":9000"
	want.DatabaseURL = "postgres://env"
	want.LogLevel = "debug"
	want.ExprCostLimit = 500
	want.RequestTimeout = 5 * time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("FAKE_SERVER_CONFIG", writeFile(t, "log_level: warn\n"))
	t.Setenv("PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.ListenAddr != ":7070" {
		t.Errorf("got log level %q and addr %q", cfg.LogLevel, cfg.ListenAddr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "listen_addr: [", "failed to parse"},
		{"bad level", "log_level: loud", "invalid log_level"},
		{"zero cost", "expr_cost_limit: 0", "expr_cost_limit"},
		{"negative journal timeout", "journal_timeout: -1s", "journal_timeout"},
		{"zero shutdown", "shutdown_timeout: 0s", "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeFile(t, tt.content))
			if err == nil {
				t.Fatalf("Load() should fail with %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
