package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"APP_ENV", "SETTLE_DELAY_MS", "CORS_ALLOWED_ORIGINS", "WATCH_INTERVAL_SEC", "WATCH_FORMAT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppEnv != "prod" || cfg.SettleDelayMs != 0 || cfg.WatchIntervalSec != 5 || cfg.WatchFormat != "tsv" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins=%v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DIRECTORY_FILE=/etc/reviewsheet/dir.yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SETTLE_DELAY_MS", "1500")
	t.Setenv("CORS_ALLOWED_ORIGINS", "chrome-extension://abc, ,http://localhost:3000")
	t.Setenv("WATCH_INTERVAL_SEC", "nope")
	t.Setenv("WATCH_FORMAT", "XLSX")
	t.Cleanup(func() { os.Unsetenv("DIRECTORY_FILE") })

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DirectoryFile != "/etc/reviewsheet/dir.yaml" {
		t.Fatalf("directory file=%q", cfg.DirectoryFile)
	}
	if cfg.SettleDelayMs != 1500 {
		t.Fatalf("settle=%d", cfg.SettleDelayMs)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:3000" {
		t.Fatalf("origins=%v", cfg.CORSAllowedOrigins)
	}
	if cfg.WatchIntervalSec != 5 || cfg.WatchFormat != "xlsx" {
		t.Fatalf("watch=%d %s", cfg.WatchIntervalSec, cfg.WatchFormat)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("X", " "); err == nil {
		t.Fatal("expected error")
	}
	if err := cfg.Require("X", "v"); err != nil {
		t.Fatal(err)
	}
}
