package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	OutputDir     string
	DirectoryFile string
	SettleDelayMs int

	HTTPAddr           string
	CORSAllowedOrigins []string
	MetricsTextfile    string

	WatchDir         string
	WatchIntervalSec int
	WatchFormat      string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "prod"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OutputDir:     getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		DirectoryFile: getEnv("DIRECTORY_FILE", ""),
		SettleDelayMs: getEnvInt("SETTLE_DELAY_MS", 0),

		HTTPAddr:           getEnv("HTTP_ADDR", "127.0.0.1:8787"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"chrome-extension://*", "moz-extension://*"}),
		MetricsTextfile:    getEnv("METRICS_TEXTFILE", ""),

		WatchDir:         getEnv("WATCH_DIR", filepath.Join(cwd, "data", "inbox")),
		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 5),
		WatchFormat:      strings.ToLower(getEnv("WATCH_FORMAT", "tsv")),
	}

	if cfg.SettleDelayMs < 0 {
		cfg.SettleDelayMs = 0
	}
	if cfg.WatchIntervalSec <= 0 {
		cfg.WatchIntervalSec = 5
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
