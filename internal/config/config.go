package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything scoop reads from its config file.
type Config struct {
	APIURL          string
	CollectionPath  string
	RequestTimeout  time.Duration
	RateLimit       float64
	RateBurst       int
	RefreshInterval time.Duration
	LogFile         string
	LogLevel        string
	MetricsAddr     string
	Identity        string
}

const (
	defaultConfigPath     = "~/.config/scoop/config.toml"
	defaultLogFile        = "~/.local/share/scoop/scoop.log"
	defaultAPIURL         = "http://127.0.0.1:7488"
	defaultCollectionPath = "/collection"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 5 * time.Second
	defaultRateBurst      = 1
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		CollectionPath: defaultCollectionPath,
		RequestTimeout: defaultRequestTimeout,
		RateBurst:      defaultRateBurst,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL          string  `toml:"api_url"`
		CollectionPath  string  `toml:"collection_path"`
		RequestTimeout  int     `toml:"request_timeout"`
		RateLimit       float64 `toml:"rate_limit"`
		RateBurst       int     `toml:"rate_burst"`
		RefreshInterval int     `toml:"refresh_interval"`
		LogFile         string  `toml:"log_file"`
		LogLevel        string  `toml:"log_level"`
		MetricsAddr     string  `toml:"metrics_addr"`
		Identity        string  `toml:"identity"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.CollectionPath); v != "" {
		cfg.CollectionPath = v
	}
	if raw.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second
	}
	if raw.RateLimit < 0 {
		return Config{}, fmt.Errorf("parse config: rate_limit must not be negative")
	}
	cfg.RateLimit = raw.RateLimit
	if raw.RateBurst > 0 {
		cfg.RateBurst = raw.RateBurst
	}
	if raw.RefreshInterval > 0 {
		cfg.RefreshInterval = time.Duration(raw.RefreshInterval) * time.Second
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.Identity = strings.TrimSpace(raw.Identity)

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
