package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the bot needs from the file and the environment.
type Config struct {
	Account       string
	APIToken      string
	APIURL        string
	TelegramToken string
	AllowedUsers  []int64
	DataDir       string
	RedisURL      string
	MetricsAddr   string
	LogLevel      string
}

const (
	defaultConfigPath = "~/.config/codecks-bot/config.toml"
	defaultDataDir    = "data"
	defaultAPIURL     = "https://api.codecks.io/"
)

// Environment variable names.
const (
	EnvAccount       = "CODECKS_SUBDOMAIN"
	EnvAPIToken      = "CODECKS_API_TOKEN"
	EnvAPIURL        = "CODECKS_API_URL"
	EnvDataDir       = "CODECKS_DATA_DIR"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvAllowedUsers  = "ALLOWED_USERS"
	EnvRedisURL      = "REDIS_URL"
	EnvMetricsAddr   = "METRICS_ADDR"
	EnvLogLevel      = "LOG_LEVEL"
)

// LoadDotenv loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment without overriding variables that are already set. A
// missing file is not an error.
func LoadDotenv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the optional TOML file at path, then applies environment
// overrides. A missing file falls back to defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{APIURL: defaultAPIURL, DataDir: defaultDataDir}

	if err := cfg.loadFile(resolved); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = defaultAPIURL
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir
	}
	cfg.DataDir = mustExpand(cfg.DataDir)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Account       string  `toml:"codecks_subdomain"`
		APIToken      string  `toml:"codecks_api_token"`
		APIURL        string  `toml:"codecks_api_url"`
		TelegramToken string  `toml:"telegram_bot_token"`
		AllowedUsers  []int64 `toml:"allowed_users"`
		DataDir       string  `toml:"data_dir"`
		RedisURL      string  `toml:"redis_url"`
		MetricsAddr   string  `toml:"metrics_addr"`
		LogLevel      string  `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	c.Account = strings.TrimSpace(raw.Account)
	c.APIToken = strings.TrimSpace(raw.APIToken)
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	c.TelegramToken = strings.TrimSpace(raw.TelegramToken)
	c.AllowedUsers = raw.AllowedUsers
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		c.DataDir = v
	}
	c.RedisURL = strings.TrimSpace(raw.RedisURL)
	c.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	c.LogLevel = strings.TrimSpace(raw.LogLevel)
	return nil
}

func (c *Config) applyEnv() error {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Account, EnvAccount)
	override(&c.APIToken, EnvAPIToken)
	override(&c.APIURL, EnvAPIURL)
	override(&c.DataDir, EnvDataDir)
	override(&c.TelegramToken, EnvTelegramToken)
	override(&c.RedisURL, EnvRedisURL)
	override(&c.MetricsAddr, EnvMetricsAddr)
	override(&c.LogLevel, EnvLogLevel)

	if v := strings.TrimSpace(os.Getenv(EnvAllowedUsers)); v != "" {
		users, err := ParseUserList(v)
		if err != nil {
			return err
		}
		c.AllowedUsers = users
	}
	return nil
}

// ParseUserList parses a comma-separated list of numeric chat user ids.
func ParseUserList(value string) ([]int64, error) {
	var users []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s entry %q: %w", EnvAllowedUsers, part, err)
		}
		users = append(users, id)
	}
	return users, nil
}

// Validate reports missing required settings. The chat token is only required
// when the Telegram transport runs.
func (c Config) Validate(requireTelegram bool) error {
	var missing []string
	if strings.TrimSpace(c.Account) == "" {
		missing = append(missing, EnvAccount)
	}
	if strings.TrimSpace(c.APIToken) == "" {
		missing = append(missing, EnvAPIToken)
	}
	if requireTelegram && strings.TrimSpace(c.TelegramToken) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
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
