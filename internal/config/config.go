package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for SpendWise.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Gateway  GatewayConfig  `json:"gateway"`
	Channels ChannelsConfig `json:"channels"`
	Session  SessionConfig  `json:"session"`
	Storage  StorageConfig  `json:"storage"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	DataDir               string `json:"dataDir"`
	LogLevel              string `json:"logLevel"`
	MaxConcurrentSessions int    `json:"maxConcurrentSessions"`
	HistoryLimit          int    `json:"historyLimit"`
}

// GatewayConfig configures the language-understanding collaborator
// (any OpenAI-compatible chat-completions endpoint).
type GatewayConfig struct {
	APIBase     string  `json:"apiBase,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	CLI      CLIConfig      `json:"cli"`
	NATS     NATSConfig     `json:"nats"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom,omitempty"`
	ParseMode string   `json:"parseMode,omitempty"`
}

type CLIConfig struct {
	Enabled bool `json:"enabled"`
}

type NATSConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// SessionConfig selects the durable session-state backend.
type SessionConfig struct {
	Backend  string `json:"backend"` // "memory" | "redis"
	RedisURL string `json:"redisUrl,omitempty"`
	TTLHours int    `json:"ttlHours,omitempty"`
}

type StorageConfig struct {
	DBPath         string `json:"dbPath"`
	CategoriesFile string `json:"categoriesFile,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen,omitempty"`
}

// DefaultConfigDir returns ~/.spendwise.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spendwise"
	}
	return filepath.Join(home, ".spendwise")
}

// DefaultConfigPath returns ~/.spendwise/config.json.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	dir := DefaultConfigDir()
	return &Config{
		General: GeneralConfig{
			DataDir:               dir,
			LogLevel:              "info",
			MaxConcurrentSessions: 3,
			HistoryLimit:          50,
		},
		Gateway: GatewayConfig{
			APIBase:     "https://api.openai.com/v1",
			APIKey:      "${OPENAI_API_KEY}",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
		Channels: ChannelsConfig{
			CLI: CLIConfig{Enabled: true},
			NATS: NATSConfig{
				URL:     "nats://127.0.0.1:4222",
				Subject: "spendwise.turn",
			},
		},
		Session: SessionConfig{
			Backend:  "memory",
			TTLHours: 24,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dir, "spendwise.db"),
		},
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9190",
		},
	}
}

// Load reads, env-expands, parses, and validates a config file. Missing
// fields keep their defaults.
func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.DataDir = expandPath(cfg.General.DataDir)
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Storage.CategoriesFile = expandPath(cfg.Storage.CategoriesFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

// Save writes the config as indented JSON.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks cross-field constraints.
func Validate(cfg *Config) error {
	switch cfg.Session.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	if cfg.Session.Backend == "redis" && cfg.Session.RedisURL == "" {
		return fmt.Errorf("session backend redis requires redisUrl")
	}
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram channel enabled but token is empty")
	}
	if cfg.Channels.NATS.Enabled && cfg.Channels.NATS.Subject == "" {
		return fmt.Errorf("nats channel enabled but subject is empty")
	}
	if cfg.Storage.DBPath == "" {
		return fmt.Errorf("storage dbPath is required")
	}
	return nil
}

// expandPath resolves a leading ~/ against the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
