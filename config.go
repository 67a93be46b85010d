package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".scrapboard"

// ConfigOverrides allows overriding embedded defaults with file paths
type ConfigOverrides struct {
	SettingsPath        *string
	InferencePromptPath *string
	InferenceSchemaPath *string
}

// Embedded configuration files
//
//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/inference-system-prompt.md
var defaultInferencePrompt string

//go:embed config/inference-schema.json
var defaultInferenceSchema string

type StorageSettings struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Directory   string `mapstructure:"directory" yaml:"directory"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

type FetchSettings struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	ProxyURL  string        `mapstructure:"proxy_url" yaml:"proxy_url"`
}

type InferenceSettings struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	Storage StorageSettings `mapstructure:"storage" yaml:"storage"`
	Fetch   FetchSettings   `mapstructure:"fetch" yaml:"fetch"`
	Cache   struct {
		TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	} `mapstructure:"cache" yaml:"cache"`
	Board struct {
		ViewportWidth  float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
		ViewportHeight float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
	} `mapstructure:"board" yaml:"board"`
	Inference InferenceSettings `mapstructure:"inference" yaml:"inference"`
	Server    struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`
}

// Config holds configuration and overrides
type Config struct {
	Settings  *Settings
	Overrides *ConfigOverrides
}

// NewConfig loads .env, writes the default settings on first run and
// returns the merged configuration
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	if err := ensureConfigExists(); err != nil {
		return nil, fmt.Errorf("ensuring config files exist: %w", err)
	}

	settingsPath := getConfigPath("settings.yaml")
	if overrides != nil && overrides.SettingsPath != nil {
		settingsPath = *overrides.SettingsPath
	}

	settings, err := loadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &Config{
		Settings:  settings,
		Overrides: overrides,
	}, nil
}

// GetInferenceSystemPrompt returns the inference system prompt (from override file or embedded)
func (c *Config) GetInferenceSystemPrompt() string {
	if c.Overrides != nil && c.Overrides.InferencePromptPath != nil {
		if content, err := os.ReadFile(*c.Overrides.InferencePromptPath); err == nil {
			return string(content)
		}
	}
	return defaultInferencePrompt
}

// GetInferenceSchema returns the inference output schema (from override file or embedded)
func (c *Config) GetInferenceSchema() string {
	if c.Overrides != nil && c.Overrides.InferenceSchemaPath != nil {
		if content, err := os.ReadFile(*c.Overrides.InferenceSchemaPath); err == nil {
			return string(content)
		}
	}
	return defaultInferenceSchema
}

// loadSettings layers the embedded defaults, the settings file and
// SCRAPBOARD_* environment variables, in that order
func loadSettings(settingsPath string) (*Settings, error) {
	v := viper.New()

	var defaults map[string]any
	if err := yaml.Unmarshal([]byte(defaultSettings), &defaults); err != nil {
		return nil, fmt.Errorf("parsing embedded settings: %w", err)
	}
	for key, value := range flattenSettings("", defaults) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("SCRAPBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(settingsPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
			return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &settings, nil
}

func flattenSettings(prefix string, values map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range values {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenSettings(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// writeSettings prints settings as YAML
func writeSettings(w io.Writer, settings *Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return enc.Close()
}

// getConfigPath returns the path to a config file in .scrapboard directory
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

// ensureConfigExists creates the config directory and default files if they don't exist
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := getConfigPath("settings.yaml")
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("failed to write default settings: %w", err)
		}
	}
	return nil
}
