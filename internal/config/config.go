package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration. Values
// come from an optional YAML file overridden by environment variables.
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
	} `yaml:"server"`

	API struct {
		BaseURL string `yaml:"base_url" env:"API_BASE_URL"`
		Token   string `yaml:"token" env:"API_TOKEN"`
	} `yaml:"api"`

	Channel struct {
		URL string `yaml:"url" env:"CHANNEL_URL"`
	} `yaml:"channel"`

	// Assets configures the external asset host. The engine passes
	// these through opaquely.
	Assets struct {
		UploadURL string `yaml:"upload_url" env:"ASSET_UPLOAD_URL"`
		APIKey    string `yaml:"api_key" env:"ASSET_API_KEY"`
	} `yaml:"assets"`

	User struct {
		ID          string `yaml:"id" env:"USER_ID"`
		DisplayName string `yaml:"display_name" env:"USER_DISPLAY_NAME"`
		Role        string `yaml:"role" env:"USER_ROLE"`
	} `yaml:"user"`

	Presence struct {
		TypingIdle string `yaml:"typing_idle" env:"PRESENCE_TYPING_IDLE"`
	} `yaml:"presence"`

	Toast struct {
		TTL string `yaml:"ttl" env:"TOAST_TTL"`
	} `yaml:"toast"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.API.BaseURL = "http://localhost:8080"
	config.Channel.URL = "ws://localhost:8080/ws"
	config.User.Role = "student"
	config.Presence.TypingIdle = "2s"
	config.Toast.TTL = "5s"
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if config.Channel.URL == "" {
		return fmt.Errorf("channel URL is required")
	}
	if _, err := time.ParseDuration(config.Presence.TypingIdle); err != nil {
		return fmt.Errorf("invalid typing idle format: %w", err)
	}
	if _, err := time.ParseDuration(config.Toast.TTL); err != nil {
		return fmt.Errorf("invalid toast TTL format: %w", err)
	}
	return nil
}

// TypingIdle returns the parsed typing idle duration
func (c *Config) TypingIdle() time.Duration {
	d, _ := time.ParseDuration(c.Presence.TypingIdle)
	return d
}

// ToastTTL returns the parsed toast lifetime
func (c *Config) ToastTTL() time.Duration {
	d, _ := time.ParseDuration(c.Toast.TTL)
	return d
}
