package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	JWT      JWTConfig      `yaml:"jwt"`
	Email    EmailConfig    `yaml:"email"`
}

// LoadConfig reads the YAML config named by CONFIG_PATH and then applies
// environment overrides for secrets, so credentials never have to live in
// the checked-in config file.
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/subscription.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrideString(&c.Database.Password, "DB_PASSWORD")
	overrideString(&c.JWT.Secret, "JWT_SECRET")
	overrideString(&c.Service.Xendit.APIKey, "XENDIT_API_KEY")
	overrideString(&c.Service.Xendit.CallbackToken, "XENDIT_CALLBACK_TOKEN")
	overrideString(&c.Service.Xendit.WebhookSecret, "XENDIT_WEBHOOK_SECRET")
	overrideString(&c.Email.Password, "SMTP_PASSWORD")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.Service.Xendit.CallbackToken == "" {
		return fmt.Errorf("xendit callback token is not configured")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is not configured")
	}
	return nil
}
