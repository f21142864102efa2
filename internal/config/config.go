package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the newsletter service.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Email       EmailConfig       `yaml:"email"`
	Application ApplicationConfig `yaml:"application"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// EmailConfig holds outbound email settings.
type EmailConfig struct {
	FromName    string    `yaml:"from_name"`
	FromAddress string    `yaml:"from_address"`
	SES         SESConfig `yaml:"ses"`
}

// SESConfig holds AWS SES credentials and region.
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// ApplicationConfig holds application-level settings.
type ApplicationConfig struct {
	// BaseURL is the public URL confirmation links are built against,
	// without a trailing slash.
	BaseURL string `yaml:"base_url"`
}

// Load reads and parses the configuration file, then applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Email.SES.Region == "" {
		cfg.Email.SES.Region = "us-east-1"
	}
	if cfg.Application.BaseURL == "" {
		cfg.Application.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.URL = dsn
	}
	if accessKey := os.Getenv("SES_ACCESS_KEY"); accessKey != "" {
		cfg.Email.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("SES_SECRET_KEY"); secretKey != "" {
		cfg.Email.SES.SecretKey = secretKey
	}
	if region := os.Getenv("SES_REGION"); region != "" {
		cfg.Email.SES.Region = region
	}
	if from := os.Getenv("EMAIL_FROM_ADDRESS"); from != "" {
		cfg.Email.FromAddress = from
	}
	if baseURL := os.Getenv("APP_BASE_URL"); baseURL != "" {
		cfg.Application.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	return cfg, nil
}
