package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Upload  UploadConfig  `yaml:"upload"`
	Results ResultsConfig `yaml:"results"`
	Logging LoggingConfig `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	TenantID string        `yaml:"tenant_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	// Backend selects where the bearer token lives: "file" (default) or
	// "redis" for operators sharing one session across hosts.
	Backend   string      `yaml:"backend"`
	TokenPath string      `yaml:"token_path"`
	Redis     RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TokenKey string `yaml:"token_key"`
}

type UploadConfig struct {
	// Preflight inspects the claims spreadsheet locally before any upload.
	Preflight bool `yaml:"preflight"`
}

type ResultsConfig struct {
	PageSize  int    `yaml:"page_size"`
	ExportDir string `yaml:"export_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	config := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("CONFIG_PATH") == "" {
			// No config file is fine for the CLI; defaults cover it.
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:    "claimsctl",
			Version: "dev",
		},
		API: APIConfig{
			BaseURL:  "https://humaein-backend.onrender.com",
			TenantID: "HUMAEIN",
			Timeout:  60 * time.Second,
		},
		Session: SessionConfig{
			Backend:   "file",
			TokenPath: defaultTokenPath(),
			Redis: RedisConfig{
				Host:     "localhost",
				Port:     6379,
				TokenKey: "humaein:token",
			},
		},
		Upload: UploadConfig{
			Preflight: true,
		},
		Results: ResultsConfig{
			PageSize:  100,
			ExportDir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claimsctl/token"
	}
	return filepath.Join(home, ".claimsctl", "token")
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Session.Redis.Host, c.Session.Redis.Port)
}
