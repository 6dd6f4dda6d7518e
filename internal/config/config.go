package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Medium drivers
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Medium    MediumConfig    `yaml:"medium"`
	Profile   ProfileConfig   `yaml:"profile"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type MediumConfig struct {
	Driver     string       `yaml:"driver"`
	QuotaBytes int64        `yaml:"quota_bytes"`
	SQLite     SQLiteConfig `yaml:"sqlite"`
	Redis      RedisConfig  `yaml:"redis"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	DB     int    `yaml:"db"`
	Prefix string `yaml:"prefix"`
}

// ProfileConfig is the default profile shown before a username is stored.
type ProfileConfig struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Email string `yaml:"email"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Medium: MediumConfig{
			Driver:     DriverSQLite,
			QuotaBytes: 5 * 1024 * 1024,
			SQLite:     SQLiteConfig{Path: "internpm.db"},
			Redis:      RedisConfig{Addr: "127.0.0.1:6379", Prefix: "internpm:"},
		},
		Profile: ProfileConfig{
			Name: "Intern",
			Role: "Frontend Intern",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("INTERNPM_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("INTERNPM_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("INTERNPM_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid INTERNPM_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("INTERNPM_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if driver := os.Getenv("INTERNPM_MEDIUM"); driver != "" {
		cfg.Medium.Driver = driver
	}
	if quotaStr := os.Getenv("INTERNPM_QUOTA_BYTES"); quotaStr != "" {
		quota, err := strconv.ParseInt(quotaStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid INTERNPM_QUOTA_BYTES: %w", err)
		}
		cfg.Medium.QuotaBytes = quota
	}
	if dbPath := os.Getenv("INTERNPM_DB_PATH"); dbPath != "" {
		cfg.Medium.SQLite.Path = dbPath
	}
	if addr := os.Getenv("INTERNPM_REDIS_ADDR"); addr != "" {
		cfg.Medium.Redis.Addr = addr
	}
	if name := os.Getenv("INTERNPM_PROFILE_NAME"); name != "" {
		cfg.Profile.Name = name
	}
	if email := os.Getenv("INTERNPM_PROFILE_EMAIL"); email != "" {
		cfg.Profile.Email = email
	}
	if level := os.Getenv("INTERNPM_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("INTERNPM_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}
	return nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Medium.Driver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("invalid medium driver %q", c.Medium.Driver)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
