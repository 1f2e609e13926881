package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/mosinatet/commspec/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Timezone  string          `yaml:"timezone"`
	Platforms PlatformsConfig `yaml:"platforms"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type SchedulerConfig struct {
	Workers         int    `yaml:"workers"`
	MonitorInterval string `yaml:"monitor_interval"`
	MonitorWindow   string `yaml:"monitor_window"`
	Disabled        bool   `yaml:"disabled"`
}

type PlatformsConfig struct {
	DevTo   DevToConfig   `yaml:"devto"`
	Twitter TwitterConfig `yaml:"twitter"`
}

type DevToConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"api_key"`
	Username string `yaml:"username"`
}

type TwitterConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BearerToken string `yaml:"bearer_token"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Kolkata"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = cfg.Timezone
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 5
	}
	if cfg.Scheduler.MonitorInterval == "" {
		cfg.Scheduler.MonitorInterval = "15m"
	}
	if cfg.Scheduler.MonitorWindow == "" {
		cfg.Scheduler.MonitorWindow = "24h"
	}

	return cfg, nil
}
