package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// queries slower than this are logged, in milliseconds
	SlowQueryMS int `yaml:"slow_query_ms"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQConfig: empty URL disables event publishing.
type MQConfig struct {
	URL string `yaml:"url"`
}

// JWTConfig: empty Secret disables bearer auth.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Owner  string `yaml:"owner"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Key     string `yaml:"key"`
	Dir     string `yaml:"dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type CalendarConfig struct {
	Timezone string `yaml:"timezone"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	DB       DBConfig       `yaml:"db"`
	Redis    RedisConfig    `yaml:"redis"`
	MQ       MQConfig       `yaml:"mq"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Calendar CalendarConfig `yaml:"calendar"`
}

func Default() Config {
	return Config{
		Server:  ServerConfig{Port: ":8080"},
		Storage: StorageConfig{Backend: BackendFile, Key: "habitkeeper:habits", Dir: "data"},
		DB:      DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "habitkeeper", SlowQueryMS: 100},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		JWT:     JWTConfig{Owner: "owner"},
		Log:     LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 7, MaxAgeDays: 14},
	}
}

// Load 加载配置，支持多环境
// base.yaml is required; <env>.yaml, when present, is decoded over it so
// it only needs the keys it changes. Environment variables win last.
func Load(configDir, env string) (*Config, error) {
	if configDir == "" {
		configDir = "config"
	}

	cfg := Default()
	if err := decodeFile(filepath.Join(configDir, "base.yaml"), &cfg); err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}

	if env != "" && env != "base" {
		envFile := filepath.Join(configDir, env+".yaml")
		err := decodeFile(envFile, &cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
		}
	}

	OverrideServerFromEnv(&cfg.Server)
	OverrideStorageFromEnv(&cfg.Storage)
	OverrideDBFromEnv(&cfg.DB)
	OverrideRedisFromEnv(&cfg.Redis)
	OverrideMQFromEnv(&cfg.MQ)
	OverrideJWTFromEnv(&cfg.JWT)
	OverrideLogFromEnv(&cfg.Log)
	OverrideCalendarFromEnv(&cfg.Calendar)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}
