package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации редактора мира.

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Mongo   MongoConfig   `yaml:"mongo"`
	NATS    NATSConfig    `yaml:"nats"`
	Editor  EditorConfig  `yaml:"editor"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type EditorConfig struct {
	// TTL записей сессий и staged-правок; защита от утечек, не бизнес-логика
	SessionTTLHours int `yaml:"session_ttl_hours"`
	StagingTTLHours int `yaml:"staging_ttl_hours"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"`
	// Сид генератора мира для dev-режима без реального baked-хранилища
	DevWorldSeed int64 `yaml:"dev_world_seed"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "EDITOR_REST_PORT", 8090)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "EDITOR_METRICS_PORT", 2113)
}

// SessionTTL возвращает TTL сессии (по умолчанию 24 часа)
func (e *EditorConfig) SessionTTL() time.Duration {
	if e.SessionTTLHours > 0 {
		return time.Duration(e.SessionTTLHours) * time.Hour
	}
	return 24 * time.Hour
}

// StagingTTL возвращает TTL staged-правок (по умолчанию 24 часа)
func (e *EditorConfig) StagingTTL() time.Duration {
	if e.StagingTTLHours > 0 {
		return time.Duration(e.StagingTTLHours) * time.Hour
	}
	return 24 * time.Hour
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV EDITOR_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("EDITOR_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default возвращает конфигурацию по умолчанию для локальной разработки
func Default() *Config {
	return &Config{
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "voxel_editor"},
		NATS:    NATSConfig{URL: "nats://localhost:4222", Subject: "editor.client"},
		Storage: StorageConfig{DataPath: "data", DevWorldSeed: 12345},
	}
}
