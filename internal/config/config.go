package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var ErrMissingAPIKey = errors.New("llm api key is required (set LLM_API_KEY)")

type Config struct {
	App      AppConfig      `toml:"app"`
	Log      LogConfig      `toml:"log"`
	LLM      LLMConfig      `toml:"llm"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	Storage  StorageConfig  `toml:"storage"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LLMConfig selects and parameterizes the model gateway.
// Provider is "gemini" (default) or "openai" for any OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider        string  `toml:"provider"`
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	ReasoningEffort string  `toml:"reasoning_effort"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Driver     string      `toml:"driver"`
	SQLitePath string      `toml:"sqlite_path"`
	MySQL      MySQLConfig `toml:"mysql"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

// RedisConfig backs the conversation session store. An empty Addr keeps
// sessions in process memory.
type RedisConfig struct {
	Addr              string `toml:"addr"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	SessionTTLSeconds int    `toml:"session_ttl_seconds"`
}

// RabbitMQConfig carries chat exchange records to the persistence worker.
// An empty URL writes exchange records synchronously instead.
type RabbitMQConfig struct {
	URL              string `toml:"url"`
	ExchangeLogQueue string `toml:"exchange_log_queue"`
}

type StorageConfig struct {
	Root        string `toml:"root"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

func Load() (*Config, error) {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	cfg := Default()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		return errors.New("storage root is required")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	m := c.Database.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		m.User,
		m.Password,
		m.Host,
		m.Port,
		m.DB,
		m.Params,
	)
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadMB) << 20
}

// Default returns the built-in settings applied before the file and env.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "cerebro",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8000,
			GinMode: "debug",
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-3-flash-preview",
			Temperature:    0.7,
			TimeoutSeconds: 60,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/cerebro.db",
			MySQL: MySQLConfig{
				Host:   "127.0.0.1",
				Port:   3306,
				User:   "root",
				DB:     "cerebro",
				Params: "parseTime=true&loc=Local&charset=utf8mb4",
			},
		},
		Redis: RedisConfig{
			SessionTTLSeconds: 24 * 60 * 60,
		},
		RabbitMQ: RabbitMQConfig{
			ExchangeLogQueue: "cerebro.exchange.persist",
		},
		Storage: StorageConfig{
			Root:        "media",
			MaxUploadMB: 20,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", cfg.LLM.APIKey))
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvAsFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.ReasoningEffort = getEnv("LLM_REASONING_EFFORT", cfg.LLM.ReasoningEffort)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.Database.Driver))
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.MySQL.Host = getEnv("MYSQL_HOST", cfg.Database.MySQL.Host)
	cfg.Database.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.Database.MySQL.Port)
	cfg.Database.MySQL.User = getEnv("MYSQL_USER", cfg.Database.MySQL.User)
	cfg.Database.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Database.MySQL.Password)
	cfg.Database.MySQL.DB = getEnv("MYSQL_DB", cfg.Database.MySQL.DB)
	cfg.Database.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.Database.MySQL.Params)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.SessionTTLSeconds = getEnvAsInt("REDIS_SESSION_TTL_SECONDS", cfg.Redis.SessionTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.ExchangeLogQueue = getEnv("RABBITMQ_EXCHANGE_LOG_QUEUE", cfg.RabbitMQ.ExchangeLogQueue)

	cfg.Storage.Root = getEnv("STORAGE_ROOT", cfg.Storage.Root)
	cfg.Storage.MaxUploadMB = getEnvAsInt("STORAGE_MAX_UPLOAD_MB", cfg.Storage.MaxUploadMB)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
