package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New()

type AppConfig struct {
	Weather WeatherConfig `yaml:"weather"`
	Store   StoreConfig   `yaml:"store"`

	// StatusInterval controls how often the machine status is logged (0 = never).
	StatusInterval time.Duration `yaml:"status_interval" validate:"gte=0"`

	Port      string `yaml:"port" validate:"required,numeric"`
	LogLevel  string `yaml:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
}

// WeatherConfig is the weather lookup and the hot/iced decision boundary.
type WeatherConfig struct {
	// APIURLTemplate may contain a {city} placeholder.
	APIURLTemplate string        `yaml:"api_url" validate:"required"`
	Threshold      float64       `yaml:"threshold"`
	City           string        `yaml:"city" validate:"required"`
	TempPath       string        `yaml:"temp_path" validate:"required"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" validate:"gt=0"`
	CircuitBreaker bool          `yaml:"circuit_breaker"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=memory sqlite redis dynamodb postgres"`
	MachineID   string `yaml:"machine_id" validate:"required"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Backend postgres"`

	Redis    RedisConfig    `yaml:"redis"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	DB   int    `yaml:"db" validate:"gte=0"`
	TLS  bool   `yaml:"tls"`
}

type DynamoDBConfig struct {
	Table string `yaml:"table"`
	// Endpoint points the client at a local emulator when set.
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

func defaults() *AppConfig {
	return &AppConfig{
		Weather: WeatherConfig{
			Threshold:   30,
			City:        "Auckland",
			TempPath:    "main.temp",
			HTTPTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:    "memory",
			MachineID:  "default",
			SQLitePath: "coffee.db",
			Redis: RedisConfig{
				Host: "localhost",
				Port: "6379",
			},
			DynamoDB: DynamoDBConfig{
				Table:  "coffee_machine",
				Region: "us-east-1",
			},
		},
		StatusInterval: 15 * time.Minute,
		Port:           "8080",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads configuration from .env, an optional YAML file named by
// COFFEE_CONFIG_FILE, and the environment, in increasing precedence.
// The result is validated and must be treated as read-only.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Infof("No .env file found or error loading it: %v", err)
	}
	cfg := defaults()

	if path := os.Getenv("COFFEE_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	var err error

	w := &cfg.Weather
	w.APIURLTemplate = getenvDefault("WEATHER_API_URL", w.APIURLTemplate)
	if w.Threshold, err = getenvFloat("WEATHER_THRESHOLD", w.Threshold); err != nil {
		return err
	}
	w.City = getenvDefault("WEATHER_CITY", w.City)
	w.TempPath = getenvDefault("WEATHER_TEMP_PATH", w.TempPath)
	if w.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", w.HTTPTimeout); err != nil {
		return err
	}
	if w.CircuitBreaker, err = getenvBool("WEATHER_CIRCUIT_BREAKER", w.CircuitBreaker); err != nil {
		return err
	}

	s := &cfg.Store
	s.Backend = getenvDefault("STORE_BACKEND", s.Backend)
	s.MachineID = getenvDefault("MACHINE_ID", s.MachineID)
	s.SQLitePath = getenvDefault("SQLITE_PATH", s.SQLitePath)
	s.DatabaseURL = getenvDefault("DATABASE_URL", s.DatabaseURL)

	s.Redis.Host = getenvDefault("REDIS_HOST", s.Redis.Host)
	s.Redis.Port = getenvDefault("REDIS_PORT", s.Redis.Port)
	s.Redis.User = getenvDefault("REDIS_USER", s.Redis.User)
	s.Redis.Pass = getenvDefault("REDIS_PASS", s.Redis.Pass)
	if s.Redis.DB, err = getenvInt("REDIS_DB_NUM", s.Redis.DB); err != nil {
		return err
	}
	if s.Redis.TLS, err = getenvBool("REDIS_SSL", s.Redis.TLS); err != nil {
		return err
	}

	s.DynamoDB.Table = getenvDefault("DDB_TABLE", s.DynamoDB.Table)
	s.DynamoDB.Endpoint = getenvDefault("DDB_ENDPOINT", s.DynamoDB.Endpoint)
	s.DynamoDB.Region = getenvDefault("AWS_REGION", s.DynamoDB.Region)

	if cfg.StatusInterval, err = getenvDuration("STATUS_INTERVAL", cfg.StatusInterval); err != nil {
		return err
	}
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// ConfigureLogging applies the log level and format to the global logrus logger.
func (c *AppConfig) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
