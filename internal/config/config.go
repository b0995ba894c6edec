package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

type Config struct {
	Addr            string        `yaml:"addr"`
	Storage         string        `yaml:"storage"`
	DataPath        string        `yaml:"data_path"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		Storage:         StorageFile,
		DataPath:        "./db.json",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file at
// configPath (if any), then the .env file (missing is fine), then TASKS_*
// environment variables.
func Load(configPath, envFile string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("Error trying to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Error trying to parse config file %s: %w", configPath, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("Error trying to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString("TASKS_ADDR", &c.Addr)
	setString("TASKS_STORAGE", &c.Storage)
	setString("TASKS_DATA_PATH", &c.DataPath)
	setString("TASKS_LOG_LEVEL", &c.LogLevel)
	setString("TASKS_LOG_FORMAT", &c.LogFormat)

	if v := strings.TrimSpace(os.Getenv("TASKS_SHUTDOWN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKS_SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage))
	}
	if strings.TrimSpace(c.DataPath) == "" {
		errs = append(errs, errors.New("data_path is required"))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or text, got %q", c.LogFormat))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	return errors.Join(errs...)
}
