// Package cfg loads service settings from a YAML file or the environment.
package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"fraud-scorer/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr            string
	ModelPath             string
	DataPath              string
	ExplanationServiceURL string
	ExplanationTimeout    time.Duration
	LogLevel              string
	LogFormat             string
	RateLimitRPS          float64
	RateLimitBurst        int
	ShutdownTimeout       time.Duration
}

type ConfigFile struct {
	Server struct {
		ListenAddr      string  `yaml:"listenAddr"`
		ShutdownTimeout string  `yaml:"shutdownTimeout"`
		RateLimitRPS    float64 `yaml:"rateLimitRPS"`
		RateLimitBurst  int     `yaml:"rateLimitBurst"`
	} `yaml:"server"`

	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Explanation struct {
		ServiceURL string `yaml:"serviceURL"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"explanation"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	System struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"system"`
}

// Load reads a .env file if present, then the YAML file named by CONFIG_FILE
// or, without one, the environment. Environment variables override YAML.
func Load() (Settings, error) {
	if err := loadDotEnv(); err != nil {
		return Settings{}, err
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env file: %w", err)
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	explanationTimeout, err := parseDurationOrDefault(config.Explanation.Timeout, common.DefaultExplanationTimeout)
	if err != nil {
		return Settings{}, fmt.Errorf("explanation.timeout: %w", err)
	}
	shutdownTimeout, err := parseDurationOrDefault(config.Server.ShutdownTimeout, common.DefaultShutdownTimeout)
	if err != nil {
		return Settings{}, fmt.Errorf("server.shutdownTimeout: %w", err)
	}

	settings := Settings{
		ListenAddr:            getEnvOrDefault(common.EnvListenAddr, orDefault(config.Server.ListenAddr, common.DefaultListenAddr)),
		ModelPath:             getEnvOrDefault(common.EnvModelPath, config.Model.Path),
		DataPath:              getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		ExplanationServiceURL: getEnvOrDefault(common.EnvExplanationServiceURL, orDefault(config.Explanation.ServiceURL, common.DefaultExplanationServiceURL)),
		ExplanationTimeout:    getDurationOrDefault(common.EnvExplanationTimeout, explanationTimeout),
		LogLevel:              getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:             getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		RateLimitRPS:          getFloatFromEnvOrConfig(common.EnvRateLimitRPS, config.Server.RateLimitRPS),
		RateLimitBurst:        getIntFromEnvOrConfig(common.EnvRateLimitBurst, config.Server.RateLimitBurst, common.DefaultRateLimitBurst),
		ShutdownTimeout:       getDurationOrDefault(common.EnvShutdownTimeout, shutdownTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenAddr:            getEnvOrDefault(common.EnvListenAddr, common.DefaultListenAddr),
		ModelPath:             os.Getenv(common.EnvModelPath), // optional override
		DataPath:              os.Getenv(common.EnvDataPath),  // optional
		ExplanationServiceURL: getEnvOrDefault(common.EnvExplanationServiceURL, common.DefaultExplanationServiceURL),
		ExplanationTimeout:    getDurationOrDefault(common.EnvExplanationTimeout, common.DefaultExplanationTimeout),
		LogLevel:              getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:             getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		RateLimitRPS:          getFloatOrDefault(common.EnvRateLimitRPS, 0),
		RateLimitBurst:        getIntOrDefault(common.EnvRateLimitBurst, common.DefaultRateLimitBurst),
		ShutdownTimeout:       getDurationOrDefault(common.EnvShutdownTimeout, common.DefaultShutdownTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	// Validate explanation service
	u, err := url.Parse(settings.ExplanationServiceURL)
	if err != nil {
		return fmt.Errorf("invalid explanation service URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("explanation service URL must use http or https, got %q", settings.ExplanationServiceURL)
	}
	if u.Host == "" {
		return fmt.Errorf("explanation service URL has no host: %q", settings.ExplanationServiceURL)
	}
	if settings.ExplanationTimeout < common.MinExplanationTimeout || settings.ExplanationTimeout > common.MaxExplanationTimeout {
		return fmt.Errorf("explanation timeout must be between %v and %v, got %v",
			common.MinExplanationTimeout, common.MaxExplanationTimeout, settings.ExplanationTimeout)
	}

	// Validate logging
	if _, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}
	if settings.LogFormat != "json" && settings.LogFormat != "console" {
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	// Validate rate limiting
	if settings.RateLimitRPS < 0 || settings.RateLimitRPS > common.MaxRateLimitRPS {
		return fmt.Errorf("rate limit must be between 0 and %d requests per second, got %f", common.MaxRateLimitRPS, settings.RateLimitRPS)
	}
	if settings.RateLimitBurst <= 0 || settings.RateLimitBurst > 10000 {
		return fmt.Errorf("rate limit burst must be between 1 and 10000, got %d", settings.RateLimitBurst)
	}

	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 5m, got %v", settings.ShutdownTimeout)
	}

	return nil
}
