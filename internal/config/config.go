// Package config loads server settings from an optional YAML file and the
// environment. A .env file in the working directory is loaded first, so
// variables defined there behave like real environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string         `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Water    WaterConfig    `yaml:"water"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type HTTPConfig struct {
	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WaterConfig struct {
	DailyGoalMl int `yaml:"daily_goal_ml"`
}

// Default returns the settings used when nothing overrides them. The rate
// limit matches 100 requests per 15 minutes per client.
func Default() Config {
	return Config{
		Port: "3001",
		Auth: AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		HTTP: HTTPConfig{
			CORSOrigins:    []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			RateLimitRPS:   100.0 / (15 * 60),
			RateLimitBurst: 100,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Water:   WaterConfig{DailyGoalMl: 2000},
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then applies
// environment overrides and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg with any of the known variables that lookup finds.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Port = v
	}
	if v, ok := lookup("DB_URL"); ok && v != "" {
		cfg.Database.URL = v
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v, ok := lookup("JWT_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.CORSOrigins = origins
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.HTTP.RateLimitRPS = f
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.HTTP.RateLimitBurst = n
	}
	if v, ok := lookup("WATER_DAILY_GOAL_ML"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WATER_DAILY_GOAL_ML: %w", err)
		}
		cfg.Water.DailyGoalMl = n
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate reports the first setting that would stop the server from working.
func (c Config) Validate() error {
	switch {
	case c.Database.URL == "":
		return errors.New("DB_URL is required")
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.Auth.TokenTTL <= 0:
		return errors.New("token TTL must be positive")
	case c.Water.DailyGoalMl <= 0:
		return errors.New("water daily goal must be positive")
	case c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0:
		return errors.New("rate limit must be positive")
	}
	return nil
}
