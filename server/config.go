package server

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/gatherhq/gather-server/internal/xtime"
	"github.com/gatherhq/gather-server/server/auth"
	"github.com/gatherhq/gather-server/server/database"
)

// LoadConfig reads the TOML config file and applies environment variable
// overrides on top.
func LoadConfig(cfgPath string) (Config, error) {
	file, err := os.Open(cfgPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cfg := defaultConfig()
	if _, err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err = env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config env overrides: %w", err)
	}

	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:     slog.LevelInfo,
			Format:    LogFormatText,
			AddSource: false,
		},
		Server: ServerConfig{
			Addr:            ":8085",
			ShutdownTimeout: xtime.Duration(10 * time.Second),
		},
		Database: database.Config{
			Host:     "localhost",
			Port:     5432,
			Username: "postgres",
			Password: "password",
			Database: "gather",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Every:   xtime.Duration(100 * time.Millisecond),
			Burst:   25,
		},
	}
}

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Database  database.Config `toml:"database"`
	Auth      auth.Config     `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

func (c Config) String() string {
	return fmt.Sprintf("Log: %s\nServer: %s\nDatabase: %s\nAuth: %s\nRateLimit: %s",
		c.Log,
		c.Server,
		c.Database,
		c.Auth,
		c.RateLimit,
	)
}

type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

type LogConfig struct {
	Level     slog.Level `toml:"level" env:"LOG_LEVEL"`
	Format    LogFormat  `toml:"format" env:"LOG_FORMAT"`
	AddSource bool       `toml:"add_source" env:"LOG_ADD_SOURCE"`
}

func (c LogConfig) String() string {
	return fmt.Sprintf("\n Level: %s\n Format: %s\n AddSource: %t",
		c.Level,
		c.Format,
		c.AddSource,
	)
}

type ServerConfig struct {
	Addr            string         `toml:"addr" env:"SERVER_ADDR"`
	ShutdownTimeout xtime.Duration `toml:"shutdown_timeout"`
}

func (c ServerConfig) String() string {
	return fmt.Sprintf("\n Address: %s\n ShutdownTimeout: %s",
		c.Addr,
		c.ShutdownTimeout,
	)
}

type RateLimitConfig struct {
	Enabled bool           `toml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Every   xtime.Duration `toml:"every"`
	Burst   int            `toml:"burst" env:"RATE_LIMIT_BURST"`
}

func (c RateLimitConfig) String() string {
	return fmt.Sprintf("\n Enabled: %t\n Every: %s\n Burst: %d",
		c.Enabled,
		c.Every,
		c.Burst,
	)
}
