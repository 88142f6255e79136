package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
)

type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

func GetLoggingConfig() (*LoggingConfig, error) {
	cfg, err := env.ParseAs[LoggingConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse logging config: %w", err)
	}

	return &cfg, nil
}
