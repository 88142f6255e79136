package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
	"time"
)

type ServerConfig struct {
	Port              int           `env:"PORT" envDefault:"3000"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:5174"`
	WorkerPoolSize    int           `env:"WORKER_POOL_SIZE" envDefault:"120"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5m"`
	IntroMessagesFile string        `env:"INTRO_MESSAGES_FILE" envDefault:"assets/intro.json"`
	JwksUrl           string        `env:"JWKS_URL"`
}

func GetServerConfig() (*ServerConfig, error) {
	cfg, err := env.ParseAs[ServerConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535")
	}
	if cfg.WorkerPoolSize < 1 {
		return nil, fmt.Errorf("WORKER_POOL_SIZE must be at least 1")
	}

	return &cfg, nil
}
