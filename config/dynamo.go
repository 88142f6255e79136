package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
)

type DynamoConfig struct {
	TableName  string `env:"DYNAMO_TABLE_NAME"`
	TtlMinutes int    `env:"DYNAMO_TTL_MINUTES" envDefault:"1440"`
}

func GetDynamoConfig() (*DynamoConfig, error) {
	cfg, err := env.ParseAs[DynamoConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dynamo config: %w", err)
	}
	if cfg.TtlMinutes < 1 {
		return nil, fmt.Errorf("DYNAMO_TTL_MINUTES must be at least 1")
	}

	return &cfg, nil
}

func (c *DynamoConfig) Enabled() bool {
	return c.TableName != ""
}
