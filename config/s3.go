package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
)

type S3Config struct {
	BucketName string `env:"ARTIFACT_BUCKET_NAME"`
	Region     string `env:"REGION" envDefault:"us-east-1"`
	KeyPrefix  string `env:"ARTIFACT_KEY_PREFIX" envDefault:"diagnostics"`
}

func GetS3Config() (*S3Config, error) {
	cfg, err := env.ParseAs[S3Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse s3 config: %w", err)
	}

	return &cfg, nil
}

func (c *S3Config) Enabled() bool {
	return c.BucketName != ""
}
