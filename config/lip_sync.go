package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
	"path/filepath"
	"runtime"
	"time"
)

// MaxTrackDuration bounds LIPSYNC_MAX_DURATION, in seconds.
const MaxTrackDuration = 3600

type LipSyncConfig struct {
	ArtifactsDir    string        `env:"LIPSYNC_ARTIFACTS_DIR" envDefault:"audios"`
	BinDir          string        `env:"LIPSYNC_BIN_DIR" envDefault:"bin"`
	FFmpegPath      string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath     string        `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	CommandTimeout  time.Duration `env:"LIPSYNC_COMMAND_TIMEOUT" envDefault:"30s"`
	DefaultDuration float64       `env:"LIPSYNC_DEFAULT_DURATION" envDefault:"2.0"`
	MaxDuration     float64       `env:"LIPSYNC_MAX_DURATION" envDefault:"600"`
	VerifyModels    bool          `env:"LIPSYNC_VERIFY_MODELS" envDefault:"true"`
	ModelBaseUrl    string        `env:"LIPSYNC_MODEL_BASE_URL" envDefault:"https://raw.githubusercontent.com/cmusphinx/sphinx4/master/sphinx4-data/src/main/resources/edu/cmu/sphinx/models/en-us/en-us"`
	DownloadTimeout time.Duration `env:"LIPSYNC_DOWNLOAD_TIMEOUT" envDefault:"2m"`
	FallbackSeed    uint64        `env:"LIPSYNC_FALLBACK_SEED" envDefault:"0"`
	MaxAttempts     int           `env:"TTS_MAX_ATTEMPTS" envDefault:"10"`
	RetryDelay      time.Duration `env:"TTS_RETRY_DELAY" envDefault:"0s"`
	RetryMultiplier float64       `env:"TTS_RETRY_MULTIPLIER" envDefault:"1"`
	RetryMaxDelay   time.Duration `env:"TTS_RETRY_MAX_DELAY" envDefault:"0s"`
}

func GetLipSyncConfig() (*LipSyncConfig, error) {
	cfg, err := env.ParseAs[LipSyncConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse lip sync config: %w", err)
	}
	if cfg.CommandTimeout <= 0 {
		return nil, fmt.Errorf("LIPSYNC_COMMAND_TIMEOUT must be positive")
	}
	if cfg.DefaultDuration <= 0 {
		return nil, fmt.Errorf("LIPSYNC_DEFAULT_DURATION must be positive")
	}
	if cfg.MaxDuration < cfg.DefaultDuration || cfg.MaxDuration > MaxTrackDuration {
		return nil, fmt.Errorf("LIPSYNC_MAX_DURATION must be between LIPSYNC_DEFAULT_DURATION and %v", MaxTrackDuration)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("TTS_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.RetryDelay < 0 || cfg.RetryMaxDelay < 0 {
		return nil, fmt.Errorf("TTS retry delays must be non-negative")
	}
	if cfg.RetryMultiplier < 1 {
		return nil, fmt.Errorf("TTS_RETRY_MULTIPLIER must be at least 1")
	}

	return &cfg, nil
}

func (c *LipSyncConfig) RhubarbPath() string {
	name := "rhubarb"
	if runtime.GOOS == "windows" {
		name = "rhubarb.exe"
	}
	return filepath.Join(c.BinDir, name)
}

func (c *LipSyncConfig) AcousticModelDir() string {
	return filepath.Join(c.BinDir, "res", "sphinx", "acoustic-model")
}
