package adapters

import (
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
)

type zerologWrapper struct {
	logger zerolog.Logger
}

func NewZerologWrapper(loggingConfig *config.LoggingConfig) outbound.LoggerPort {
	var writer io.Writer = os.Stderr
	level := zerolog.InfoLevel
	if loggingConfig != nil {
		if parsed, err := zerolog.ParseLevel(loggingConfig.Level); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
		if loggingConfig.File != "" {
			writer = zerolog.MultiLevelWriter(os.Stderr, &lumberjack.Logger{
				Filename:   loggingConfig.File,
				MaxSize:    loggingConfig.MaxSizeMB,
				MaxBackups: loggingConfig.MaxBackups,
				MaxAge:     loggingConfig.MaxAgeDays,
				Compress:   true,
			})
		}
	}

	return NewZerologWrapperWithWriter(writer, level)
}

func NewZerologWrapperWithWriter(writer io.Writer, level zerolog.Level) outbound.LoggerPort {
	return &zerologWrapper{
		logger: zerolog.New(writer).Level(level).With().Timestamp().Logger(),
	}
}

func (z *zerologWrapper) Info(msg string) {
	z.logger.Info().Msg(msg)
}

func (z *zerologWrapper) Error(err error, msg string) {
	z.logger.Error().Err(err).Msg(msg)
}

func (z *zerologWrapper) Debug(msg string) {
	z.logger.Debug().Msg(msg)
}

func (z *zerologWrapper) Warn(msg string) {
	z.logger.Warn().Msg(msg)
}

func (z *zerologWrapper) InfoWithFields(msg string, fields map[string]interface{}) {
	z.logger.Info().Fields(fields).Msg(msg)
}

func (z *zerologWrapper) ErrorWithFields(err error, msg string, fields map[string]interface{}) {
	z.logger.Error().Err(err).Fields(fields).Msg(msg)
}

func (z *zerologWrapper) DebugWithFields(msg string, fields map[string]interface{}) {
	z.logger.Debug().Fields(fields).Msg(msg)
}

func (z *zerologWrapper) WarnWithFields(msg string, fields map[string]interface{}) {
	z.logger.Warn().Fields(fields).Msg(msg)
}
