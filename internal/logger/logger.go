package logger

import (
	"fmt"
	"strings"

	"samguk-server/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "samguk-server"

// New собирает zap.Logger из настроек сервера.
//
// В development логгер пишет в console формате с caller и stacktrace от warn, без сэмплинга.
// В остальных окружениях пишет JSON и сэмплирует повторяющиеся сообщения (100 в секунду, дальше каждое сотое),
// чтобы поток одинаковых ошибок провайдера не забивал вывод.
// Неизвестный LOG_LEVEL - ошибка конфигурации.
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	development := isDevelopment(cfg.Env)
	outputPath := cfg.LogOutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	if development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		if outputPath == "stdout" || outputPath == "stderr" {
			encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       development,
		DisableCaller:     !development,
		DisableStacktrace: !development,
		Encoding:          encoding(cfg.LogEncoding, development),
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{outputPath},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields: map[string]interface{}{
			"service": serviceName,
			"env":     cfg.Env,
		},
	}
	if !development {
		zapConfig.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// encoding: явный LOG_ENCODING побеждает, иначе console для development и json для остальных.
func encoding(requested string, development bool) string {
	switch strings.ToLower(requested) {
	case "json", "console":
		return strings.ToLower(requested)
	}
	if development {
		return "console"
	}
	return "json"
}
