package logger

import (
	"strings"

	"github.com/chrisdamba/orderpulse/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance. It is a no-op logger until InitLogger runs.
	Log = zap.NewNop()
)

// InitLogger initializes the global logger for the given stage and level.
// The prod stage gets JSON output; everything else gets a console encoder.
func InitLogger(stage, level string) error {
	var zapConfig zap.Config
	if stage == models.ProdStage {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.InitialFields = map[string]interface{}{
			"service": "orderpulse",
			"stage":   stage,
		}
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := zapConfig.Build()
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// OrGlobal returns l, or the global logger when l is nil.
func OrGlobal(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return Log
}

// Sync flushes any buffered log entries
func Sync() error {
	return Log.Sync()
}
