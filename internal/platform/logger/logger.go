package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"adsdash/internal/platform/config"
)

// New builds a zap logger writing to the configured log file. The terminal belongs to the UI,
// so nothing is written to stdout or stderr except zap's own internal errors.
// The returned func flushes the logger and closes the file; call it exactly once.
func New(cfg config.Config) (*zap.Logger, func() error, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Log.File == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	sink, closeSink, err := zap.Open(cfg.Log.File)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	errSink, _, err := zap.Open("stderr")
	if err != nil {
		closeSink()
		return nil, nil, fmt.Errorf("open error output: %w", err)
	}

	var enc zapcore.Encoder
	if cfg.Log.Format == "console" {
		enc = zapcore.NewConsoleEncoder(zapCfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(zapCfg.EncoderConfig)
	}
	opts := []zap.Option{zap.ErrorOutput(errSink), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if zapCfg.Development {
		opts = append(opts, zap.Development())
	}
	log := zap.New(zapcore.NewCore(enc, sink, zapCfg.Level), opts...)

	return log, func() error {
		err := log.Sync()
		closeSink()
		return err
	}, nil
}
