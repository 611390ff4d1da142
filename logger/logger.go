// Package logger builds the zap logger shared by the server, the pool and the
// stats recorders.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go and how much is kept.
type Options struct {
	Level      string // debug, info, warn, error
	File       string // empty logs to stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger and the level it filters on. Changing the returned
// level takes effect on every logger derived from it.
func New(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevel()
	if err := SetLevel(level, opts.Level); err != nil {
		return nil, level, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		enc zapcore.Encoder
		out zapcore.WriteSyncer
	)
	if opts.File == "" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
		out = zapcore.Lock(os.Stdout)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
		out = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(enc, out, level)
	return zap.New(core, zap.AddCaller()), level, nil
}

// SetLevel parses text and applies it to level. Empty text means info.
func SetLevel(level zap.AtomicLevel, text string) error {
	if text == "" {
		text = "info"
	}
	return level.UnmarshalText([]byte(text))
}
