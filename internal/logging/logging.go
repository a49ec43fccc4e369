// Package logging builds the process logger. The TUI owns stdout and
// stderr, so diagnostics go to a rotating file instead.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely the logger writes.
type Options struct {
	// Path of the log file. Empty selects a per-user default under the
	// OS cache directory.
	Path  string
	Debug bool
}

// New returns a file-backed zap logger and its close func.
func New(opts Options) (*zap.Logger, func(), error) {
	path := opts.Path
	if path == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		path = filepath.Join(base, "inklet", "inklet.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(writer),
		level,
	)

	logger := zap.New(core)
	closeFn := func() {
		_ = logger.Sync()
		_ = writer.Close()
	}
	return logger, closeFn, nil
}
