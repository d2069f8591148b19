//go:build !windows && !plan9

package logging

import (
	"fmt"
	"log/syslog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitializeSyslog routes log output to the local syslog daemon under tag.
// Used in daemon mode, where stdout and stderr point at /dev/null.
// An empty level falls back to info rather than silence.
func InitializeSyslog(level string, tag string) error {
	zapLevel, ok := resolveLevel(level)
	if !ok {
		zapLevel = zapcore.InfoLevel
	}

	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, tag)
	if err != nil {
		return fmt.Errorf("failed to connect to syslog: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	// syslog stamps its own time
	encoderConfig.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(writer),
		zap.NewAtomicLevelAt(zapLevel),
	)
	logger = zap.New(core)

	return nil
}
