package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process logger. It is a no-op until Init is called so packages
// that log stay usable from tests.
var L = zap.NewNop()

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init builds a production JSON logger at the given level ("debug", "info",
// "warn", "error") and installs it as L.
func Init(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("logger: bad level %q: %w", level, err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	L = l.With(zap.String("service", serviceName))
	return L, nil
}

// Named returns a child of L for a component, without the printf caller skip.
func Named(name string) *zap.Logger {
	return L.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

func Debug(format string, args ...interface{}) {
	L.Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	L.Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	L.Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	L.Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	L.Fatal(fmt.Sprintf(format, args...))
}

func Sync() {
	_ = L.Sync()
}
