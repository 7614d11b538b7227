package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the process-wide logger, a no-op until InitLogger runs.
	Logger      = zap.NewNop()
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// InitLogger initializes the global logger.
// Development mode writes a human-readable console log; production mode tees
// a rotated JSON file with the console.
func InitLogger(isDevelopment bool, logPath string, logLevel string) error {
	level := ParseLevel(logLevel)
	atomicLevel.SetLevel(level)

	var l *zap.Logger
	var err error
	if isDevelopment {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		config.EncoderConfig.EncodeLevel = fixedWidthLevel
		config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
		config.EncoderConfig.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(formatCallerPath(caller))
		}
		config.Level = atomicLevel
		l, err = config.Build(
			zap.AddCallerSkip(1), // skip the package-level wrappers
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	} else {
		l, err = NewProductionLogger(logPath)
	}
	if err != nil {
		return err
	}

	Logger = l
	zap.ReplaceGlobals(l)
	return nil
}

// NewProductionLogger creates a logger writing JSON to a rotated file and
// console lines to stdout.
func NewProductionLogger(logPath string) (*zap.Logger, error) {
	if logPath == "" {
		logPath = "./logs/pickupwatch.log"
	}

	if err := createLogDir(logPath); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = fixedWidthLevel
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(formatCallerPath(caller))
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, atomicLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), atomicLevel),
	)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// ParseLevel maps a config string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Info logs a message at InfoLevel
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}

func fixedWidthLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%-5s", level.CapitalString()))
}

func createLogDir(logPath string) error {
	dir := filepath.Dir(logPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// formatCallerPath keeps package/file.go:line and pads it for alignment.
func formatCallerPath(caller zapcore.EntryCaller) string {
	path := caller.TrimmedPath()
	path = strings.TrimPrefix(path, "pkg/")
	path = strings.TrimPrefix(path, "cmd/")

	const callerWidth = 24
	if len(path) > callerWidth {
		path = "..." + path[len(path)-(callerWidth-3):]
	}
	return fmt.Sprintf("%-*s", callerWidth, path)
}
