package observability

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Logger wraps zap.Logger with the fields every pajesim log line carries.
type Logger struct {
	*zap.Logger
	fields []zap.Field
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	RunID  string
}

// InitLogger initializes the process-wide logger exactly once.
func InitLogger(config LogConfig) *Logger {
	once.Do(func() {
		globalLogger = NewLogger(config)
	})
	return globalLogger
}

// GetLogger returns the process-wide logger, initializing sane defaults
// if InitLogger was never called.
func GetLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewLogger(LogConfig{Level: "info", Format: "console"})
	}
	return globalLogger
}

// NewLogger builds a standalone logger, independent of the package global.
func NewLogger(config LogConfig) *Logger {
	level := zapcore.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if config.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	defaultFields := []zap.Field{
		zap.String("service", "pajesim"),
		zap.Int("pid", os.Getpid()),
	}
	if config.RunID != "" {
		defaultFields = append(defaultFields, zap.String("run_id", config.RunID))
	}

	return &Logger{
		Logger: logger.With(defaultFields...),
		fields: defaultFields,
	}
}

// With creates a child logger with additional fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
		fields: append(l.fields, fields...),
	}
}

// WithError adds an error field to the logger.
func (l *Logger) WithError(err error) *Logger {
	return l.With(zap.Error(err))
}

// WithEvent adds the fields identifying the trace event currently
// being handled.
func (l *Logger) WithEvent(kind, eventText string) *Logger {
	return l.With(
		zap.String("event_kind", kind),
		zap.String("event_text", eventText),
	)
}

// Audit logs a structural mutation (container creation/destruction) at
// info level with the fields an operator replaying a run cares about.
func (l *Logger) Audit(action, containerID string, atTime float64) {
	l.With(
		zap.String("audit_action", action),
		zap.String("container_id", containerID),
		zap.Float64("time", atTime),
	).Info("structural change")
}
