package shared

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	ServiceName string // e.g. "recsend"
	Development bool   // console output at debug level
	Quiet       bool   // errors only, no caller or stack traces
}

// Logger wraps zap.Logger with additional context
type Logger struct {
	*zap.Logger
	serviceName string
	quiet       bool
}

// NewLogger creates a new logger instance based on the configuration
func NewLogger(config LoggerConfig) (*Logger, error) {
	var zapConfig zap.Config

	switch {
	case config.Quiet:
		// Quiet mode keeps only errors so record traffic never floods the output
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		zapConfig.DisableCaller = true
		zapConfig.DisableStacktrace = true
	case config.Development:
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return newLogger(zapLogger, config), nil
}

// NewLoggerWithCore builds a Logger on top of an existing core. Tests use it
// with zaptest/observer.
func NewLoggerWithCore(core zapcore.Core, config LoggerConfig) *Logger {
	return newLogger(zap.New(core), config)
}

func newLogger(zapLogger *zap.Logger, config LoggerConfig) *Logger {
	zapLogger = zapLogger.With(zap.String("service", config.ServiceName))
	return &Logger{
		Logger:      zapLogger,
		serviceName: config.ServiceName,
		quiet:       config.Quiet,
	}
}

// NewLoggerFromEnv creates a logger using environment variables
func NewLoggerFromEnv(serviceName string) (*Logger, error) {
	config := LoggerConfig{
		ServiceName: serviceName,
		Development: GetEnvBoolOrDefault("DEVELOPMENT", false),
		Quiet:       GetEnvBoolOrDefault("QUIET", false),
	}
	return NewLogger(config)
}

// WithConnection returns a logger tagged with a record-layer connection id
func (l *Logger) WithConnection(connID string) *zap.Logger {
	if connID == "" {
		return l.Logger
	}
	return l.Logger.With(zap.String("conn_id", connID))
}

// WithRemote returns a logger tagged with the peer address
func (l *Logger) WithRemote(remoteAddr string) *zap.Logger {
	if remoteAddr == "" {
		return l.Logger
	}
	return l.Logger.With(zap.String("remote_addr", remoteAddr))
}

// Critical error logging - always logs even in quiet mode
func (l *Logger) Critical(msg string, fields ...zap.Field) {
	l.Logger.Error(msg, append(fields, zap.Bool("critical", true))...)
}

// Conditional debug logging - only logs when not quiet
func (l *Logger) DebugIf(msg string, fields ...zap.Field) {
	if !l.quiet {
		l.Logger.Debug(msg, fields...)
	}
}

// Conditional info logging - only logs when not quiet
func (l *Logger) InfoIf(msg string, fields ...zap.Field) {
	if !l.quiet {
		l.Logger.Info(msg, fields...)
	}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
