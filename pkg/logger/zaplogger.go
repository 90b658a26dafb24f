package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	log *zap.SugaredLogger
}

var (
	zapLogger *ZapLogger
	zapLock   sync.RWMutex
)

func NewLogger(config zap.Config) (*ZapLogger, error) {
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return Set(logger), nil
}

// Set replaces the package logger with one built around core. Tests use it
// together with zaptest/observer to assert on emitted entries.
func Set(logger *zap.Logger) *ZapLogger {
	logger = logger.WithOptions(zap.AddCallerSkip(2))
	l := &ZapLogger{log: logger.Sugar()}
	zapLock.Lock()
	zapLogger = l
	zapLock.Unlock()
	return l
}

// SetCore is a shorthand for Set(zap.New(core)).
func SetCore(core zapcore.Core) *ZapLogger {
	return Set(zap.New(core))
}

func GetLogger() *ZapLogger {
	zapLock.RLock()
	defer zapLock.RUnlock()
	if zapLogger == nil {
		panic("logger not initialized")
	}
	return zapLogger
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}
