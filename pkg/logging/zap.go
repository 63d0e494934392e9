package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap sugared logger to the Logger interface, hiding zap
// types from the rest of the code.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger creates the standard zap-backed logger. The returned flush
// function drains buffered log entries; call it before exiting on error
// paths that bypass the supervisor.
func NewZapLogger(level string) (Logger, func(), error) {
	parsedLevel := zapcore.InfoLevel
	if level != "" {
		if err := parsedLevel.Set(level); err != nil {
			return nil, nil, err
		}
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(parsedLevel)
	config.DisableStacktrace = true
	config.DisableCaller = true

	logger, err := config.Build()
	if err != nil {
		return nil, nil, err
	}

	flush := func() {
		_ = logger.Sync()
	}

	return &zapLogger{sugar: logger.Sugar()}, flush, nil
}

func (z *zapLogger) Debugf(msg string, args ...interface{}) {
	z.sugar.Debugf(msg, args...)
}

func (z *zapLogger) Infof(msg string, args ...interface{}) {
	z.sugar.Infof(msg, args...)
}

func (z *zapLogger) Warnf(msg string, args ...interface{}) {
	z.sugar.Warnf(msg, args...)
}

func (z *zapLogger) Errorf(msg string, args ...interface{}) {
	z.sugar.Errorf(msg, args...)
}
