package logger

import (
	"fmt"

	"masterserver/internal/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
}

type ZapLogger struct {
	lg *zap.SugaredLogger
}

func New(cfg config.Logger) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level error: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = cfg.Output
	zapCfg.ErrorOutputPaths = cfg.ErrOutput
	zapCfg.DisableStacktrace = true

	l, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger error: %w", err)
	}

	return &ZapLogger{lg: l.Sugar()}, nil
}

func (z *ZapLogger) Debugf(format string, args ...interface{}) {
	z.lg.Debugf(format, args...)
}

func (z *ZapLogger) Info(msg string) {
	z.lg.Info(msg)
}

func (z *ZapLogger) Infof(format string, args ...interface{}) {
	z.lg.Infof(format, args...)
}

func (z *ZapLogger) Error(msg string) {
	z.lg.Error(msg)
}

func (z *ZapLogger) Errorf(format string, args ...interface{}) {
	z.lg.Errorf(format, args...)
}
