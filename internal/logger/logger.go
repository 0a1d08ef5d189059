package logger

import (
  "fmt"

  "go.uber.org/zap"
)

// Logger wraps a zap sugared logger so callers can scope themselves with
// key/value pairs via With and log with loosely typed kv arguments.
type Logger struct {
  sugar *zap.SugaredLogger
}

// New builds a Logger for the given mode ("development" or "production").
func New(mode string) (*Logger, error) {
  var (
    zl  *zap.Logger
    err error
  )
  switch mode {
  case "production":
    zl, err = zap.NewProduction()
  case "development", "":
    zl, err = zap.NewDevelopment()
  default:
    return nil, fmt.Errorf("unknown log mode: %q", mode)
  }
  if err != nil {
    return nil, err
  }
  return &Logger{sugar: zl.Sugar()}, nil
}

func (l *Logger) With(kv ...interface{}) *Logger {
  return &Logger{sugar: l.sugar.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
  l.sugar.Debugw(msg, kv...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
  l.sugar.Infow(msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
  l.sugar.Warnw(msg, kv...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
  l.sugar.Errorw(msg, kv...)
}

func (l *Logger) Sync() error {
  return l.sugar.Sync()
}
