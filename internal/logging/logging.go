package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Debug controls whether debug logs are printed.
var Debug bool

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the process logger. Debug mode uses zap's development config.
func Init(debug bool) error {
	Debug = debug
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process logger. A nil logger discards everything.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the process logger for structured fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Sync flushes buffered entries.
func Sync() { _ = L().Sync() }

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		L().Sugar().Debugf(format, v...)
	}
}

func Infof(format string, v ...any) { L().Sugar().Infof(format, v...) }

func Warnf(format string, v ...any) { L().Sugar().Warnf(format, v...) }

func Errorf(format string, v ...any) { L().Sugar().Errorf(format, v...) }
