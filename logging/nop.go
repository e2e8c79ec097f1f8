package logging

import "go.uber.org/zap"

// NewNopLogger returns a Logger that discards all output. Intended for tests
// and for components that make logging optional.
func NewNopLogger() *Logger {
	nop := zap.NewNop()
	return &Logger{
		zap:   nop,
		sugar: nop.Sugar(),
	}
}
