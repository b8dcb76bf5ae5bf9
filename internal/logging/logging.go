// Package logging is the structured-logging facade used across lexidb.
//
// Every package that needs to log takes a *Logger through its constructor
// rather than reaching for a global — mirrors the small log-facade habit
// the teacher threads through its bigger subsystems.
package logging

import (
	"go.uber.org/zap"
)

// Logger wraps zap's sugared logger with the handful of named loggers
// lexidb's packages ask for (one per subsystem, all children of a single
// root so sinks/levels are configured once).
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a production logger (JSON encoder, info level). Use NewNop
// in tests that don't care about log output.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything, for unit tests.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// Named returns a child logger tagged with the given subsystem name, e.g.
// logger.Named("txn") or logger.Named("planner").
func (l *Logger) Named(name string) *Logger {
	return &Logger{s: l.s.Named(name)}
}

func (l *Logger) Debugw(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

// Sync flushes buffered log entries; call on shutdown.
func (l *Logger) Sync() error { return l.s.Sync() }
