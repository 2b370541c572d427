// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// CharmLogger implements Logger on top of github.com/charmbracelet/log,
// giving levelled, coloured output suitable for the CLI demo. Unlike
// StandardLogger it distinguishes debug output from info/warn/error at the
// handler level rather than by message prefix.
type CharmLogger struct {
	logger *charmlog.Logger
}

// NewCharmLogger builds a CharmLogger writing to stderr at the given level
// ("debug", "info", "warn", "error"). An unrecognized level falls back to
// info.
func NewCharmLogger(level string) *CharmLogger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})
	l.SetLevel(parseCharmLevel(level))
	return &CharmLogger{logger: l}
}

func parseCharmLevel(level string) charmlog.Level {
	switch level {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func fieldsToKeyvals(fields []Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// Debug logs a debug-level message.
func (l *CharmLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, fieldsToKeyvals(fields)...)
}

// Info logs an info-level message.
func (l *CharmLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, fieldsToKeyvals(fields)...)
}

// Warn logs a warning-level message.
func (l *CharmLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, fieldsToKeyvals(fields)...)
}

// Error logs an error-level message.
func (l *CharmLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, fieldsToKeyvals(fields)...)
}

// With returns a CharmLogger with the given fields attached to every
// subsequent message.
func (l *CharmLogger) With(fields ...Field) Logger {
	return &CharmLogger{logger: l.logger.With(fieldsToKeyvals(fields)...)}
}
