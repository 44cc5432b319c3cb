// Package logging provides the structured Logger interface used across
// the module, implemented on top of charmbracelet/log. The interface
// shape is kept narrow and deliberately mirrors the teacher's own
// definition.Logger contract so every component takes a Logger rather
// than reaching for a package-level logger.
package logging

import (
	"os"

	charm "github.com/charmbracelet/log"
)

// Logger is the narrow logging contract every component depends on.
type Logger interface {
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Debug(msg string, kv ...interface{})
}

type charmLogger struct {
	l *charm.Logger
}

// New builds the default Logger, writing level-prefixed, colorized lines
// to stderr when attached to a terminal.
func New(name string) Logger {
	l := charm.NewWithOptions(os.Stderr, charm.Options{
		Prefix:          name,
		ReportTimestamp: true,
	})
	return &charmLogger{l: l}
}

// NewWithLevel builds a Logger at an explicit level, used by the CLI's
// --verbose flag.
func NewWithLevel(name string, level charm.Level) Logger {
	l := charm.NewWithOptions(os.Stderr, charm.Options{
		Prefix:          name,
		ReportTimestamp: true,
	})
	l.SetLevel(level)
	return &charmLogger{l: l}
}

func (c *charmLogger) Info(msg string, kv ...interface{})  { c.l.Info(msg, kv...) }
func (c *charmLogger) Warn(msg string, kv ...interface{})  { c.l.Warn(msg, kv...) }
func (c *charmLogger) Error(msg string, kv ...interface{}) { c.l.Error(msg, kv...) }
func (c *charmLogger) Debug(msg string, kv ...interface{}) { c.l.Debug(msg, kv...) }

// Nop is a Logger that discards everything, used in tests that don't
// want discovery/server chatter on stderr.
type Nop struct{}

func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
func (Nop) Debug(string, ...interface{}) {}
