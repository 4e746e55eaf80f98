// Package logging provides the structured logger shape shared by every
// distsort package.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal surface every component logs through. Keeping it
// as an interface (rather than importing logrus directly everywhere)
// lets tests substitute a discard logger without touching call sites.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// logrusLogger adapts *logrus.Logger to Logger.
type logrusLogger struct {
	*logrus.Logger
	field string
}

// New builds the default logger: structured, text-formatted, timestamped,
// writing to stderr so stdout stays free for the startup and shutdown
// banners.
func New(component string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{Logger: l, field: component}
}

func (l *logrusLogger) entry() *logrus.Entry {
	return l.Logger.WithField("component", l.field)
}

func (l *logrusLogger) Info(v ...interface{})                 { l.entry().Info(v...) }
func (l *logrusLogger) Infof(format string, v ...interface{})  { l.entry().Infof(format, v...) }
func (l *logrusLogger) Warn(v ...interface{})                 { l.entry().Warn(v...) }
func (l *logrusLogger) Warnf(format string, v ...interface{})  { l.entry().Warnf(format, v...) }
func (l *logrusLogger) Error(v ...interface{})                { l.entry().Error(v...) }
func (l *logrusLogger) Errorf(format string, v ...interface{}) { l.entry().Errorf(format, v...) }
func (l *logrusLogger) Debug(v ...interface{})                { l.entry().Debug(v...) }
func (l *logrusLogger) Debugf(format string, v ...interface{}) { l.entry().Debugf(format, v...) }
func (l *logrusLogger) Fatal(v ...interface{})                { l.entry().Fatal(v...) }
func (l *logrusLogger) Fatalf(format string, v ...interface{}) { l.entry().Fatalf(format, v...) }

// Discard silences all output; used by tests that don't want log noise.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return &logrusLogger{Logger: l, field: "test"}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
