// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logger. format is "json" (default) or "text";
// out defaults to stderr.
func Init(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	Configure(logrus.StandardLogger(), lvl, format, out)
	return nil
}

// Configure applies level, format and output to logger.
func Configure(logger *logrus.Logger, level logrus.Level, format string, out io.Writer) {
	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetLevel(level)
}

// New returns an entry of the standard logger tagged with component.
func New(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

// Discard returns an entry that drops everything, for tests and library
// callers that pass no logger.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// OrDiscard returns entry, or a discarding entry when nil.
func OrDiscard(entry *logrus.Entry) *logrus.Entry {
	if entry == nil {
		return Discard()
	}
	return entry
}
