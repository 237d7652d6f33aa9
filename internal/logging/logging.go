// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to w. Tables go to stdout, so callers pass
// stderr. An unknown level falls back to info with a warning.
func New(level, format string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("invalid log level, using info")
	}
	return log
}

// Init configures the standard logrus logger the same way and returns it.
func Init(level, format string) *logrus.Logger {
	l := New(level, format, os.Stderr)
	std := logrus.StandardLogger()
	std.SetOutput(l.Out)
	std.SetFormatter(l.Formatter)
	std.SetLevel(l.GetLevel())
	return std
}
