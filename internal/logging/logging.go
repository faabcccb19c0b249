// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options controls logger output.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// Setup applies opts to the standard logrus logger.
func Setup(opts Options) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	logrus.SetLevel(level)

	switch opts.Format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)
	return nil
}

// Component returns a logger tagged with a component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
