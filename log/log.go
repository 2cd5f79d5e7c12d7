// Package log provides loggers for synth components.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for synth loggers.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("SYNTH_DEBUG"))
	if err != nil {
		debug = false
	}
}

// Default returns a new logger instance. Debug level is enabled when the
// SYNTH_DEBUG environment variable is set to a true value.
func Default() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger that discards everything. Used as default by
// components which were not given a logger.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
