// Package log provides loggers for faust packages.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is the logging interface used by faust packages.
type Logger = logrus.FieldLogger

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("FAUST_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is enabled with
// FAUST_DEBUG environment variable.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
