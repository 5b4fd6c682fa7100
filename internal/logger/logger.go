// Package logger provides the shared logrus logger for the sync engine.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base *logrus.Logger
	once sync.Once
)

// Init sets up the shared logger once with env-configured level.
// The console UI owns the terminal, so the log stream goes to stderr where
// it can be redirected without disturbing the display.
func Init() {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		base.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	})
}

func parseLevel(raw string) logrus.Level {
	level := strings.TrimSpace(strings.ToLower(raw))
	if level == "" {
		return logrus.InfoLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func ensure() {
	if base == nil {
		Init()
	}
}

// SetOutput redirects the shared logger, e.g. to a file while the TUI runs.
func SetOutput(w io.Writer) {
	ensure()
	base.SetOutput(w)
}

// Debugf logs a debug message with component context.
func Debugf(component, format string, args ...interface{}) {
	ensure()
	base.Debugf("%s: %s", component, fmt.Sprintf(format, args...))
}

// Infof logs an informational message with component context.
func Infof(component, format string, args ...interface{}) {
	ensure()
	base.Infof("%s: %s", component, fmt.Sprintf(format, args...))
}

// Warnf logs a warning message with component context.
func Warnf(component, format string, args ...interface{}) {
	ensure()
	base.Warnf("%s: %s", component, fmt.Sprintf(format, args...))
}

// Errorf logs an error message with component context.
func Errorf(component, format string, args ...interface{}) {
	ensure()
	base.Errorf("%s: %s", component, fmt.Sprintf(format, args...))
}
