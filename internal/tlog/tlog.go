// tlog package is just a simple wrapper around logrus
package tlog

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment variable that seeds the log level.
const logLevelEnvVar = "TUNEDITTO_LOG_LEVEL"

// Global logger instance
var Tlogger *logrus.Logger

func init() {
	// Packages log before main has a chance to set up a file. Keep
	// them quiet until InitializeTlogger is called.
	Tlogger = logrus.New()
	Tlogger.SetLevel(logrus.PanicLevel)
}

// InitializeTlogger initializes or resets the global logger (Tlogger).
// The terminal belongs to the UI so everything goes to logFile.
func InitializeTlogger(logFile string) {
	Tlogger = logrus.New()

	// #nosec G304
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logrus.Fatalf("Failed to open log file: %v", err)
	}

	Tlogger.Out = file
	Tlogger.SetLevel(logrus.InfoLevel)
	Tlogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if lvl := strings.TrimSpace(os.Getenv(logLevelEnvVar)); lvl != "" {
		if err := SetLevel(lvl); err != nil {
			Tlogger.Warnf("Ignoring %s: %v", logLevelEnvVar, err)
		}
	}
}

// SetLevel changes the level of the global logger. An unknown level
// leaves the current level untouched.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Tlogger.SetLevel(lvl)
	return nil
}
