package logger

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type engineLogger struct {
	*log.Logger
}

var singleton *engineLogger

func getLogger() *engineLogger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "prism",
				})
				l.SetLevel(log.InfoLevel)
				singleton = &engineLogger{l}
			})
	}
	return singleton
}

// SetLevelDebug lowers the log level to debug; useful when diagnosing graph builds.
func SetLevelDebug() {
	getLogger().SetLevel(log.DebugLevel)
}

// LogDebug logs a formatted message at debug level.
func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

// LogInfo logs a formatted message at info level.
func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

// LogWarn logs a formatted message at warn level.
func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

// LogError logs a formatted message at error level.
func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}
