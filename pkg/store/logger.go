package store

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// badgerLogger adapts badger's printf-style logger onto zap. Badger ends its
// messages with a newline, which zap would print as a blank line.
type badgerLogger struct {
	logger *zap.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(logLine(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(logLine(format, args))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(logLine(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(logLine(format, args))
}

func logLine(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
