package engine

import "go.uber.org/zap"

// logger is used by engines constructed without an explicit Config.Logger.
// Silent unless SetLogger is called.
var logger = zap.NewNop()

// SetLogger replaces the package-level logger. Passing nil is a no-op.
// Engines capture the logger at construction, so call this before NewEngine.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Logger returns the package-level logger.
func Logger() *zap.Logger {
	return logger
}
