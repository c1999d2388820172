package types

// Logger defines methods for structured logging.
//
// Each method takes a message and alternating key-value pairs, the shape
// used by zap.SugaredLogger and log/slog, so most structured loggers
// adapt with a thin wrapper. The operator logs group lifecycle at Debug,
// recoverable oddities at Warn, and terminal faults at Error.
type Logger interface {
	// Debug logs a message at DebugLevel with optional key-value fields.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel with optional key-value fields.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel with optional key-value fields.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel with optional key-value fields.
	Error(msg string, keysAndValues ...any)
}
