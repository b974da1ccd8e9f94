package types

// Logger is the structured logging interface used throughout the library.
//
// Methods take a message plus alternating key-value pairs, the convention
// shared by slog and zap's SugaredLogger, so any structured logger adapts
// with a thin wrapper.
type Logger interface {
	// Debug logs a message at debug level with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at info level with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at warn level with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at error level with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at the highest severity and then terminates the
	// process. Implementations backed by loggers without a fatal level log
	// at error level before exiting.
	Fatal(msg string, keysAndValues ...any)
}
