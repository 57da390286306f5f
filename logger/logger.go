package logger

// Logger is the minimal structured logging interface used by the engine and
// the role cache. Implementations accept alternating key/value pairs as
// variadic arguments, which keeps the interface easy to mock in tests.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// TraceIDFunc generates a correlation/trace ID string for each decision log.
// It should be cheap and safe for concurrent calls.
type TraceIDFunc func() string
