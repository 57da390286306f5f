package guard

import "github.com/oarkflow/guard/logger"

// Logger is re-exported so callers configuring the engine do not need a
// separate import for the common case.
type Logger = logger.Logger

// WithLogger installs a Logger on the Engine via EngineOption.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) error {
		if l != nil {
			e.logger = l
		}
		return nil
	}
}

// WithTraceIDFunc installs a custom trace ID generator used to correlate
// decision logs with request logs.
func WithTraceIDFunc(f logger.TraceIDFunc) EngineOption {
	return func(e *Engine) error {
		e.traceIDFunc = f
		return nil
	}
}
