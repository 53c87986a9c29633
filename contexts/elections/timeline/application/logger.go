package application

import "log/slog"

// ResolveLogger falls back to slog.Default so use cases and workers can be
// built without an explicit logger.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
