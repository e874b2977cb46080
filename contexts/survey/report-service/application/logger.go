package application

import "log/slog"

// ResolveLogger falls back to the process default when wiring passed nil.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
