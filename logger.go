package httpcache

import "log/slog"

// log returns the logger for the Transport, falling back to the default
// slog logger when none is configured.
func (t *Transport) log() *slog.Logger {
	if t != nil && t.logger != nil {
		return t.logger
	}
	return slog.Default()
}
