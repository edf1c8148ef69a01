package logger

import "log/slog"

// Err wraps an error into a slog attribute with a fixed "error" key.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
