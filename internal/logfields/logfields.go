package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyChannel    = "channel"
	KeyActivities = "activities"
	KeyOutput     = "output"
	KeyPath       = "path"
	KeyInterval   = "interval"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr     { return slog.String(KeyRunID, id) }
func Channel(ch string) slog.Attr   { return slog.String(KeyChannel, ch) }
func Activities(n int) slog.Attr    { return slog.Int(KeyActivities, n) }
func Output(path string) slog.Attr  { return slog.String(KeyOutput, path) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Interval(s string) slog.Attr   { return slog.String(KeyInterval, s) }
func Addr(a string) slog.Attr       { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
