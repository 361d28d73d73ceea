package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyOperation   = "operation"
	KeyOperationID = "operation_id"
	KeySite        = "site"
	KeySlug        = "slug"
	KeyBranch      = "branch"
	KeyPR          = "pr"
	KeyPath        = "path"
	KeyOldPath     = "old_path"
	KeyAttempt     = "attempt"
	KeyDelayMS     = "delay_ms"
	KeyDurationMS  = "duration_ms"
	KeyStatus      = "status"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func OperationID(id string) slog.Attr { return slog.String(KeyOperationID, id) }
func Site(name string) slog.Attr      { return slog.String(KeySite, name) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func PR(n int) slog.Attr              { return slog.Int(KeyPR, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func OldPath(p string) slog.Attr      { return slog.String(KeyOldPath, p) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DelayMS(ms int64) slog.Attr      { return slog.Int64(KeyDelayMS, ms) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
