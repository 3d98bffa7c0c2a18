package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyNodeID     = "node_id"
	KeyNodeType   = "node_type"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySlug       = "slug"
	KeyComponent  = "component"
	KeyField      = "field"
	KeyPhase      = "phase"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func NodeID(id string) slog.Attr      { return slog.String(KeyNodeID, id) }
func NodeType(t string) slog.Attr     { return slog.String(KeyNodeType, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func Field(name string) slog.Attr     { return slog.String(KeyField, name) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
