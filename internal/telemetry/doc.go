// Package telemetry owns the in-memory telemetry dataset. Records are loaded
// once from a JSON file at startup and are read-only afterwards; Reload swaps
// the whole record set atomically, so concurrent readers always see a
// consistent snapshot.
//
// Loading fails softly: a missing, unreadable, or malformed dataset yields an
// empty store rather than an error, so the server stays available with
// degraded (empty) data.
package telemetry
