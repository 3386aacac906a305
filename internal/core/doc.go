// Package core implements the car catalog's import pipeline and login.
//
// An import runs in two phases. The streaming phase reads the uploaded CSV
// one record at a time, normalizes header keys, and validates each row into
// a CarRecord or an invalid-row entry. When the stream ends the temp file is
// removed and the persistence phase drains the queue of valid rows in file
// order: each row is checked against the natural key and inserted only when
// no matching car exists.
//
// Failures are layered:
//
//   - Request-level errors (no file, wrong type, too large, too busy) are
//     sentinels returned before any row is read.
//   - Stream-level errors (malformed quoting, invalid UTF-8) abort the import
//     with a *StreamError and no report.
//   - Row-level validation failures and persistence failures are recorded
//     in the ImportReport and never stop the import.
//
// The package has no HTTP dependencies; internal/web adapts it.
package core
