package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Insert failures in an import report and every hard-failure
// response go through MapError, so raw driver text never reaches a client
// outside development mode.
//
// Codes by category:
//
//	DB001   duplicate natural key (SQLSTATE 23505, "duplicate key")
//	DB002   missing value for a NOT NULL column (23502)
//	DB003   value out of range for its column (22003)
//	DB004   database unreachable ("connection refused")
//	DB005   connection interrupted ("connection reset")
//	DB006   statement timeout ("timeout")
//	DB007   deadlock (40P01, "deadlock")
//
//	VAL001  invalid integer cell
//	VAL002  invalid numeric cell
//	VAL003  missing required field
//
//	FILE001 file too large
//	FILE002 file is not valid CSV
//	FILE003 file is not UTF-8
//	FILE004 no file in the request
//	FILE005 wrong file type
//
//	UPL001  import slots exhausted
//	UPL002  request cancelled
//	UPL003  request timed out
//
//	AUTH001 bad email or password
//	AUTH002 missing or invalid access token
//
//	RATE001 per-client rate limit
//
//	ERR000  anything else; check the logs for the technical error
//
// SQLSTATE codes are checked first, then patterns are matched
// case-insensitively with strings.Contains. The first match wins, so
// specific patterns precede general ones.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDuplicateKey = UserMessage{
		Message: "A car with the same make, model, trim, engine type and body type already exists",
		Action:  "Remove the row or change its identifying fields",
		Code:    "DB001",
	}
	msgNotNull = UserMessage{
		Message: "A required value is missing",
		Action:  "Ensure make_name, model_name, engine_type and body_type are filled in",
		Code:    "DB002",
	}
	msgOutOfRange = UserMessage{
		Message: "A value is too large for its column",
		Action:  "Check numeric columns for typos",
		Code:    "DB003",
	}
	msgDeadlock = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}
)

// sqlStateMessages maps PostgreSQL error codes to user messages.
var sqlStateMessages = map[string]UserMessage{
	"23505": msgDuplicateKey,
	"23502": msgNotNull,
	"22003": msgOutOfRange,
	"40P01": msgDeadlock,
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps lower-case substrings of technical errors to messages.
var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", msgDuplicateKey},
	{"violates not-null", msgNotNull},
	{"out of range", msgOutOfRange},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},

	// Request lifetime. Checked before the generic "timeout" pattern.
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL002",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or try again later",
		Code:    "UPL003",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try uploading a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", msgDeadlock},

	// Validation
	{"invalid integer value", UserMessage{
		Message: "Invalid integer value",
		Action:  "Use whole numbers such as 4 or 250",
		Code:    "VAL001",
	}},
	{"invalid numeric value", UserMessage{
		Message: "Invalid numeric value",
		Action:  "Use plain decimal numbers such as 2.5",
		Code:    "VAL002",
	}},
	{"missing required fields", UserMessage{
		Message: "Required field is empty",
		Action:  "Ensure make_name, model_name, engine_type and body_type are filled in",
		Code:    "VAL003",
	}},

	// Files. Encoding is checked before the generic CSV pattern.
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file with UTF-8 encoding",
		Code:    "FILE003",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Check for unbalanced quotes",
		Code:    "FILE002",
	}},
	{"no file provided", UserMessage{
		Message: "No file uploaded",
		Action:  "Attach a CSV file in the \"file\" field",
		Code:    "FILE004",
	}},
	{"only csv files", UserMessage{
		Message: "Only CSV files are allowed",
		Action:  "Upload a .csv file",
		Code:    "FILE005",
	}},

	// Imports
	{"too many concurrent imports", UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},

	// Auth
	{"invalid credentials", UserMessage{
		Message: "Email or password is incorrect",
		Action:  "Check your credentials and try again",
		Code:    "AUTH001",
	}},
	{"invalid or expired token", UserMessage{
		Message: "Authentication required",
		Action:  "Log in again",
		Code:    "AUTH002",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// PostgreSQL errors are matched on SQLSTATE; everything else on message
// patterns. Unmatched errors get ERR000.
//
//	err := fmt.Errorf("insert car: %w", pgErr) // SQLSTATE 23505
//	MapError(err).Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStateMessages[pgErr.Code]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders MapError as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
