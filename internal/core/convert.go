package core

// convert.go turns trimmed CSV cells into the pgtype values the store binds.
// Every helper maps an empty cell to an invalid (NULL) value; only malformed
// non-empty cells produce an error.

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

var errMalformed = errors.New("malformed value")

// ToPgText converts a cell to pgtype.Text.
// Returns invalid if the cell is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgInt4 reads the integer a cell starts with: "6.0" is 6 and "4 cyl" is
// 4. A cell with no leading digits, or whose value falls outside the int32
// range, is malformed.
func ToPgInt4(s string) (pgtype.Int4, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int4{Valid: false}, nil
	}
	n, err := strconv.ParseInt(intPrefix(s), 10, 32)
	if err != nil {
		return pgtype.Int4{}, errMalformed
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}, nil
}

// ToPgFloat8 reads the decimal a cell starts with, so "2.5L" is 2.5. NaN,
// infinities and cells with no leading number are malformed.
func ToPgFloat8(s string) (pgtype.Float8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Float8{Valid: false}, nil
	}
	f, err := strconv.ParseFloat(floatPrefix(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}, errMalformed
	}
	return pgtype.Float8{Float64: f, Valid: true}, nil
}

// intPrefix returns the optional sign and decimal digits s starts with, or
// "" when no digit follows the sign.
func intPrefix(s string) string {
	i := signLen(s)
	end := i + digitsLen(s[i:])
	if end == i {
		return ""
	}
	return s[:end]
}

// floatPrefix returns the longest leading part of s shaped like
// [sign] digits [. digits] [e [sign] digits], with at least one mantissa
// digit. An exponent marker not followed by digits is left out.
func floatPrefix(s string) string {
	i := signLen(s)
	mantissa := digitsLen(s[i:])
	i += mantissa
	if i < len(s) && s[i] == '.' {
		frac := digitsLen(s[i+1:])
		mantissa += frac
		i += 1 + frac
	}
	if mantissa == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1 + signLen(s[i+1:])
		if exp := digitsLen(s[j:]); exp > 0 {
			i = j + exp
		}
	}
	return s[:i]
}

func signLen(s string) int {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func digitsLen(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
