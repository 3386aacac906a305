package core

import (
	"regexp"
	"strings"
)

// whitespaceRun covers Unicode spaces such as NBSP as well as ASCII
// whitespace, and a stray byte order mark.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)

// NormalizeKey lower-cases a header and replaces each whitespace run with a
// single underscore, so "Engine  Horsepower Hp" becomes
// "engine_horsepower_hp". Applying it twice gives the same result.
func NormalizeKey(key string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(key), "_")
}

// NormalizeRow returns a copy of row with every key normalized. Values are
// unchanged. When two headers normalize to the same key the later column in
// order wins; a nil order visits row in map order.
func NormalizeRow(row RawRow, order []string) map[string]string {
	out := make(map[string]string, len(row))
	if order == nil {
		for k, v := range row {
			out[NormalizeKey(k)] = v
		}
		return out
	}
	for _, k := range order {
		if v, ok := row[k]; ok {
			out[NormalizeKey(k)] = v
		}
	}
	return out
}
