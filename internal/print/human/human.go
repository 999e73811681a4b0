// Package human provides types parsing and formatting human-friendly
// representations of durations, byte sizes and paths.
//
// The types implement flag.Value and the text, JSON and YAML codecs, so they
// can be used directly in configuration structs and command line options:
//
//	type resolverConfig struct {
//		Timeout Duration
//		Buffer  Bytes
//	}
//	...
//	config := resolverConfig{
//		Timeout: Duration(5 * time.Second),
//		Buffer:  64 * KiB,
//	}
package human

import (
	"strconv"
	"strings"
	"unicode"
)

// splitUnit separates the number at the beginning of s from the unit name
// which follows it, optionally separated by spaces.
func splitUnit(s string) (number, unit string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsLetter)
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), s[i:]
}

// ftoa formats value/scale with at most two decimals.
func ftoa(value, scale float64) string {
	if value == 0 {
		return "0"
	}
	s := strconv.FormatFloat(value/scale, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
