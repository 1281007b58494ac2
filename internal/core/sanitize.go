package core

import "strings"

// missingSentinels are the stand-in literals that mean "no value" when found
// in a cell. Comparison happens after trimming and lowercasing.
var missingSentinels = map[string]bool{
	"":     true,
	"none": true,
	"null": true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"-":    true,
	"—":    true,
}

// IsMissing reports whether the value is one of the recognised "no value"
// sentinels. Every caller that needs to test for absence goes through this
// predicate; the sentinel set is never re-implemented elsewhere.
func IsMissing(s string) bool {
	return missingSentinels[strings.ToLower(strings.TrimSpace(s))]
}

// CleanValue normalises a free-text cell for in-memory use: missing
// sentinels collapse to the empty string, everything else passes through.
func CleanValue(s string) string {
	if IsMissing(s) {
		return ""
	}
	return s
}

// hazardPrefixes are the leading characters spreadsheet applications
// interpret as formula triggers.
const hazardPrefixes = "=+-@"

// isHazard reports whether s would be interpreted as a formula when the CSV
// is opened in a spreadsheet.
func isHazard(s string) bool {
	return s != "" && strings.ContainsRune(hazardPrefixes, rune(s[0]))
}

// SanitizeCell neutralises formula injection by prefixing hazardous values
// with a single quote. Values that already carry the quote guard are left
// alone so repeated saves never double-prefix.
func SanitizeCell(s string) string {
	if isHazard(s) {
		return "'" + s
	}
	return s
}

// DesanitizeCell strips the quote guard added by SanitizeCell, restoring the
// canonical unsanitized form held in memory. Quotes that do not guard a
// hazardous character are genuine content and are kept.
func DesanitizeCell(s string) string {
	if strings.HasPrefix(s, "'") && isHazard(s[1:]) {
		return s[1:]
	}
	return s
}
