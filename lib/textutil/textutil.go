package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanCell strips non-breaking spaces and collapses the inner
// whitespace of a scraped table cell.
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.Trim(s, " \n\t")
}

// NormalizeCode produces the canonical form of a course code used for
// deduplication: uppercased with all whitespace removed.
func NormalizeCode(code string) string {
	code = strings.ToUpper(code)
	return whitespaceRegex.ReplaceAllString(code, "")
}

// NormalizeKey flattens a label cell ("Student Full Name :", "Reg. #")
// into a lookup key by dropping colons, hashes, dots and spaces.
func NormalizeKey(key string) string {
	key = strings.ToLower(key)
	for _, c := range []string{":", "#", "."} {
		key = strings.ReplaceAll(key, c, "")
	}
	return whitespaceRegex.ReplaceAllString(key, "")
}

// CountMatches reports how many of the matchers occur as substrings of
// name, compared case-insensitively.
func CountMatches(name string, matchers []string) int {
	name = strings.ToLower(name)
	n := 0
	for _, m := range matchers {
		if strings.Contains(name, m) {
			n++
		}
	}
	return n
}

func MatchAny(name string, matchers []string) bool {
	return CountMatches(name, matchers) > 0
}
