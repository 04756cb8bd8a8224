package lms

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrTokenNotFound means the login page carried no recognizable security
// token. This is terminal for an LMS fetch: the portal rejects result
// submissions without it, and fabricating one only produces a session
// bound to nothing.
var ErrTokenNotFound = errors.New("could not extract security token")

var (
	jsAssignRegex = regexp.MustCompile(`(?is)document\.getElementById\(['"]token['"]\)\.value\s*=\s*['"]([a-f0-9]{32,128})['"]`)
	hex64Regex    = regexp.MustCompile(`(?i)\b[a-f0-9]{64}\b`)
	hex32Regex    = regexp.MustCompile(`(?i)\b[a-f0-9]{32}\b`)
)

// ExtractToken pulls the anti-automation token out of a login page.
//
// The portal has moved the token around over time, so extraction is a
// fallback chain, most specific first:
//  1. hidden <input id="token">
//  2. the javascript assignment that fills that input
//  3. any freestanding 64-char hex string
//  4. any 32-char hex string
func ExtractToken(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		value := doc.Find("input#token").First().AttrOr("value", "")
		if value == "" {
			value = doc.Find("input[name='token']").First().AttrOr("value", "")
		}
		if value != "" {
			return value, nil
		}
	}

	if groups := jsAssignRegex.FindStringSubmatch(body); len(groups) == 2 {
		return groups[1], nil
	}
	if m := hex64Regex.FindString(body); m != "" {
		return m, nil
	}
	if m := hex32Regex.FindString(body); m != "" {
		return m, nil
	}

	return "", ErrTokenNotFound
}
