// Package notation turns algebraic movetext into canonical move keys by
// resolving each token against the rules engine.
package notation

import (
	"regexp"
	"strings"
)

var (
	tagLine     = regexp.MustCompile(`(?m)^\s*\[[^\]]+\]\s*$`)
	braceNote   = regexp.MustCompile(`\{[^}]*\}`)
	lineNote    = regexp.MustCompile(`;[^\n]*`)
	variation   = regexp.MustCompile(`\([^)]*\)`)
	moveNumber  = regexp.MustCompile(`\d+\.(\.\.)?`)
	fenTag      = regexp.MustCompile(`(?i)\[FEN\s+"([^"]+)"\]`)
	terminators = map[string]struct{}{"1-0": {}, "0-1": {}, "1/2-1/2": {}, "*": {}}
)

// Tokenize strips tag lines, comments, variations and move numbers from
// movetext and splits the rest into move tokens.
func Tokenize(movetext string) []string {
	s := tagLine.ReplaceAllString(movetext, "")
	s = braceNote.ReplaceAllString(s, " ")
	s = lineNote.ReplaceAllString(s, " ")
	s = variation.ReplaceAllString(s, " ")
	s = moveNumber.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// FENTag returns the value of a [FEN "..."] tag, if present.
func FENTag(movetext string) (string, bool) {
	m := fenTag.FindStringSubmatch(movetext)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsTerminator reports whether token is a game result marker.
func IsTerminator(token string) bool {
	_, ok := terminators[token]
	return ok
}
