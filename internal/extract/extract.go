// Package extract finds dice formulas embedded in free text.
package extract

import (
	"regexp"
	"strings"
)

const (
	refPiece   = `\{&\w+\}|&\w+`
	dicePiece  = `\d*d\d+`
	operand    = `[+-]?(?:` + refPiece + `|` + dicePiece + `|\d+|\()`
	modPiece   = `k[hlm]\d*|d[hlm]\d*|[hl]\d*|ro\d+|r\d+|!\d*|x\d*`
	checkPiece = `[sc][<>]=?\d+`
)

// candidate matches one formula anchored at the start of its input:
// optional flags directly against a leading ref, dice term or '(', then any
// run of formula pieces, then a non-alphanumeric character or the end of
// input. Only the first group is the formula. Comparisons with '=' are
// captured whole so the parser rejects them instead of the text being cut.
var candidate = regexp.MustCompile(
	`^([sf]{0,2}(?:` + refPiece + `|` + dicePiece + `|\()` +
		`(?:` + refPiece +
		`|` + dicePiece +
		`|` + checkPiece +
		`|` + modPiece +
		`|\d+|[()]` +
		`|\s*[+\-*/]\s*` + operand +
		`|\s*[<>]=?\s*` + operand +
		`)*)(?:[^a-zA-Z0-9]|$)`)

// formulaLike is what a candidate must contain to be worth parsing.
var formulaLike = regexp.MustCompile(`d\d|&|[<>]`)

// Extract returns the formula candidates of text in the order they appear.
// Candidates never overlap and never start or end inside a word. The scan is
// permissive; callers are expected to reject candidates that fail to parse.
func Extract(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		if i > 0 && isAlnum(text[i-1]) {
			i++
			continue
		}
		loc := candidate.FindStringSubmatchIndex(text[i:])
		if loc == nil {
			i++
			continue
		}
		raw := text[i+loc[2] : i+loc[3]]
		i += loc[3]

		f := strings.TrimSpace(trimUnbalanced(raw))
		if f == "" || !formulaLike.MatchString(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// trimUnbalanced drops trailing ')' that close nothing, as in "(roll 2d6)".
func trimUnbalanced(s string) string {
	depth := 0
	for _, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	for depth < 0 && strings.HasSuffix(s, ")") {
		s = s[:len(s)-1]
		depth++
	}
	return s
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
