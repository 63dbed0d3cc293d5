package formula

import "strings"

// Flags are presentation hints written as a formula prefix. They never
// change evaluation.
type Flags struct {
	Spoiler     bool // "s" prefix
	ShowDetails bool // "f" prefix
}

// SplitFlags strips up to two leading flag letters (s, f, sf, fs) from text.
// A flag letter is only taken when a formula remains after it.
//
// Postcondition: Returns the flags and the trimmed remainder.
func SplitFlags(text string) (Flags, string) {
	text = strings.TrimSpace(text)
	n := 0
	for n < len(text) && n < 2 && (text[n] == 's' || text[n] == 'f') {
		n++
	}
	for n > 0 && strings.TrimSpace(text[n:]) == "" {
		n--
	}
	var f Flags
	for _, c := range text[:n] {
		switch c {
		case 's':
			f.Spoiler = true
		case 'f':
			f.ShowDetails = true
		}
	}
	return f, strings.TrimSpace(text[n:])
}
