// Package telnet provides a line-oriented Telnet server with ANSI color
// support for rolling dice from a terminal.
package telnet

import "fmt"

// ANSI escape codes used by the roll renderer.
const (
	Reset       = "\033[0m"
	Bold        = "\033[1m"
	Red         = "\033[31m"
	Green       = "\033[32m"
	Yellow      = "\033[33m"
	Cyan        = "\033[36m"
	BrightBlack = "\033[90m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Postcondition: Returns text unchanged when color is empty.
func Colorize(color, text string) string {
	if color == "" {
		return text
	}
	return color + text + Reset
}

// StripANSI removes all \033[...m sequences from s.
func StripANSI(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Colorf formats according to format and wraps the result with color.
func Colorf(color, format string, args ...any) string {
	return Colorize(color, fmt.Sprintf(format, args...))
}
