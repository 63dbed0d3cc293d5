package handlers

import (
	"strings"

	"github.com/cory-johannsen/dnddice/internal/formula"
	"github.com/cory-johannsen/dnddice/internal/frontend/telnet"
	"github.com/cory-johannsen/dnddice/internal/processor"
)

// RenderResult formats one formula result as colored Telnet text.
//
// The line shows the expanded formula and its value. show_details adds the
// roll trace on a second line. A spoiler result hides its value and trace
// behind || markers, the convention chat clients use for spoiler text.
func RenderResult(res processor.Result) string {
	var b strings.Builder

	b.WriteString(telnet.Colorize(telnet.Cyan, res.Expanded))
	b.WriteString(" => ")
	value := renderValue(res.Value)
	if res.Spoiler {
		value = telnet.Colorf(telnet.BrightBlack, "||%s||", telnet.StripANSI(value))
	}
	b.WriteString(value)

	if res.ShowDetails {
		b.WriteString("\r\n  ")
		trace := res.Trace
		if res.Spoiler {
			trace = "||" + trace + "||"
		}
		b.WriteString(telnet.Colorize(telnet.BrightBlack, trace))
	}
	return b.String()
}

// RenderResults formats every result on its own line. An empty slice renders
// a notice instead.
func RenderResults(results []processor.Result) []string {
	if len(results) == 0 {
		return []string{telnet.Colorize(telnet.Yellow, "No dice formulas found.")}
	}
	lines := make([]string, 0, len(results))
	for _, res := range results {
		lines = append(lines, RenderResult(res))
	}
	return lines
}

func renderValue(v formula.Value) string {
	switch {
	case !v.Boolean:
		return telnet.Colorize(telnet.Bold, v.String())
	case v.Success:
		return telnet.Colorize(telnet.Green, v.String())
	default:
		return telnet.Colorize(telnet.Red, v.String())
	}
}
