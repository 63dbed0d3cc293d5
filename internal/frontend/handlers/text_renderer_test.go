package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dnddice/internal/formula"
	"github.com/cory-johannsen/dnddice/internal/frontend/telnet"
	"github.com/cory-johannsen/dnddice/internal/processor"
)

func TestRenderResult_Number(t *testing.T) {
	res := processor.Result{
		Original: "d20+&str",
		Expanded: "d20+3",
		Trace:    "1d20 [12] = 12 + 3 = 15",
		Value:    formula.NumberValue(15),
	}
	rendered := RenderResult(res)
	assert.Equal(t, "d20+3 => 15", telnet.StripANSI(rendered))
	assert.Contains(t, rendered, telnet.Bold+"15"+telnet.Reset)
}

func TestRenderResult_Outcome(t *testing.T) {
	success := RenderResult(processor.Result{Expanded: "d20>10", Value: formula.OutcomeValue(true)})
	fail := RenderResult(processor.Result{Expanded: "d20>10", Value: formula.OutcomeValue(false)})
	assert.Contains(t, success, telnet.Green+"Success")
	assert.Contains(t, fail, telnet.Red+"Fail")
}

func TestRenderResult_ShowDetails(t *testing.T) {
	res := processor.Result{
		Expanded:    "f2d6",
		Trace:       "2d6 [3, 4] = 7",
		Value:       formula.NumberValue(7),
		ShowDetails: true,
	}
	assert.Equal(t, "f2d6 => 7\r\n  2d6 [3, 4] = 7", telnet.StripANSI(RenderResult(res)))
}

func TestRenderResult_Spoiler(t *testing.T) {
	res := processor.Result{
		Expanded:    "sf1d20",
		Trace:       "1d20 [4] = 4",
		Value:       formula.NumberValue(4),
		Spoiler:     true,
		ShowDetails: true,
	}
	assert.Equal(t, "sf1d20 => ||4||\r\n  ||1d20 [4] = 4||", telnet.StripANSI(RenderResult(res)))
}

func TestRenderResults_Empty(t *testing.T) {
	lines := RenderResults(nil)
	assert.Len(t, lines, 1)
	assert.Equal(t, "No dice formulas found.", telnet.StripANSI(lines[0]))
}

// Property: every result gets exactly one rendered entry, and the value is visible.
func TestPropertyRenderResults_OnePerResult(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(-100, 100), 1, 10).Draw(t, "values")
		results := make([]processor.Result, len(values))
		for i, v := range values {
			results[i] = processor.Result{Expanded: "d6", Value: formula.NumberValue(v)}
		}
		lines := RenderResults(results)
		assert.Len(t, lines, len(values))
		for i, line := range lines {
			assert.Equal(t, "d6 => "+formula.NumberValue(values[i]).String(), telnet.StripANSI(line))
		}
	})
}
