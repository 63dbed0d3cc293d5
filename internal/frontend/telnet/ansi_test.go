package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, Green+"Success"+Reset, Colorize(Green, "Success"))
	assert.Equal(t, "plain", Colorize("", "plain"))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "2d6 = 7", StripANSI(Bold+"2d6"+Reset+" = "+Colorize(Cyan, "7")))
	assert.Equal(t, "broken \033[", StripANSI("broken \033["))
}

// Property: StripANSI inverts Colorize.
func TestPropertyStripColorize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 \[\]=+>-]{0,40}`).Draw(t, "text")
		color := rapid.SampledFrom([]string{Red, Green, Yellow, Cyan, BrightBlack, Bold}).Draw(t, "color")
		assert.Equal(t, text, StripANSI(Colorize(color, text)))
	})
}

func TestColorf(t *testing.T) {
	assert.Equal(t, Red+"2d6 = 7"+Reset, Colorf(Red, "%s = %d", "2d6", 7))
}
