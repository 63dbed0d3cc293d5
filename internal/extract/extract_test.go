package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dnddice/internal/extract"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"plain text 3d6 more text", []string{"3d6"}},
		{"Roll: 2d6+3 and check (2d6+3)s>10", []string{"2d6+3", "(2d6+3)s>10"}},
		{"attack with s6d20kh4&str now", []string{"s6d20kh4&str"}},
		{"sf(d20+5)s>15", []string{"sf(d20+5)s>15"}},
		{"6d20x4c>10 > 6d20c<3", []string{"6d20x4c>10 > 6d20c<3"}},
		{"&attack vs &defense", []string{"&attack", "&defense"}},
		{"{&n}d6 damage", []string{"{&n}d6"}},
		{"d20, d8 and d6.", []string{"d20", "d8", "d6"}},
		{"(roll 2d6)", []string{"2d6"}},
		{"4d6dl1 * 2 - 1", []string{"4d6dl1 * 2 - 1"}},
		{"(1+2)c>3", []string{"(1+2)c>3"}},
		{"d20+-1", []string{"d20+-1"}},
		{"The cleric's d8 heal", []string{"d8"}},
		{"it's d20 time", []string{"d20"}},
		{"Chief's 2d6 damage", []string{"2d6"}},
		{"s 2d6", []string{"2d6"}},
		{"check d20>=10 now", []string{"d20>=10"}},
		{"4d6c<=2", []string{"4d6c<=2"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extract.Extract(tc.text), "extracting from %q", tc.text)
	}
}

func TestExtract_NothingToFind(t *testing.T) {
	for _, text := range []string{
		"",
		"   ",
		"no formulas here",
		"abc2d6 xd6",
		"pick (3) options",
		"add 2+3",
	} {
		assert.Empty(t, extract.Extract(text), "extracting from %q", text)
	}
}

func TestExtract_CandidatesAreOrderedSubstrings_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.SampledFrom([]string{
			"roll", "the", "2d6", "d20+5", "(d8)", "&str", "s3d6", "x", "4d6kh3", ">", "10", "(", ")", ",",
		}), 0, 12).Draw(rt, "words")
		text := strings.Join(words, " ")

		pos := 0
		for _, c := range extract.Extract(text) {
			assert.NotEmpty(rt, c)
			assert.Equal(rt, strings.TrimSpace(c), c)
			i := strings.Index(text[pos:], c)
			if !assert.GreaterOrEqual(rt, i, 0, "candidate %q not found after %d in %q", c, pos, text) {
				return
			}
			pos += i + len(c)
		}
	})
}
