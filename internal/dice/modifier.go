package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// ModifierKind identifies a post-processing rule applied to a rolled sequence.
type ModifierKind uint8

const (
	// KeepHigh keeps the N highest rolls ("kh", "h").
	KeepHigh ModifierKind = iota + 1
	// KeepLow keeps the N lowest rolls ("kl", "l").
	KeepLow
	// KeepMinMax keeps N (min, max) pairs ("km").
	KeepMinMax
	// DropHigh drops the N highest rolls ("dh").
	DropHigh
	// DropLow drops the N lowest rolls ("dl").
	DropLow
	// DropMinMax drops N rolls from each end of the sorted sequence ("dm").
	DropMinMax
	// Reroll redraws every roll below N until it meets N ("r").
	Reroll
	// RerollOnce redraws every roll below N once, keeping the better ("ro").
	RerollOnce
	// Explode appends extra draws for every maximum roll, N at most per die ("!", "x").
	Explode
)

// DefaultExplodeLimit is the chain limit used by "!" and "x" without a count.
const DefaultExplodeLimit = 999

// Modifier is a single roll modifier. N is the count, threshold or chain
// limit depending on Kind.
type Modifier struct {
	Kind ModifierKind
	N    int
}

// String renders the modifier in formula notation, e.g. "kh3" or "ro2".
func (m Modifier) String() string {
	switch m.Kind {
	case KeepHigh:
		return fmt.Sprintf("kh%d", m.N)
	case KeepLow:
		return fmt.Sprintf("kl%d", m.N)
	case KeepMinMax:
		return fmt.Sprintf("km%d", m.N)
	case DropHigh:
		return fmt.Sprintf("dh%d", m.N)
	case DropLow:
		return fmt.Sprintf("dl%d", m.N)
	case DropMinMax:
		return fmt.Sprintf("dm%d", m.N)
	case Reroll:
		return fmt.Sprintf("r%d", m.N)
	case RerollOnce:
		return fmt.Sprintf("ro%d", m.N)
	case Explode:
		if m.N == DefaultExplodeLimit {
			return "!"
		}
		return fmt.Sprintf("x%d", m.N)
	}
	return fmt.Sprintf("modifier(%d)", m.Kind)
}

// MarshalText encodes the modifier in formula notation.
func (m Modifier) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// modifierToken describes one recognised modifier spelling. Tokens are tried in
// table order, so two-letter spellings precede their one-letter prefixes.
type modifierToken struct {
	prefix   string
	kind     ModifierKind
	def      int
	required bool
}

var modifierTokens = []modifierToken{
	{prefix: "kh", kind: KeepHigh, def: 1},
	{prefix: "kl", kind: KeepLow, def: 1},
	{prefix: "km", kind: KeepMinMax, def: 1},
	{prefix: "dh", kind: DropHigh, def: 1},
	{prefix: "dl", kind: DropLow, def: 1},
	{prefix: "dm", kind: DropMinMax, def: 1},
	{prefix: "ro", kind: RerollOnce, required: true},
	{prefix: "r", kind: Reroll, required: true},
	{prefix: "h", kind: KeepHigh, def: 1},
	{prefix: "l", kind: KeepLow, def: 1},
	{prefix: "!", kind: Explode, def: DefaultExplodeLimit},
	{prefix: "x", kind: Explode, def: DefaultExplodeLimit},
}

// ParseModifiers consumes modifier tokens from the start of text, left to
// right, until the remainder matches no known modifier.
//
// Postcondition: Returns the modifiers in evaluation order and the unconsumed
// remainder. Unrecognised text is never an error here.
func ParseModifiers(text string) ([]Modifier, string) {
	var mods []Modifier
	rest := strings.TrimSpace(text)
	for rest != "" {
		m, next, ok := parseModifier(rest)
		if !ok {
			break
		}
		mods = append(mods, m)
		rest = next
	}
	return mods, rest
}

func parseModifier(text string) (Modifier, string, bool) {
	for _, tok := range modifierTokens {
		if !strings.HasPrefix(text, tok.prefix) {
			continue
		}
		after := text[len(tok.prefix):]
		digits := leadingDigits(after)
		if digits == "" {
			if tok.required {
				continue
			}
			return Modifier{Kind: tok.kind, N: tok.def}, after, true
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Modifier{}, text, false
		}
		return Modifier{Kind: tok.kind, N: n}, after[len(digits):], true
	}
	return Modifier{}, text, false
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

// UnmarshalText decodes a single modifier in formula notation.
func (m *Modifier) UnmarshalText(text []byte) error {
	parsed, rest, ok := parseModifier(string(text))
	if !ok || rest != "" {
		return fmt.Errorf("dice: invalid modifier %q", text)
	}
	*m = parsed
	return nil
}
