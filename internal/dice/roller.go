package dice

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrTooManyDice is returned when a term asks for more dice than Limits.MaxDice.
var ErrTooManyDice = errors.New("dice: too many dice")

// Limits bounds the work a single dice term may perform.
type Limits struct {
	// MaxDice is the largest accepted die count for one term.
	MaxDice int
	// MaxRerolls is the redraw budget of one Reroll modifier.
	MaxRerolls int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxDice: 1000, MaxRerolls: 10000}
}

// Roll is the audit record of one dice term.
//
// Invariant: Total() == sum(Final).
type Roll struct {
	Count     int
	Sides     int
	Original  []int      // rolls as drawn, before any modifier
	Final     []int      // rolls after every modifier, in order
	Modifiers []Modifier // modifiers applied, in evaluation order
}

// Total returns the sum of the post-modifier rolls.
func (r Roll) Total() int {
	total := 0
	for _, v := range r.Final {
		total += v
	}
	return total
}

// Changed reports whether the modifiers altered the sequence, order included.
func (r Roll) Changed() bool {
	return !slices.Equal(r.Original, r.Final)
}

// String returns the trace of the roll:
//
//	"4d6 [3, 1, 4, 6] -> [6, 4, 3] = 13"
//
// The "-> [...]" part is present only when Changed() is true.
func (r Roll) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dd%d %s", r.Count, r.Sides, FormatRolls(r.Original))
	if r.Changed() {
		b.WriteString(" -> ")
		b.WriteString(FormatRolls(r.Final))
	}
	fmt.Fprintf(&b, " = %d", r.Total())
	return b.String()
}

// FormatRolls renders rolls as "[a, b, c]".
func FormatRolls(rolls []int) string {
	parts := make([]string, len(rolls))
	for i, v := range rolls {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Roller draws dice from a Source, applies modifiers in order and logs every
// roll at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
	limits Limits
}

// NewRoller creates a Roller drawing from src.
//
// Precondition: src and logger must be non-nil; limits fields must be > 0.
func NewRoller(src Source, logger *zap.Logger, limits Limits) *Roller {
	return &Roller{src: src, logger: logger, limits: limits}
}

// Roll draws count dice with the given sides and applies mods in sequence.
//
// Precondition: count >= 0; sides > 0.
// Postcondition: Returns the Roll audit record, or ErrTooManyDice, or a
// reroll error from the modifier engine.
func (r *Roller) Roll(count, sides int, mods []Modifier) (Roll, error) {
	if count > r.limits.MaxDice {
		return Roll{}, fmt.Errorf("%w: %d > %d", ErrTooManyDice, count, r.limits.MaxDice)
	}
	if sides <= 0 {
		return Roll{}, fmt.Errorf("dice: sides must be positive, got %d", sides)
	}

	original := make([]int, count)
	for i := range original {
		original[i] = rollDie(r.src, sides)
	}

	final := original
	for _, m := range mods {
		next, err := Apply(final, m, sides, r.src, r.limits.MaxRerolls)
		if err != nil {
			return Roll{}, err
		}
		final = next
	}

	roll := Roll{
		Count:     count,
		Sides:     sides,
		Original:  original,
		Final:     final,
		Modifiers: slices.Clone(mods),
	}
	r.logger.Debug("dice roll",
		zap.Int("count", count),
		zap.Int("sides", sides),
		zap.Ints("original", roll.Original),
		zap.Ints("final", roll.Final),
		zap.Stringers("modifiers", roll.Modifiers),
		zap.Int("total", roll.Total()),
	)
	return roll, nil
}
