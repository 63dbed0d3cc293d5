package dice

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrRerollUnsatisfiable is returned when a reroll threshold exceeds the die size,
	// so no draw could ever satisfy it.
	ErrRerollUnsatisfiable = errors.New("dice: reroll threshold exceeds die sides")
	// ErrRerollLimit is returned when a reroll modifier exhausts its redraw budget.
	ErrRerollLimit = errors.New("dice: reroll limit exceeded")
)

// Every function in this file treats its input as immutable and returns a
// fresh slice, so each modifier step can be tested on its own.

func sortedAsc(rolls []int) []int {
	out := slices.Clone(rolls)
	slices.Sort(out)
	return out
}

func sortedDesc(rolls []int) []int {
	out := sortedAsc(rolls)
	slices.Reverse(out)
	return out
}

func clamp(n, size int) int {
	return max(0, min(n, size))
}

// KeepHighest returns the n highest rolls in descending order.
func KeepHighest(rolls []int, n int) []int {
	s := sortedDesc(rolls)
	return s[:clamp(n, len(s))]
}

// KeepLowest returns the n lowest rolls in ascending order.
func KeepLowest(rolls []int, n int) []int {
	s := sortedAsc(rolls)
	return s[:clamp(n, len(s))]
}

// KeepMinMaxPairs returns the n smallest and n largest rolls interleaved as
// min, max, min, max. When 2n covers the whole sequence every roll is kept.
func KeepMinMaxPairs(rolls []int, n int) []int {
	s := sortedAsc(rolls)
	out := make([]int, 0, min(len(s), 2*max(n, 0)))
	lo, hi := 0, len(s)-1
	for k := 0; k < n && lo <= hi; k++ {
		out = append(out, s[lo])
		if lo < hi {
			out = append(out, s[hi])
		}
		lo++
		hi--
	}
	return out
}

// DropHighest removes the n highest rolls and returns the rest in descending order.
func DropHighest(rolls []int, n int) []int {
	s := sortedDesc(rolls)
	return s[clamp(n, len(s)):]
}

// DropLowest removes the n lowest rolls and returns the rest in ascending order.
func DropLowest(rolls []int, n int) []int {
	s := sortedAsc(rolls)
	return s[clamp(n, len(s)):]
}

// DropMinMaxPairs removes n rolls from each end of the ascending sequence.
//
// Postcondition: Returns an empty slice when 2n >= len(rolls).
func DropMinMaxPairs(rolls []int, n int) []int {
	s := sortedAsc(rolls)
	n = max(n, 0)
	if 2*n >= len(s) {
		return []int{}
	}
	return s[n : len(s)-n]
}

// RerollBelow redraws every roll below threshold until it meets or exceeds it.
//
// Precondition: sides > 0; limit > 0 bounds the total number of redraws.
// Postcondition: Every returned roll is >= threshold, or an error is returned:
// ErrRerollUnsatisfiable when threshold > sides, ErrRerollLimit when the
// redraw budget runs out.
func RerollBelow(rolls []int, threshold, sides int, src Source, limit int) ([]int, error) {
	out := slices.Clone(rolls)
	if threshold > sides && slices.ContainsFunc(out, func(v int) bool { return v < threshold }) {
		return nil, fmt.Errorf("%w: r%d on d%d", ErrRerollUnsatisfiable, threshold, sides)
	}
	draws := 0
	for i := range out {
		for out[i] < threshold {
			if draws >= limit {
				return nil, fmt.Errorf("%w: %d redraws", ErrRerollLimit, limit)
			}
			out[i] = rollDie(src, sides)
			draws++
		}
	}
	return out, nil
}

// RerollOnceBelow redraws every roll below threshold exactly once and keeps
// the larger of the original and the redraw.
func RerollOnceBelow(rolls []int, threshold, sides int, src Source) []int {
	out := slices.Clone(rolls)
	for i, v := range out {
		if v < threshold {
			out[i] = max(v, rollDie(src, sides))
		}
	}
	return out
}

// ExplodeMax appends extra draws after every roll equal to sides, continuing
// while each new draw is also a maximum, at most limit extra draws per die.
//
// Postcondition: Each original roll is followed directly by its explosions.
func ExplodeMax(rolls []int, limit, sides int, src Source) []int {
	out := make([]int, 0, len(rolls))
	for _, v := range rolls {
		out = append(out, v)
		current := v
		for extra := 0; current == sides && extra < limit; extra++ {
			current = rollDie(src, sides)
			out = append(out, current)
		}
	}
	return out
}

// Apply runs a single modifier over rolls for a die with the given sides.
//
// Precondition: sides > 0; maxRerolls > 0.
// Postcondition: rolls is left unchanged; the transformed sequence is returned.
func Apply(rolls []int, m Modifier, sides int, src Source, maxRerolls int) ([]int, error) {
	switch m.Kind {
	case KeepHigh:
		return KeepHighest(rolls, m.N), nil
	case KeepLow:
		return KeepLowest(rolls, m.N), nil
	case KeepMinMax:
		return KeepMinMaxPairs(rolls, m.N), nil
	case DropHigh:
		return DropHighest(rolls, m.N), nil
	case DropLow:
		return DropLowest(rolls, m.N), nil
	case DropMinMax:
		return DropMinMaxPairs(rolls, m.N), nil
	case Reroll:
		return RerollBelow(rolls, m.N, sides, src, maxRerolls)
	case RerollOnce:
		return RerollOnceBelow(rolls, m.N, sides, src), nil
	case Explode:
		return ExplodeMax(rolls, m.N, sides, src), nil
	}
	return nil, fmt.Errorf("dice: unknown modifier kind %d", m.Kind)
}
