package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dnddice/internal/dice"
)

// seqSource replays face values (1-based) in order and fails the test when
// it runs dry.
type seqSource struct {
	t     *testing.T
	faces []int
}

func (s *seqSource) Intn(n int) int {
	s.t.Helper()
	require.NotEmpty(s.t, s.faces, "seqSource exhausted")
	v := s.faces[0]
	s.faces = s.faces[1:]
	require.LessOrEqual(s.t, v, n, "face %d out of range for d%d", v, n)
	return v - 1
}

func newRoller(t *testing.T, faces ...int) *dice.Roller {
	return dice.NewRoller(&seqSource{t: t, faces: faces}, zaptest.NewLogger(t), dice.DefaultLimits())
}

func TestRoll_NoModifiers(t *testing.T) {
	r := newRoller(t, 3, 4)
	roll, err := r.Roll(2, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, roll.Original)
	assert.Equal(t, 7, roll.Total())
	assert.False(t, roll.Changed())
	assert.Equal(t, "2d6 [3, 4] = 7", roll.String())
}

func TestRoll_ExplodeTrace(t *testing.T) {
	r := newRoller(t, 6, 6, 4)
	roll, err := r.Roll(1, 6, []dice.Modifier{{Kind: dice.Explode, N: dice.DefaultExplodeLimit}})
	require.NoError(t, err)
	assert.Equal(t, "1d6 [6] -> [6, 6, 4] = 16", roll.String())
}

func TestRoll_KeepHighTrace(t *testing.T) {
	r := newRoller(t, 3, 1, 4, 1, 5)
	roll, err := r.Roll(5, 6, []dice.Modifier{{Kind: dice.KeepHigh, N: 2}})
	require.NoError(t, err)
	assert.Equal(t, "5d6 [3, 1, 4, 1, 5] -> [5, 4] = 9", roll.String())
}

func TestRoll_ModifiersApplyInOrder(t *testing.T) {
	// 3d6 [6, 2, 1]: explode the 6 (draws 3), then keep the two highest.
	r := newRoller(t, 6, 2, 1, 3)
	roll, err := r.Roll(3, 6, []dice.Modifier{
		{Kind: dice.Explode, N: dice.DefaultExplodeLimit},
		{Kind: dice.KeepHigh, N: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 3}, roll.Final)
	assert.Equal(t, 9, roll.Total())
}

func TestRoll_ZeroDice(t *testing.T) {
	r := newRoller(t)
	roll, err := r.Roll(0, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, "0d6 [] = 0", roll.String())
}

func TestRoll_TooManyDice(t *testing.T) {
	r := dice.NewRoller(dice.NewSeededSource(1), zaptest.NewLogger(t), dice.Limits{MaxDice: 10, MaxRerolls: 10})
	_, err := r.Roll(11, 6, nil)
	assert.ErrorIs(t, err, dice.ErrTooManyDice)
}

func TestRoll_RerollUnsatisfiable(t *testing.T) {
	r := newRoller(t, 2)
	_, err := r.Roll(1, 6, []dice.Modifier{{Kind: dice.Reroll, N: 7}})
	assert.ErrorIs(t, err, dice.ErrRerollUnsatisfiable)
}

func TestRoll_SumInRange_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		sides := rapid.IntRange(1, 100).Draw(rt, "sides")
		seed := rapid.Int64().Draw(rt, "seed")

		r := dice.NewRoller(dice.NewSeededSource(seed), zaptest.NewLogger(t), dice.DefaultLimits())
		roll, err := r.Roll(count, sides, nil)
		require.NoError(rt, err)

		sum := 0
		for _, v := range roll.Original {
			assert.GreaterOrEqual(rt, v, 1)
			assert.LessOrEqual(rt, v, sides)
			sum += v
		}
		assert.Len(rt, roll.Original, count)
		assert.Equal(rt, sum, roll.Total(), "total must equal the shown rolls")
		assert.GreaterOrEqual(rt, roll.Total(), count)
		assert.LessOrEqual(rt, roll.Total(), count*sides)
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestSeededSource_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestNewSeed(t *testing.T) {
	_, err := dice.NewSeed()
	assert.NoError(t, err)
}
