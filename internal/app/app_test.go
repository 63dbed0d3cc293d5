package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/formula"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func seeded(seed int64) config.RollerConfig {
	return config.RollerConfig{Source: config.SourceSeeded, Seed: seed}
}

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()
	cases := map[string]config.ParamsConfig{
		"memory": {Backend: config.BackendMemory, Values: map[string]string{"str": "3"}},
		"yaml":   {Backend: config.BackendYAML, Path: writeFile(t, "params.yaml", "params:\n  str: \"3\"\n")},
		"lua": {Backend: config.BackendLua, Path: writeFile(t, "params.lua", `
function param(name)
  if name == "str" then return "3" end
end
`)},
	}
	for name, pc := range cases {
		t.Run(name, func(t *testing.T) {
			store, closer, err := OpenStore(ctx, config.Config{Params: pc}, zaptest.NewLogger(t))
			require.NoError(t, err)
			defer closer.Close()

			got, err := store.Lookup(ctx, "str")
			require.NoError(t, err)
			assert.Equal(t, "3", got)
		})
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Params: config.ParamsConfig{Backend: config.BackendSQLite},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "params.db")},
	}
	store, closer, err := OpenStore(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closer.Close()

	got, err := store.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenStore_Errors(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	_, _, err := OpenStore(ctx, config.Config{Params: config.ParamsConfig{Backend: "redis"}}, logger)
	assert.ErrorContains(t, err, `unknown params backend "redis"`)

	_, _, err = OpenStore(ctx, config.Config{Params: config.ParamsConfig{Backend: config.BackendYAML, Path: "/nonexistent.yaml"}}, logger)
	assert.Error(t, err)

	_, _, err = OpenStore(ctx, config.Config{Params: config.ParamsConfig{Backend: config.BackendLua, Path: writeFile(t, "bad.lua", "x = 1")}}, logger)
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	_, seed, err := NewSource(seeded(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), seed)

	_, seed, err = NewSource(seeded(0))
	require.NoError(t, err)
	assert.NotZero(t, seed)

	_, seed, err = NewSource(config.RollerConfig{Source: config.SourceCrypto})
	require.NoError(t, err)
	assert.Zero(t, seed)

	_, _, err = NewSource(config.RollerConfig{Source: "dice-bag"})
	assert.Error(t, err)
}

func TestLimits(t *testing.T) {
	assert.Equal(t, 1000, Limits(config.RollerConfig{}).MaxDice)
	assert.Equal(t, 10000, Limits(config.RollerConfig{}).MaxRerolls)
	assert.Equal(t, 5, Limits(config.RollerConfig{MaxDice: 5}).MaxDice)
}

func TestNewPipeline(t *testing.T) {
	cfg := config.Config{
		Roller: seeded(7),
		Params: config.ParamsConfig{Backend: config.BackendMemory, Values: map[string]string{"atk": "1d20+&str", "str": "4"}},
	}
	p, err := NewPipeline(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, int64(7), p.Seed)

	results := p.Processor.ProcessText(context.Background(), "I swing: &atk")
	require.Len(t, results, 1)
	assert.Equal(t, "1d20+4", results[0].Expanded)
	assert.GreaterOrEqual(t, results[0].Value.Number, 5)
	assert.LessOrEqual(t, results[0].Value.Number, 24)
}

func TestNewPipeline_TooManyDice(t *testing.T) {
	cfg := config.Config{Roller: config.RollerConfig{Source: config.SourceSeeded, Seed: 1, MaxDice: 10}}
	p, err := NewPipeline(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	results := p.Processor.ProcessText(context.Background(), "11d6 and 10d6")
	require.Len(t, results, 1)
	assert.Equal(t, "10d6", results[0].Original)
}

// Property: pipelines built from the same seed produce the same results.
func TestPropertyNewPipeline_SeedReplay(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64Min(1).Draw(rt, "seed")
		cfg := config.Config{Roller: seeded(seed)}
		run := func() []formula.Value {
			p, err := NewPipeline(context.Background(), cfg, zaptest.NewLogger(t))
			require.NoError(rt, err)
			defer p.Close()
			var values []formula.Value
			for _, r := range p.Processor.ProcessText(context.Background(), "4d6kh3 2d20kl1 3d8!") {
				values = append(values, r.Value)
			}
			return values
		}
		assert.Equal(rt, run(), run())
	})
}
