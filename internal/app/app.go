// Package app builds the formula pipeline from configuration: the random
// source, the parameter backend and the Processor that ties them together.
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/dice"
	"github.com/cory-johannsen/dnddice/internal/params"
	"github.com/cory-johannsen/dnddice/internal/processor"
	"github.com/cory-johannsen/dnddice/internal/scripting"
	"github.com/cory-johannsen/dnddice/internal/storage/postgres"
	"github.com/cory-johannsen/dnddice/internal/storage/sqlite"
)

// Pipeline is a ready Processor and the resources behind it.
type Pipeline struct {
	Processor *processor.Processor
	Store     params.Store
	// Seed is the seed of a seeded source, zero for the crypto source.
	Seed int64

	closers []io.Closer
}

// Close releases the parameter backend.
func (p *Pipeline) Close() error {
	var first error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	p.closers = nil
	return first
}

// closerFunc adapts a no-result close function to io.Closer.
type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// NewSource returns the configured random source. A seeded source with a
// zero seed is seeded from crypto/rand, and the seed used is returned so a
// session can be replayed.
func NewSource(cfg config.RollerConfig) (dice.Source, int64, error) {
	switch cfg.Source {
	case config.SourceCrypto:
		return dice.NewCryptoSource(), 0, nil
	case config.SourceSeeded, "":
		seed := cfg.Seed
		if seed == 0 {
			var err error
			if seed, err = dice.NewSeed(); err != nil {
				return nil, 0, fmt.Errorf("drawing seed: %w", err)
			}
		}
		return dice.NewSeededSource(seed), seed, nil
	default:
		return nil, 0, fmt.Errorf("unknown roller source %q", cfg.Source)
	}
}

// Limits returns the roller limits from cfg, filling unset fields with
// dice.DefaultLimits.
func Limits(cfg config.RollerConfig) dice.Limits {
	limits := dice.DefaultLimits()
	if cfg.MaxDice > 0 {
		limits.MaxDice = cfg.MaxDice
	}
	if cfg.MaxRerolls > 0 {
		limits.MaxRerolls = cfg.MaxRerolls
	}
	return limits
}

// OpenStore opens the configured parameter backend. The returned closer
// releases it and is never nil.
//
// Postcondition: Returns a usable Store, or a non-nil error and no open resources.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (params.Store, io.Closer, error) {
	noop := closerFunc(func() {})
	switch cfg.Params.Backend {
	case config.BackendMemory, "":
		return params.NewMapStore(cfg.Params.Values), noop, nil

	case config.BackendYAML:
		store, err := params.LoadFile(cfg.Params.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("loaded parameter file",
			zap.String("path", cfg.Params.Path),
			zap.Int("params", store.Len()),
		)
		return store, noop, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewParameterRepository(pool.DB()), closerFunc(pool.Close), nil

	case config.BackendSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite parameter store", zap.String("path", cfg.SQLite.Path))
		return repo, repo, nil

	case config.BackendLua:
		store, err := scripting.LoadScriptFile(ctx, cfg.Params.Path, cfg.Params.ScriptInstructionLimit, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("loaded parameter script", zap.String("path", cfg.Params.Path))
		return store, closerFunc(store.Close), nil

	default:
		return nil, nil, fmt.Errorf("unknown params backend %q", cfg.Params.Backend)
	}
}

// NewPipeline builds the Processor described by cfg.
//
// Postcondition: Returns a Pipeline the caller must Close, or a non-nil error.
func NewPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Pipeline, error) {
	src, seed, err := NewSource(cfg.Roller)
	if err != nil {
		return nil, err
	}
	store, closer, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s parameter store: %w", cfg.Params.Backend, err)
	}

	logger.Info("formula pipeline ready",
		zap.String("source", cfg.Roller.Source),
		zap.Int64("seed", seed),
		zap.String("params_backend", cfg.Params.Backend),
	)
	roller := dice.NewRoller(src, logger, Limits(cfg.Roller))
	expander := params.NewExpander(store, logger, cfg.Params.BudgetFactor)
	return &Pipeline{
		Processor: processor.New(expander, roller, logger),
		Store:     store,
		Seed:      seed,
		closers:   []io.Closer{closer},
	}, nil
}
