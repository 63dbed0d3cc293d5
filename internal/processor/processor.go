// Package processor runs the full formula pipeline over free text:
// extraction, parameter expansion, flag detection, parsing, validation and
// evaluation.
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dnddice/internal/dice"
	"github.com/cory-johannsen/dnddice/internal/extract"
	"github.com/cory-johannsen/dnddice/internal/formula"
	"github.com/cory-johannsen/dnddice/internal/params"
)

// Result is the outcome of one formula found in the input text.
type Result struct {
	// Original is the formula exactly as it appeared in the text.
	Original string `json:"original"`
	// Expanded is Original with parameter references substituted, flags included.
	Expanded    string          `json:"expanded"`
	Trace       string          `json:"trace"`
	Value       formula.Value   `json:"value"`
	Modifiers   []dice.Modifier `json:"modifiers"`
	Spoiler     bool            `json:"spoiler"`
	ShowDetails bool            `json:"show_details"`
}

// Processor evaluates every formula embedded in a text. It keeps no state
// between calls; it is safe for concurrent use when its Roller is.
type Processor struct {
	expander  *params.Expander
	evaluator *formula.Evaluator
	logger    *zap.Logger
}

// New creates a Processor.
//
// Precondition: expander, roller and logger must be non-nil.
func New(expander *params.Expander, roller formula.Roller, logger *zap.Logger) *Processor {
	return &Processor{
		expander:  expander,
		evaluator: formula.NewEvaluator(roller),
		logger:    logger,
	}
}

// ProcessText extracts and evaluates every formula in text.
//
// Formulas that fail expansion, parsing, validation or evaluation are left
// out of the result and logged at debug level; they never stop the remaining
// formulas. Parameter lookups are cached for the duration of the call only.
//
// Postcondition: Results are in the order the formulas appear in text. When
// ctx is done, the results gathered so far are returned.
func (p *Processor) ProcessText(ctx context.Context, text string) []Result {
	logger := p.logger.With(zap.String("request_id", uuid.NewString()))
	scope := p.expander.NewScope()

	var results []Result
	for _, candidate := range extract.Extract(text) {
		if ctx.Err() != nil {
			logger.Debug("processing cancelled", zap.Error(ctx.Err()))
			break
		}
		res, err := p.process(ctx, scope, candidate)
		if err != nil {
			logger.Debug("formula dropped",
				zap.String("formula", candidate),
				zap.String("reason", classify(err)),
				zap.Error(err),
			)
			continue
		}
		results = append(results, res)
	}
	logger.Debug("text processed",
		zap.Int("text_len", len(text)),
		zap.Int("results", len(results)),
	)
	return results
}

// ProcessFormula evaluates a single formula without extraction.
//
// Postcondition: Returns the Result, or an error wrapping one of
// params.ErrExpansionBudget, formula.ErrParse, formula.ErrValidation or
// formula.ErrEvaluation.
func (p *Processor) ProcessFormula(ctx context.Context, text string) (Result, error) {
	return p.process(ctx, p.expander.NewScope(), text)
}

func (p *Processor) process(ctx context.Context, scope *params.Scope, original string) (Result, error) {
	expanded, err := scope.Expand(ctx, original)
	if err != nil {
		return Result{}, fmt.Errorf("expanding %q: %w", original, err)
	}
	flags, body := formula.SplitFlags(expanded)

	tree, err := formula.Parse(body)
	if err != nil {
		return Result{}, err
	}
	if err := formula.Validate(tree); err != nil {
		return Result{}, err
	}
	out, err := p.evaluator.Evaluate(tree)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Original:    original,
		Expanded:    expanded,
		Trace:       out.Trace,
		Value:       out.Value,
		Modifiers:   out.Modifiers,
		Spoiler:     flags.Spoiler,
		ShowDetails: flags.ShowDetails,
	}, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, params.ErrExpansionBudget):
		return "expansion"
	case errors.Is(err, formula.ErrParse):
		return "parse"
	case errors.Is(err, formula.ErrValidation):
		return "validation"
	case errors.Is(err, formula.ErrEvaluation):
		return "evaluation"
	}
	return "unknown"
}
