package params

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// ErrExpansionBudget is returned when an expansion performs more
// substitutions than its budget allows.
var ErrExpansionBudget = errors.New("params: expansion budget exceeded")

// DefaultBudgetFactor is the number of substitutions allowed per distinct
// parameter name touched by one expansion.
const DefaultBudgetFactor = 100

// refPattern matches "{&name}" or "&name". The brace form lets a name be
// followed directly by word characters, as in "{&bonus}d6".
var refPattern = regexp.MustCompile(`\{&(\w+)\}|&(\w+)`)

// HasRef reports whether text still contains a parameter reference.
func HasRef(text string) bool {
	return refPattern.MatchString(text)
}

// Expander replaces parameter references with values from a Store.
// It holds no per-call state; use NewScope for each top-level request.
type Expander struct {
	store  Store
	logger *zap.Logger
	factor int
}

// NewExpander creates an Expander over store. A factor <= 0 selects
// DefaultBudgetFactor.
//
// Precondition: store and logger must be non-nil.
func NewExpander(store Store, logger *zap.Logger, factor int) *Expander {
	if factor <= 0 {
		factor = DefaultBudgetFactor
	}
	return &Expander{store: store, logger: logger, factor: factor}
}

// NewScope returns a Scope whose lookup cache lives until the Scope is dropped.
func (e *Expander) NewScope() *Scope {
	return &Scope{expander: e, cache: make(map[string]string)}
}

// Expand expands text in a fresh Scope.
func (e *Expander) Expand(ctx context.Context, text string) (string, error) {
	return e.NewScope().Expand(ctx, text)
}

// Scope memoizes parameter lookups for one top-level request. A Scope is not
// safe for concurrent use.
type Scope struct {
	expander *Expander
	cache    map[string]string
}

// Expand replaces every reference in text, recursively expanding each
// substituted value. A name already being expanded on the current chain
// resolves to empty text.
//
// Postcondition: Returns text without references, or an error wrapping
// ErrExpansionBudget.
func (s *Scope) Expand(ctx context.Context, text string) (string, error) {
	x := &expansion{scope: s, ctx: ctx, touched: make(map[string]struct{})}
	out := x.expand(text, nil)
	if x.err != nil {
		return "", x.err
	}
	return out, nil
}

func (s *Scope) lookup(ctx context.Context, name string) string {
	if v, ok := s.cache[name]; ok {
		return v
	}
	v, err := s.expander.store.Lookup(ctx, name)
	if err != nil {
		s.expander.logger.Warn("parameter lookup failed",
			zap.String("name", name),
			zap.Error(err),
		)
		v = ""
	}
	s.cache[name] = v
	return v
}

// expansion tracks the substitution budget of a single Scope.Expand call.
type expansion struct {
	scope   *Scope
	ctx     context.Context
	touched map[string]struct{}
	calls   int
	err     error
}

func (x *expansion) expand(text string, chain []string) string {
	return refPattern.ReplaceAllStringFunc(text, func(ref string) string {
		if x.err != nil {
			return ""
		}
		if x.calls > len(x.touched)*x.scope.expander.factor {
			x.err = fmt.Errorf("%w: %d substitutions for %d names",
				ErrExpansionBudget, x.calls, len(x.touched))
			return ""
		}
		x.calls++

		name := strings.Trim(ref, "{&}")
		if slices.Contains(chain, name) {
			return ""
		}
		x.touched[name] = struct{}{}
		value := x.scope.lookup(x.ctx, name)
		return x.expand(value, append(slices.Clip(chain), name))
	})
}
