package formula

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dnddice/internal/dice"
)

// Roller rolls a single dice term. *dice.Roller satisfies it.
type Roller interface {
	Roll(count, sides int, mods []dice.Modifier) (dice.Roll, error)
}

// Result is the outcome of evaluating a node. Rolls is set for dice terms only.
type Result struct {
	Value     Value
	Trace     string
	Modifiers []dice.Modifier
	Rolls     []int
}

// Evaluator walks a validated tree, drawing dice in left-to-right order.
// It holds no mutable state of its own.
type Evaluator struct {
	roller Roller
}

// NewEvaluator creates an Evaluator drawing dice from roller.
//
// Precondition: roller must be non-nil.
func NewEvaluator(roller Roller) *Evaluator {
	return &Evaluator{roller: roller}
}

// Evaluate computes the value and trace of n.
//
// Precondition: n passed Validate.
// Postcondition: Returns the Result, or an error wrapping ErrEvaluation.
func (e *Evaluator) Evaluate(n Node) (Result, error) {
	switch n := n.(type) {
	case *Number:
		return Result{Value: NumberValue(n.Value), Trace: fmt.Sprintf("%d", n.Value)}, nil

	case *Dice:
		roll, err := e.roller.Roll(n.Count, n.Sides, n.Modifiers)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %w", ErrEvaluation, n, err)
		}
		return Result{
			Value:     NumberValue(roll.Total()),
			Trace:     roll.String(),
			Modifiers: roll.Modifiers,
			Rolls:     roll.Final,
		}, nil

	case *BinaryOp:
		left, right, err := e.pair(n.Left, n.Right)
		if err != nil {
			return Result{}, err
		}
		v := n.Op.Apply(left.Value.Number, right.Value.Number)
		return Result{
			Value:     NumberValue(v),
			Trace:     fmt.Sprintf("%s %s %s = %d", left.Trace, n.Op, right.Trace, v),
			Modifiers: concatModifiers(left.Modifiers, right.Modifiers),
		}, nil

	case *Comparison:
		left, right, err := e.pair(n.Left, n.Right)
		if err != nil {
			return Result{}, err
		}
		v := OutcomeValue(n.Op.Holds(left.Value.Number, right.Value.Number))
		return Result{
			Value:     v,
			Trace:     fmt.Sprintf("%s %s %s = %s", left.Trace, n.Op, right.Trace, v),
			Modifiers: concatModifiers(left.Modifiers, right.Modifiers),
		}, nil

	case *DiceComparison:
		inner, err := e.Evaluate(n.Expr)
		if err != nil {
			return Result{}, err
		}
		v := OutcomeValue(n.Op.Holds(inner.Value.Number, n.Target))
		return Result{
			Value:     v,
			Trace:     fmt.Sprintf("%s s%s%d = %s", inner.Trace, n.Op, n.Target, v),
			Modifiers: inner.Modifiers,
		}, nil

	case *DiceCount:
		inner, err := e.Evaluate(n.Expr)
		if err != nil {
			return Result{}, err
		}
		count := 0
		for _, r := range inner.Rolls {
			if n.Op.Holds(r, n.Target) {
				count++
			}
		}
		return Result{
			Value:     NumberValue(count),
			Trace:     fmt.Sprintf("%s count dice %s %d = %d", stripTotal(inner.Trace), n.Op, n.Target, count),
			Modifiers: inner.Modifiers,
		}, nil
	}
	return Result{}, fmt.Errorf("%w: unknown node %T", ErrEvaluation, n)
}

// pair evaluates left before right so draws follow reading order.
func (e *Evaluator) pair(l, r Node) (Result, Result, error) {
	left, err := e.Evaluate(l)
	if err != nil {
		return Result{}, Result{}, err
	}
	right, err := e.Evaluate(r)
	if err != nil {
		return Result{}, Result{}, err
	}
	return left, right, nil
}

// stripTotal drops the trailing " = <sum>" of a dice trace.
func stripTotal(trace string) string {
	if i := strings.LastIndex(trace, " = "); i >= 0 {
		return trace[:i]
	}
	return trace
}

func concatModifiers(a, b []dice.Modifier) []dice.Modifier {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]dice.Modifier, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
