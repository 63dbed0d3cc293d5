package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrParse classifies grammar mismatches.
	ErrParse = errors.New("formula: parse error")
	// ErrValidation classifies semantically invalid trees, e.g. "(1+2)c>3".
	ErrValidation = errors.New("formula: invalid formula")
	// ErrEvaluation classifies failures while rolling, e.g. an unsatisfiable reroll.
	ErrEvaluation = errors.New("formula: evaluation failed")
)

// ParseError reports where in the formula the grammar stopped matching.
type ParseError struct {
	Formula string
	Pos     int
	Msg     string
}

func newParseError(formula string, pos int, msg string) *ParseError {
	return &ParseError{Formula: formula, Pos: pos, Msg: msg}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formula: parse %q at offset %d: %s", e.Formula, e.Pos, e.Msg)
}

// Unwrap lets errors.Is(err, ErrParse) match.
func (e *ParseError) Unwrap() error { return ErrParse }
