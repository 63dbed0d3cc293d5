package formula

import "fmt"

// Validate checks the semantic shape of a parsed tree:
//   - a DiceCount must wrap a Dice term directly, not a parenthesized one;
//   - a boolean node (Comparison, DiceComparison) may not be the operand of
//     arithmetic, a comparison or a threshold.
//
// Postcondition: Returns nil, or an error wrapping ErrValidation.
func Validate(n Node) error {
	switch n := n.(type) {
	case *DiceCount:
		if _, ok := n.Expr.(*Dice); !ok {
			return fmt.Errorf("%w: count threshold c%s%d applies only to dice, got %s", ErrValidation, n.Op, n.Target, n.Expr)
		}
		if n.Grouped {
			return fmt.Errorf("%w: count threshold c%s%d must follow the dice term directly, got (%s)", ErrValidation, n.Op, n.Target, n.Expr)
		}
	case *BinaryOp:
		return validateOperands(n, n.Left, n.Right)
	case *Comparison:
		return validateOperands(n, n.Left, n.Right)
	case *DiceComparison:
		return validateOperands(n, n.Expr)
	}
	return nil
}

func validateOperands(parent Node, operands ...Node) error {
	for _, op := range operands {
		if isBoolean(op) {
			return fmt.Errorf("%w: %s yields Success/Fail and cannot be an operand of %s", ErrValidation, op, parent)
		}
		if err := Validate(op); err != nil {
			return err
		}
	}
	return nil
}

func isBoolean(n Node) bool {
	switch n.(type) {
	case *Comparison, *DiceComparison:
		return true
	}
	return false
}
