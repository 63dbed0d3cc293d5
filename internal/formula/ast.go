package formula

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dnddice/internal/dice"
)

// Node is an immutable formula tree node. Every node owns its children.
type Node interface {
	fmt.Stringer
	node()
}

// Operator is an arithmetic operator.
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
)

func (o Operator) String() string { return string(o) }

// Apply combines a and b. Integer division truncates toward zero and
// division by zero yields 0.
func (o Operator) Apply(a, b int) int {
	switch o {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	}
	return 0
}

// CompareOp is a strict comparison operator.
type CompareOp byte

const (
	OpGreater CompareOp = '>'
	OpLess    CompareOp = '<'
)

func (o CompareOp) String() string { return string(o) }

// Holds reports whether "a <op> b" is true.
func (o CompareOp) Holds(a, b int) bool {
	switch o {
	case OpGreater:
		return a > b
	case OpLess:
		return a < b
	}
	return false
}

// Number is an integer literal.
type Number struct {
	Value int
}

// Dice is a dice term "NdS" with its modifiers in evaluation order.
type Dice struct {
	Count     int
	Sides     int
	Modifiers []dice.Modifier
}

// BinaryOp is an arithmetic operation.
type BinaryOp struct {
	Left  Node
	Op    Operator
	Right Node
}

// Comparison compares two numeric expressions and yields Success or Fail.
type Comparison struct {
	Left  Node
	Op    CompareOp
	Right Node
}

// DiceComparison compares the value of Expr against Target ("... s>N").
type DiceComparison struct {
	Expr   Node
	Op     CompareOp
	Target int
}

// DiceCount counts the individual rolls of Expr meeting Target ("... c>N").
// Validate requires Expr to be a bare *Dice term.
type DiceCount struct {
	Expr   Node
	Op     CompareOp
	Target int
	// Grouped is set when Expr was written in parentheses, as in "(2d6)c>3".
	Grouped bool
}

func (*Number) node()         {}
func (*Dice) node()           {}
func (*BinaryOp) node()       {}
func (*Comparison) node()     {}
func (*DiceComparison) node() {}
func (*DiceCount) node()      {}

func (n *Number) String() string { return fmt.Sprintf("%d", n.Value) }

func (n *Dice) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dd%d", n.Count, n.Sides)
	for _, m := range n.Modifiers {
		b.WriteString(m.String())
	}
	return b.String()
}

func (n *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

func (n *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", n.Left, n.Op, n.Right)
}

func (n *DiceComparison) String() string {
	return fmt.Sprintf("%ss%s%d", n.Expr, n.Op, n.Target)
}

func (n *DiceCount) String() string {
	if n.Grouped {
		return fmt.Sprintf("(%s)c%s%d", n.Expr, n.Op, n.Target)
	}
	return fmt.Sprintf("%sc%s%d", n.Expr, n.Op, n.Target)
}
