package formula

import (
	"fmt"

	"github.com/cory-johannsen/dnddice/internal/dice"
)

// Parse parses an expanded formula (flags already stripped) into a tree.
//
// Grammar, lowest precedence first:
//
//	formula    = threshold EOF
//	threshold  = comparison [ SUMCHECK ]        SUMCHECK only at the end of its scope
//	comparison = additive [ ('>' | '<') additive ]
//	additive   = term { ('+' | '-') term }
//	term       = postfix { ('*' | '/') postfix }
//	postfix    = primary [ COUNTCHECK ]
//	primary    = '(' threshold ')' | DICE | NUMBER | ('+' | '-') NUMBER
//
// Postcondition: Returns a non-nil Node, or an error wrapping ErrParse.
func Parse(text string) (Node, error) {
	toks, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{src: text, toks: toks}
	n, err := p.parseThreshold()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s", tok.Kind)
	}
	return n, nil
}

// MustParse parses text and panics on error. Useful in tests and fixtures.
func MustParse(text string) Node {
	n, err := Parse(text)
	if err != nil {
		panic("formula: MustParse failed for " + text + ": " + err.Error())
	}
	return n
}

type parser struct {
	src  string
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return newParseError(p.src, tok.Pos, fmt.Sprintf(format, args...))
}

func (p *parser) parseThreshold() (Node, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind == TokenSumCheck {
		p.advance()
		if end := p.peek().Kind; end != TokenEOF && end != TokenRParen {
			return nil, p.errorf(tok, "sum threshold must end the expression")
		}
		return &DiceComparison{Expr: expr, Op: tok.Op, Target: tok.Value}, nil
	}
	return expr, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op CompareOp
	switch p.peek().Kind {
	case TokenGreater:
		op = OpGreater
	case TokenLess:
		op = OpLess
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op Operator
		switch p.peek().Kind {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		var op Operator
		switch p.peek().Kind {
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Op: op, Right: right}
	}
}

// parsePostfix accepts a count suffix after any primary; Validate rejects
// it on anything but a dice term.
func (p *parser) parsePostfix() (Node, error) {
	grouped := p.peek().Kind == TokenLParen
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind == TokenCountCheck {
		p.advance()
		return &DiceCount{Expr: n, Op: tok.Op, Target: tok.Value, Grouped: grouped}, nil
	}
	return n, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.Kind {
	case TokenLParen:
		inner, err := p.parseThreshold()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.Kind != TokenRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", closing.Kind)
		}
		return inner, nil
	case TokenDice:
		// Text after the last recognised modifier is ignored.
		mods, _ := dice.ParseModifiers(tok.Mods)
		return &Dice{Count: tok.Count, Sides: tok.Sides, Modifiers: mods}, nil
	case TokenNumber:
		return &Number{Value: tok.Value}, nil
	case TokenPlus, TokenMinus:
		num := p.peek()
		if num.Kind != TokenNumber {
			return nil, p.errorf(tok, "sign must precede a number")
		}
		p.advance()
		if tok.Kind == TokenMinus {
			return &Number{Value: -num.Value}, nil
		}
		return &Number{Value: num.Value}, nil
	case TokenEOF:
		return nil, p.errorf(tok, "unexpected end of formula")
	}
	return nil, p.errorf(tok, "unexpected %s", tok.Kind)
}
