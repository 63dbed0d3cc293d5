package formula

import (
	"fmt"
	"strconv"
)

// TokenKind classifies a lexical token of a formula.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenNumber
	TokenDice
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenGreater
	TokenLess
	TokenLParen
	TokenRParen
	// TokenSumCheck is a trailing "s>N" / "s<N" threshold.
	TokenSumCheck
	// TokenCountCheck is a "c>N" / "c<N" success-count suffix.
	TokenCountCheck
)

var tokenNames = map[TokenKind]string{
	TokenEOF:        "end of formula",
	TokenNumber:     "number",
	TokenDice:       "dice term",
	TokenPlus:       "'+'",
	TokenMinus:      "'-'",
	TokenStar:       "'*'",
	TokenSlash:      "'/'",
	TokenGreater:    "'>'",
	TokenLess:       "'<'",
	TokenLParen:     "'('",
	TokenRParen:     "')'",
	TokenSumCheck:   "sum threshold",
	TokenCountCheck: "count threshold",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", k)
}

// Token is one lexical unit. Which fields are meaningful depends on Kind:
// Value for numbers, Count/Sides/Mods for dice terms, Op/Value for checks.
type Token struct {
	Kind  TokenKind
	Pos   int
	Text  string
	Value int
	Count int
	Sides int
	Mods  string
	Op    CompareOp
}

// Tokenize splits a formula into tokens.
//
// The letters s, c and d are resolved by position: "d" followed by a digit
// starts a dice term, "s" or "c" followed by '>' or '<' is a threshold
// suffix, and inside a dice term any other letter belongs to the modifier
// text. Leading presentation flags must already be stripped (see SplitFlags).
//
// Postcondition: The last token is TokenEOF, or a *ParseError is returned.
func Tokenize(text string) ([]Token, error) {
	lx := &lexer{src: text}
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

var punctuation = map[byte]TokenKind{
	'+': TokenPlus, '-': TokenMinus, '*': TokenStar, '/': TokenSlash,
	'>': TokenGreater, '<': TokenLess, '(': TokenLParen, ')': TokenRParen,
}

type lexer struct {
	src string
	pos int
}

func (lx *lexer) peekAt(i int) byte {
	if i < len(lx.src) {
		return lx.src[i]
	}
	return 0
}

func (lx *lexer) next() (Token, error) {
	for lx.pos < len(lx.src) && isSpace(lx.src[lx.pos]) {
		lx.pos++
	}
	start := lx.pos
	if start >= len(lx.src) {
		return Token{Kind: TokenEOF, Pos: start}, nil
	}

	c := lx.src[start]
	switch {
	case isDigit(c):
		digits := lx.readDigits()
		if lx.peekAt(lx.pos) == 'd' && isDigit(lx.peekAt(lx.pos+1)) {
			count, err := lx.atoi(digits, start)
			if err != nil {
				return Token{}, err
			}
			return lx.dice(start, count)
		}
		n, err := lx.atoi(digits, start)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenNumber, Pos: start, Text: digits, Value: n}, nil
	case c == 'd' && isDigit(lx.peekAt(start+1)):
		return lx.dice(start, 1)
	case (c == 's' || c == 'c') && isCompare(lx.peekAt(start+1)):
		return lx.check(start)
	}

	kind, ok := punctuation[c]
	if !ok {
		return Token{}, newParseError(lx.src, start, fmt.Sprintf("unexpected character %q", c))
	}
	lx.pos++
	if isCompare(c) && lx.peekAt(lx.pos) == '=' {
		return Token{}, newParseError(lx.src, start, "comparison operators with '=' are not supported")
	}
	return Token{Kind: kind, Pos: start, Text: string(c)}, nil
}

// dice lexes "d<sides><modifier text>" with the count already consumed.
func (lx *lexer) dice(start, count int) (Token, error) {
	lx.pos++ // 'd'
	sidesAt := lx.pos
	sides, err := lx.atoi(lx.readDigits(), sidesAt)
	if err != nil {
		return Token{}, err
	}
	if sides <= 0 {
		return Token{}, newParseError(lx.src, sidesAt, "die sides must be positive")
	}
	modsAt := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if (c == 's' || c == 'c') && isCompare(lx.peekAt(lx.pos+1)) {
			break
		}
		if !isLetter(c) && !isDigit(c) && c != '!' {
			break
		}
		lx.pos++
	}
	return Token{
		Kind:  TokenDice,
		Pos:   start,
		Text:  lx.src[start:lx.pos],
		Count: count,
		Sides: sides,
		Mods:  lx.src[modsAt:lx.pos],
	}, nil
}

// check lexes "s>N", "s<N", "c>N" or "c<N".
func (lx *lexer) check(start int) (Token, error) {
	kind := TokenSumCheck
	if lx.src[start] == 'c' {
		kind = TokenCountCheck
	}
	op := CompareOp(lx.src[start+1])
	lx.pos = start + 2
	if lx.peekAt(lx.pos) == '=' {
		return Token{}, newParseError(lx.src, start, "comparison operators with '=' are not supported")
	}
	digitsAt := lx.pos
	digits := lx.readDigits()
	if digits == "" {
		return Token{}, newParseError(lx.src, digitsAt, "threshold needs a number")
	}
	n, err := lx.atoi(digits, digitsAt)
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: kind, Pos: start, Text: lx.src[start:lx.pos], Op: op, Value: n}, nil
}

func (lx *lexer) readDigits() string {
	start := lx.pos
	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) atoi(digits string, at int) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, newParseError(lx.src, at, fmt.Sprintf("invalid number %q", digits))
	}
	return n, nil
}

func isDigit(c byte) bool   { return c >= '0' && c <= '9' }
func isLetter(c byte) bool  { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isSpace(c byte) bool   { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isCompare(c byte) bool { return c == '>' || c == '<' }
