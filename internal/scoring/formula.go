package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// EvalFormula evaluates a small arithmetic expression over named numeric
// variables. The grammar is deliberately tiny:
//
//	expr   := term  (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := number | ident | '-' factor | '(' expr ')'
//
// Numbers are decimal literals; identifiers resolve through vars and an
// unbound name is an error. There is no function call syntax and no access
// to anything outside the variable table.
func EvalFormula(expr string, vars map[string]float64) (float64, error) {
	p := &formulaParser{input: expr, vars: vars}
	p.skipSpace()
	if p.eof() {
		return 0, fmt.Errorf("empty formula")
	}
	result, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return result, nil
}

type formulaParser struct {
	input string
	pos   int
	vars  map[string]float64
}

func (p *formulaParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch {
		case p.accept('+'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case p.accept('-'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *formulaParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch {
		case p.accept('*'):
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.accept('/'):
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *formulaParser) parseFactor() (float64, error) {
	p.skipSpace()
	if p.eof() {
		return 0, fmt.Errorf("unexpected end of formula")
	}

	if p.accept('-') {
		v, err := p.parseFactor()
		return -v, err
	}
	if p.accept('(') {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if !p.accept(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	}

	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case isIdentStart(rune(c)):
		return p.parseIdent()
	}
	return 0, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
}

func (p *formulaParser) parseNumber() (float64, error) {
	start := p.pos
	for !p.eof() {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *formulaParser) parseIdent() (float64, error) {
	start := p.pos
	for !p.eof() && isIdentPart(rune(p.input[p.pos])) {
		p.pos++
	}
	name := p.input[start:p.pos]
	v, ok := p.vars[name]
	if !ok {
		return 0, fmt.Errorf("unknown variable %q", name)
	}
	return v, nil
}

func (p *formulaParser) accept(c byte) bool {
	if !p.eof() && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *formulaParser) skipSpace() {
	p.pos += len(p.input[p.pos:]) - len(strings.TrimLeft(p.input[p.pos:], " \t"))
}

func (p *formulaParser) eof() bool {
	return p.pos >= len(p.input)
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
