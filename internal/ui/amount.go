package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/SimonSchneider/goslu/static/shttp"
)

// ParseAmount parses a number or an arithmetic expression. Operands may be
// percentages ("5%"), "inf", or parenthesised sub-expressions; operators are
// + - * / and ^ (right associative, binding tighter than unary minus).
// Scientific notation (1e-10) is a single number.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if f, err := shttp.ParseFloat(s); err == nil {
		if math.IsNaN(f) {
			return 0, fmt.Errorf("invalid amount: %q", s)
		}
		return f, nil
	}
	e := &expr{src: s}
	v, err := e.sum()
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if e.skip(); e.pos < len(e.src) {
		return 0, fmt.Errorf("invalid amount %q: unexpected %q at position %d", s, e.src[e.pos:], e.pos)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("invalid amount %q: not a number", s)
	}
	return v, nil
}

// expr is a recursive-descent evaluator over src.
type expr struct {
	src string
	pos int
}

func (e *expr) skip() {
	for e.pos < len(e.src) && (e.src[e.pos] == ' ' || e.src[e.pos] == '\t') {
		e.pos++
	}
}

// eat consumes c if it is the next non-blank byte.
func (e *expr) eat(c byte) bool {
	e.skip()
	if e.pos < len(e.src) && e.src[e.pos] == c {
		e.pos++
		return true
	}
	return false
}

func (e *expr) sum() (float64, error) {
	v, err := e.product()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case e.eat('+'):
			rhs, err := e.product()
			if err != nil {
				return 0, err
			}
			v += rhs
		case e.eat('-'):
			rhs, err := e.product()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (e *expr) product() (float64, error) {
	v, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case e.eat('*'):
			rhs, err := e.unary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case e.eat('/'):
			rhs, err := e.unary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (e *expr) unary() (float64, error) {
	if e.eat('-') {
		v, err := e.unary()
		return -v, err
	}
	return e.power()
}

func (e *expr) power() (float64, error) {
	base, err := e.postfix()
	if err != nil {
		return 0, err
	}
	if !e.eat('^') {
		return base, nil
	}
	exp, err := e.unary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (e *expr) postfix() (float64, error) {
	v, err := e.atom()
	if err != nil {
		return 0, err
	}
	for e.eat('%') {
		v /= 100
	}
	return v, nil
}

func (e *expr) atom() (float64, error) {
	if e.eat('(') {
		v, err := e.sum()
		if err != nil {
			return 0, err
		}
		if !e.eat(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	}
	e.skip()
	if rest := e.src[e.pos:]; len(rest) >= 3 && strings.EqualFold(rest[:3], "inf") {
		e.pos += 3
		return math.Inf(1), nil
	}
	return e.number()
}

func (e *expr) number() (float64, error) {
	start := e.pos
	for e.pos < len(e.src) && (isDigit(e.src[e.pos]) || e.src[e.pos] == '.') {
		e.pos++
	}
	if e.pos == start {
		if e.pos >= len(e.src) {
			return 0, fmt.Errorf("unexpected end of expression")
		}
		return 0, fmt.Errorf("unexpected %q at position %d", e.src[e.pos], e.pos)
	}
	if e.pos < len(e.src) && (e.src[e.pos] == 'e' || e.src[e.pos] == 'E') {
		next := e.pos + 1
		if next < len(e.src) && (e.src[next] == '+' || e.src[next] == '-') {
			next++
		}
		if next < len(e.src) && isDigit(e.src[next]) {
			e.pos = next
			for e.pos < len(e.src) && isDigit(e.src[e.pos]) {
				e.pos++
			}
		}
	}
	f, err := shttp.ParseFloat(e.src[start:e.pos])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", e.src[start:e.pos], err)
	}
	return f, nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
