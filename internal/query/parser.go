// Package query compiles the expression tokens given after "--" on the
// command line into a predicate tree.
//
// Grammar (tokens are whole argv words, already split by the shell):
//
//	expr  := or
//	or    := and ("or" and)*
//	and   := unary ("and" unary)*
//	unary := "not" unary | "(" expr ")" | test
//	test  := "name" ("glob" | "match") PATTERN
//	       | "type" "is" ("file" | "f" | "dir" | "d" | "symlink" | "l" | "other")
//	       | "size" ("gt" | "lt" | "eq") BYTES
//
// "not" binds tightest, then "and", then "or"; both combinators are
// left-associative. BYTES accepts plain integers and human-readable units
// such as 4096, 2kB or 1MiB.
package query

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/harrison/bfind/internal/entry"
	"github.com/harrison/bfind/internal/predicate"
)

// Parse compiles expression tokens into a predicate. Empty input yields the
// match-everything predicate. All failures (unknown attribute or operator,
// bad pattern, bad size literal, trailing tokens) are returned here, before
// any traversal starts.
func Parse(tokens []string) (*predicate.Predicate, error) {
	if len(tokens) == 0 {
		return predicate.True(), nil
	}
	p := &parser{tokens: tokens}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected token %q after complete expression", p.peek())
	}
	return pred, nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() (string, error) {
	if p.done() {
		return "", fmt.Errorf("unexpected end of expression")
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *parser) accept(word string) bool {
	if !p.done() && p.tokens[p.pos] == word {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (*predicate.Predicate, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("or") {
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = predicate.Or(lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) parseAnd() (*predicate.Predicate, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept("and") {
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = predicate.And(lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) parseUnary() (*predicate.Predicate, error) {
	if p.accept("not") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return predicate.Not(inner), nil
	}
	if p.accept("(") {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	}
	return p.parseTest()
}

func (p *parser) parseTest() (*predicate.Predicate, error) {
	attr, err := p.next()
	if err != nil {
		return nil, err
	}
	switch attr {
	case "name":
		op, err := p.next()
		if err != nil {
			return nil, err
		}
		pattern, err := p.next()
		if err != nil {
			return nil, err
		}
		switch op {
		case "glob":
			return predicate.NameGlob(pattern)
		case "match":
			return predicate.NameMatch(pattern)
		default:
			return nil, fmt.Errorf("unknown name operator %q (want glob or match)", op)
		}

	case "type":
		op, err := p.next()
		if err != nil {
			return nil, err
		}
		if op != "is" {
			return nil, fmt.Errorf("unknown type operator %q (want is)", op)
		}
		lit, err := p.next()
		if err != nil {
			return nil, err
		}
		kind, err := parseKind(lit)
		if err != nil {
			return nil, err
		}
		return predicate.TypeIs(kind), nil

	case "size":
		op, err := p.next()
		if err != nil {
			return nil, err
		}
		var cmp predicate.Comparison
		switch op {
		case "gt":
			cmp = predicate.CmpGt
		case "lt":
			cmp = predicate.CmpLt
		case "eq":
			cmp = predicate.CmpEq
		default:
			return nil, fmt.Errorf("unknown size operator %q (want gt, lt or eq)", op)
		}
		lit, err := p.next()
		if err != nil {
			return nil, err
		}
		bytes, err := humanize.ParseBytes(lit)
		if err != nil {
			return nil, fmt.Errorf("invalid size literal %q: %w", lit, err)
		}
		return predicate.Size(cmp, int64(bytes)), nil

	default:
		return nil, fmt.Errorf("unknown attribute %q (want name, type or size)", attr)
	}
}

func parseKind(lit string) (entry.Kind, error) {
	switch lit {
	case "file", "f":
		return entry.KindFile, nil
	case "dir", "d":
		return entry.KindDir, nil
	case "symlink", "l":
		return entry.KindSymlink, nil
	case "other":
		return entry.KindOther, nil
	default:
		return 0, fmt.Errorf("unknown type %q (want file, dir, symlink or other)", lit)
	}
}
