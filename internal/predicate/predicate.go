// Package predicate implements the compiled boolean expression tree that is
// evaluated against every traversed entry.
//
// A Predicate is built once (patterns compile at construction, never per
// entry), is immutable, and is safe for concurrent evaluation. And/Or
// short-circuit left to right so that cheap name tests can spare the stat
// cost of size tests.
package predicate

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"

	"github.com/harrison/bfind/internal/entry"
)

// Comparison is the operator of a size test.
type Comparison int

const (
	// CmpGt matches sizes strictly greater than the literal.
	CmpGt Comparison = iota
	// CmpLt matches sizes strictly less than the literal.
	CmpLt
	// CmpEq matches sizes equal to the literal.
	CmpEq
)

func (c Comparison) String() string {
	switch c {
	case CmpGt:
		return "gt"
	case CmpLt:
		return "lt"
	default:
		return "eq"
	}
}

// PatternError reports an invalid glob or regular-expression literal. It is
// a construction-time failure: a Predicate containing a bad pattern is never
// built, so evaluation cannot encounter one.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

type kind int

const (
	kindTest kind = iota
	kindAnd
	kindOr
	kindNot
	kindTrue
)

// Predicate is a node of the compiled expression tree. Combinator nodes hold
// children; test nodes hold exactly one compiled test function.
type Predicate struct {
	kind kind
	lhs  *Predicate
	rhs  *Predicate
	test func(*entry.Entry) bool
}

// True returns the predicate that matches every entry; used when no
// expression is supplied.
func True() *Predicate {
	return &Predicate{kind: kindTrue}
}

// And combines two predicates; rhs is evaluated only if lhs holds.
func And(lhs, rhs *Predicate) *Predicate {
	return &Predicate{kind: kindAnd, lhs: lhs, rhs: rhs}
}

// Or combines two predicates; rhs is evaluated only if lhs fails.
func Or(lhs, rhs *Predicate) *Predicate {
	return &Predicate{kind: kindOr, lhs: lhs, rhs: rhs}
}

// Not negates a predicate.
func Not(inner *Predicate) *Predicate {
	return &Predicate{kind: kindNot, lhs: inner}
}

// NameGlob builds a shell-style wildcard test against the entry name.
// The pattern compiles here; an invalid pattern returns a PatternError.
func NameGlob(pattern string) (*Predicate, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return &Predicate{kind: kindTest, test: func(e *entry.Entry) bool {
		return g.Match(e.Name)
	}}, nil
}

// NameMatch builds a regular-expression search against the entry name.
func NameMatch(pattern string) (*Predicate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return &Predicate{kind: kindTest, test: func(e *entry.Entry) bool {
		return re.MatchString(e.Name)
	}}, nil
}

// TypeIs builds a kind equality test. It never touches metadata: the kind is
// known from the directory listing.
func TypeIs(k entry.Kind) *Predicate {
	return &Predicate{kind: kindTest, test: func(e *entry.Entry) bool {
		return e.Kind == k
	}}
}

// Size builds a byte-size comparison. Size tests are file-only: they are
// false for directories, symlinks and other node kinds without resolving
// metadata, and false for entries whose metadata cannot be resolved.
func Size(cmp Comparison, bytes int64) *Predicate {
	return &Predicate{kind: kindTest, test: func(e *entry.Entry) bool {
		if e.Kind != entry.KindFile {
			return false
		}
		meta, err := e.Metadata()
		if err != nil {
			return false
		}
		switch cmp {
		case CmpGt:
			return meta.Size > bytes
		case CmpLt:
			return meta.Size < bytes
		default:
			return meta.Size == bytes
		}
	}}
}

// Eval evaluates the predicate against one entry. It is total: metadata
// failures surface as a false test, never as an error. The only observable
// side effect is the entry's one-time metadata resolution.
func (p *Predicate) Eval(e *entry.Entry) bool {
	switch p.kind {
	case kindTrue:
		return true
	case kindTest:
		return p.test(e)
	case kindAnd:
		return p.lhs.Eval(e) && p.rhs.Eval(e)
	case kindOr:
		return p.lhs.Eval(e) || p.rhs.Eval(e)
	case kindNot:
		return !p.lhs.Eval(e)
	default:
		return false
	}
}
