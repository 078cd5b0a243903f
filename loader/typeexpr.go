package loader

import (
	"fmt"
	"strings"
	"text/scanner"

	"github.com/cottand/typegraph/typerr"
)

// typeExpr is the syntax tree of a type expression:
//
//	union        = intersection { "|" intersection }
//	intersection = postfix { "&" postfix }
//	postfix      = primary [ "?" ]
//	primary      = "(" union ")" | name { "." name }
//	name         = ident [ "<" union { "," union } ">" ]
//
// T? is short for T|Null.
type typeExpr interface {
	String() string
	// column is the 1-based offset of the expression inside its source text
	column() int
}

type namePart struct {
	name string
	args []typeExpr
	col  int
}

// qualifiedName is Outer<X>.Inner<Y>
type qualifiedName struct {
	parts []namePart
}

type unionExpr struct {
	cases []typeExpr
}

type intersectionExpr struct {
	members []typeExpr
}

type optionalExpr struct {
	inner typeExpr
}

func (q *qualifiedName) column() int    { return q.parts[0].col }
func (u *unionExpr) column() int        { return u.cases[0].column() }
func (i *intersectionExpr) column() int { return i.members[0].column() }
func (o *optionalExpr) column() int     { return o.inner.column() }

func (q *qualifiedName) String() string {
	parts := make([]string, len(q.parts))
	for i, p := range q.parts {
		parts[i] = p.name
		if len(p.args) > 0 {
			args := make([]string, len(p.args))
			for j, a := range p.args {
				args[j] = a.String()
			}
			parts[i] += "<" + strings.Join(args, ", ") + ">"
		}
	}
	return strings.Join(parts, ".")
}

func (u *unionExpr) String() string        { return joinExprs(u.cases, "|") }
func (i *intersectionExpr) String() string { return joinExprs(i.members, "&") }
func (o *optionalExpr) String() string     { return grouped(o.inner) + "?" }

func joinExprs(es []typeExpr, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = grouped(e)
	}
	return strings.Join(parts, sep)
}

// grouped parenthesizes e when it binds looser than an intersection
func grouped(e typeExpr) string {
	if _, ok := e.(*unionExpr); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

type exprParser struct {
	s    scanner.Scanner
	tok  rune
	src  string
	pos  typerr.Pos
	errs []string
	// errCol is the column of the first error
	errCol int
}

// parseTypeExpr parses src, written at pos. Columns in the returned error are relative to pos.
func parseTypeExpr(src string, pos typerr.Pos) (typeExpr, error) {
	p := &exprParser{src: src, pos: pos}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents
	p.s.Error = func(s *scanner.Scanner, msg string) { p.fail(s.Position.Column, msg) }
	p.next()

	if p.tok == scanner.EOF {
		return nil, p.malformed(1, "empty type expression")
	}
	e := p.union()
	if p.tok != scanner.EOF && len(p.errs) == 0 {
		p.fail(p.s.Position.Column, fmt.Sprintf("unexpected %s", scanner.TokenString(p.tok)))
	}
	if len(p.errs) > 0 {
		return nil, p.malformed(p.errCol, p.errs[0])
	}
	return e, nil
}

func (p *exprParser) next() {
	p.tok = p.s.Scan()
}

func (p *exprParser) fail(col int, msg string) {
	if len(p.errs) == 0 {
		p.errCol = col
	}
	p.errs = append(p.errs, msg)
}

func (p *exprParser) malformed(col int, reason string) error {
	pos := p.pos
	if pos.IsValid() {
		pos.Column += col - 1
	}
	return typerr.New(typerr.MalformedType{Pos: pos, Expression: p.src, Reason: reason})
}

func (p *exprParser) expect(tok rune) bool {
	if p.tok != tok {
		p.fail(p.s.Position.Column, fmt.Sprintf("expected %s, found %s", scanner.TokenString(tok), scanner.TokenString(p.tok)))
		return false
	}
	p.next()
	return true
}

func (p *exprParser) union() typeExpr {
	first := p.intersection()
	if p.tok != '|' {
		return first
	}
	u := &unionExpr{cases: []typeExpr{first}}
	for p.tok == '|' && len(p.errs) == 0 {
		p.next()
		u.cases = append(u.cases, p.intersection())
	}
	return u
}

func (p *exprParser) intersection() typeExpr {
	first := p.postfix()
	if p.tok != '&' {
		return first
	}
	i := &intersectionExpr{members: []typeExpr{first}}
	for p.tok == '&' && len(p.errs) == 0 {
		p.next()
		i.members = append(i.members, p.postfix())
	}
	return i
}

func (p *exprParser) postfix() typeExpr {
	e := p.primary()
	for p.tok == '?' && len(p.errs) == 0 {
		p.next()
		e = &optionalExpr{inner: e}
	}
	return e
}

func (p *exprParser) primary() typeExpr {
	if p.tok == '(' {
		p.next()
		e := p.union()
		p.expect(')')
		return e
	}
	q := &qualifiedName{parts: []namePart{p.name()}}
	for p.tok == '.' && len(p.errs) == 0 {
		p.next()
		q.parts = append(q.parts, p.name())
	}
	return q
}

func (p *exprParser) name() namePart {
	part := namePart{col: p.s.Position.Column}
	if p.tok != scanner.Ident {
		p.fail(p.s.Position.Column, fmt.Sprintf("expected a type name, found %s", scanner.TokenString(p.tok)))
		return part
	}
	part.name = p.s.TokenText()
	p.next()
	if p.tok != '<' {
		return part
	}
	p.next()
	part.args = append(part.args, p.union())
	for p.tok == ',' && len(p.errs) == 0 {
		p.next()
		part.args = append(part.args, p.union())
	}
	p.expect('>')
	return part
}
