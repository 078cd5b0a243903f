package loader

import (
	"fmt"

	"github.com/cottand/typegraph/model"
	"github.com/cottand/typegraph/typerr"
)

// headerPhase resolves what declarations inherit and how their type parameters are bounded.
// Canonical unions and intersections depend on inheritance, so the headers are resolved a
// second time once every declaration has its supertypes, and only the errors of the first
// pass are kept.
func (l *loader) headerPhase() *typerr.Errors {
	var errs *typerr.Errors
	for _, u := range l.units {
		for _, p := range u.pending {
			errs = errs.Merge(l.resolveHeader(p))
		}
	}
	for _, u := range l.units {
		for _, p := range u.pending {
			l.resolveHeader(p)
		}
	}
	return errs
}

// signaturePhase resolves parameter, return and value types, against a graph whose
// inheritance is complete
func (l *loader) signaturePhase() *typerr.Errors {
	var errs *typerr.Errors
	for _, u := range l.units {
		for _, p := range u.pending {
			errs = errs.Merge(l.resolveSignature(p))
		}
	}
	return errs
}

// checker collects the errors found while resolving the expressions of one declaration
type checker struct {
	l    *loader
	p    *pending
	errs *typerr.Errors
}

func (c *checker) typeOf(e Expr) *model.ProducedType {
	t, es := c.l.resolve(c.p.scope, c.p.unit, e)
	c.errs = c.errs.Merge(es)
	return t
}

func (c *checker) typesOf(es []Expr) []*model.ProducedType {
	var ts []*model.ProducedType
	for _, e := range es {
		if t := c.typeOf(e); t != nil {
			ts = append(ts, t)
		}
	}
	return ts
}

func (c *checker) invalid(format string, args ...any) {
	c.errs = c.errs.With(typerr.New(typerr.InvalidDescription{Pos: c.l.at(c.p.desc.Pos), Reason: fmt.Sprintf(format, args...)}))
}

func (l *loader) resolveHeader(p *pending) *typerr.Errors {
	d := p.desc
	c := &checker{l: l, p: p}

	for i, tp := range p.tps {
		tpd := d.TypeParameters[i]
		if bounds := c.typesOf(tpd.Satisfies); len(bounds) > 0 {
			tp.SetBounds(bounds...)
		}
		if cases := c.typesOf(tpd.Of); len(cases) > 0 {
			tp.SetCaseTypes(cases...)
		}
		if tpd.Default != nil {
			if t := c.typeOf(*tpd.Default); t != nil {
				tp.SetDefaultTypeArgument(t)
			}
		}
	}

	switch decl := p.decl.(type) {
	case *model.Class:
		if d.Extends != nil {
			if t := c.typeOf(*d.Extends); t != nil {
				if ext, ok := t.Decl().(*model.Class); !ok {
					c.invalid("class %s can only extend a class, not %s", decl.Name(), t)
				} else if ext.IsFinal() {
					c.invalid("class %s cannot extend final class %s", decl.Name(), ext.Name())
				} else {
					decl.SetExtendedType(t)
				}
			}
		}
		var satisfied []*model.ProducedType
		for _, t := range c.typesOf(d.Satisfies) {
			if _, ok := t.Decl().(*model.Interface); !ok {
				c.invalid("class %s can only satisfy interfaces, not %s", decl.Name(), t)
				continue
			}
			satisfied = append(satisfied, t)
		}
		if len(satisfied) > 0 {
			decl.SetSatisfiedTypes(satisfied...)
		}
		if cases := c.typesOf(d.Of); len(cases) > 0 {
			decl.SetCaseTypes(cases...)
		}

	case *model.Interface:
		if d.Extends != nil {
			c.invalid("interface %s cannot extend a class, use satisfies", decl.Name())
		}
		var satisfied []*model.ProducedType
		for _, t := range c.typesOf(d.Satisfies) {
			if _, ok := t.Decl().(*model.Interface); !ok {
				c.invalid("interface %s can only satisfy interfaces, not %s", decl.Name(), t)
				continue
			}
			satisfied = append(satisfied, t)
		}
		if len(satisfied) > 0 {
			decl.SetSatisfiedTypes(satisfied...)
		}
		if cases := c.typesOf(d.Of); len(cases) > 0 {
			decl.SetCaseTypes(cases...)
		}
	}
	return c.errs
}

func (l *loader) resolveSignature(p *pending) *typerr.Errors {
	d := p.desc
	c := &checker{l: l, p: p}

	switch decl := p.decl.(type) {
	case *model.Class:
		if d.Type != nil {
			c.invalid("class %s has no type, its supertypes are given by extends and satisfies", decl.Name())
		}
		decl.AddParameterList(c.parameters())

	case *model.Interface:
		if len(d.Parameters) > 0 {
			c.invalid("interface %s cannot have parameters", decl.Name())
		}

	case *model.Function:
		if d.Extends != nil || len(d.Satisfies) > 0 || len(d.Of) > 0 {
			c.invalid("function %s cannot have supertypes or cases", decl.Name())
		}
		returnType := l.g.Anything()
		if d.Type != nil {
			returnType = c.typeOf(*d.Type)
			if returnType == nil {
				returnType = l.g.Unknown()
			}
		}
		decl.SetType(returnType)
		decl.AddParameterList(c.parameters())

	case *model.Value:
		if d.Extends != nil || len(d.Satisfies) > 0 || len(d.Of) > 0 || len(d.Parameters) > 0 {
			c.invalid("value %s can only have a type", decl.Name())
		}
		if d.Type == nil {
			c.invalid("value %s needs a type", decl.Name())
			decl.SetType(l.g.Unknown())
			break
		}
		t := c.typeOf(*d.Type)
		if t == nil {
			t = l.g.Unknown()
		}
		decl.SetType(t)
	}
	return c.errs
}

func (c *checker) parameters() *model.ParameterList {
	descs := c.p.desc.Parameters
	params := make([]*model.Parameter, 0, len(descs))
	for i, pd := range descs {
		var t *model.ProducedType
		if pd.Type.Text == "" {
			c.invalid("parameter %s of %s needs a type", pd.Name, c.p.decl.Name())
		} else {
			t = c.typeOf(pd.Type)
		}
		if t == nil {
			t = c.l.g.Unknown()
		}
		if pd.Sequenced && i != len(descs)-1 {
			c.invalid("sequenced parameter %s of %s must be the last one", pd.Name, c.p.decl.Name())
		}
		params = append(params, &model.Parameter{Name: pd.Name, Type: t, Defaulted: pd.Defaulted, Sequenced: pd.Sequenced})
	}
	return model.NewParameterList(params...)
}

// resolve parses e and binds its names, looking them up from scope outwards and then in
// the packages imported by u
func (l *loader) resolve(scope model.Scope, u *unit, e Expr) (*model.ProducedType, *typerr.Errors) {
	te, err := parseTypeExpr(e.Text, e.Pos)
	if err != nil {
		return nil, (&typerr.Errors{}).With(withFile(err.(typerr.TypeError), l.file))
	}
	r := &resolver{l: l, scope: scope, unit: u, expr: e}
	t := r.build(te)
	if r.errs.HasError() {
		return nil, r.errs
	}
	return t, nil
}

type resolver struct {
	l     *loader
	scope model.Scope
	unit  *unit
	expr  Expr
	errs  *typerr.Errors
}

func (r *resolver) pos(col int) typerr.Pos {
	p := r.expr.Pos
	if p.IsValid() {
		p.Column += col - 1
	}
	return r.l.at(p)
}

func (r *resolver) buildAll(es []typeExpr) []*model.ProducedType {
	ts := make([]*model.ProducedType, 0, len(es))
	for _, e := range es {
		if t := r.build(e); t != nil {
			ts = append(ts, t)
		}
	}
	return ts
}

func (r *resolver) build(te typeExpr) *model.ProducedType {
	g := r.l.g
	switch te := te.(type) {
	case *unionExpr:
		return g.Union(r.buildAll(te.cases)...)
	case *intersectionExpr:
		return g.Intersection(r.buildAll(te.members)...)
	case *optionalExpr:
		inner := r.build(te.inner)
		if inner == nil {
			return nil
		}
		return g.Union(inner, g.Null())
	case *qualifiedName:
		return r.qualified(te)
	}
	panic(fmt.Sprintf("unexpected type expression %T", te))
}

func (r *resolver) qualified(q *qualifiedName) *model.ProducedType {
	first := q.parts[0]
	td := r.lookupType(first.name)
	if td == nil {
		r.errs = r.errs.With(typerr.New(typerr.UnknownDeclaration{Pos: r.pos(first.col), Name: first.name}))
		return nil
	}
	var qualifying *model.ProducedType
	if outer, ok := td.Container().(model.TypeDecl); ok && td.Kind() != model.KindTypeParameter {
		qualifying = outer.Type()
	}
	t := r.produce(td, qualifying, first)
	for _, part := range q.parts[1:] {
		if t == nil {
			return nil
		}
		m, _ := t.Decl().Member(part.name, nil, false)
		nested, ok := m.(model.TypeDecl)
		if !ok || nested.Kind() == model.KindTypeParameter {
			r.errs = r.errs.With(typerr.New(typerr.UnknownDeclaration{Pos: r.pos(part.col), Name: t.String() + "." + part.name}))
			return nil
		}
		t = r.produce(model.TypeDeclaration(nested), t, part)
	}
	return t
}

func (r *resolver) produce(td model.TypeDecl, qualifying *model.ProducedType, part namePart) *model.ProducedType {
	args := r.buildAll(part.args)
	if len(args) != len(part.args) {
		return nil
	}
	if len(args) > len(td.TypeParameters()) {
		r.errs = r.errs.With(typerr.New(typerr.MalformedType{
			Pos:        r.pos(part.col),
			Expression: r.expr.Text,
			Reason:     fmt.Sprintf("%s takes %d type arguments, not %d", td.Name(), len(td.TypeParameters()), len(args)),
		}))
		return nil
	}
	return td.ProducedType(qualifying, args)
}

// lookupType finds the type declaration called name visible from the scope, or in an
// imported package
func (r *resolver) lookupType(name string) model.TypeDecl {
	d, _ := model.Resolve(r.scope, name, nil, false)
	if td, ok := d.(model.TypeDecl); ok {
		return model.TypeDeclaration(td)
	}
	if r.unit == nil {
		return nil
	}
	for _, p := range r.unit.imports {
		if td, ok := model.LookupMember(p.Members(), name, nil, false).(model.TypeDecl); ok {
			return model.TypeDeclaration(td)
		}
	}
	return nil
}

// inheriting is a class or an interface
type inheriting interface {
	model.TypeDecl
	SetExtendedType(t *model.ProducedType)
	SetSatisfiedTypes(ts ...*model.ProducedType)
}

// cyclePhase reports inheritance cycles and breaks each of them at the edge closing it,
// so that the rest of the graph can still be queried
func (l *loader) cyclePhase() *typerr.Errors {
	var errs *typerr.Errors
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[model.DeclID]int)
	positions := make(map[model.DeclID]typerr.Pos)

	var visit func(d inheriting, path []model.TypeDecl)
	visit = func(d inheriting, path []model.TypeDecl) {
		state[d.ID()] = visiting
		path = append(path, d)

		edge := func(super *model.ProducedType) bool {
			s, ok := super.Decl().(inheriting)
			if !ok {
				return true
			}
			switch state[s.ID()] {
			case visiting:
				var names []string
				for i := len(path) - 1; i >= 0; i-- {
					if path[i].ID() == s.ID() {
						for _, n := range path[i:] {
							names = append(names, n.Name())
						}
						break
					}
				}
				names = append(names, s.Name())
				errs = errs.With(typerr.New(typerr.InheritanceCycle{Pos: positions[d.ID()], Names: names}))
				return false
			case unvisited:
				visit(s, path)
			}
			return true
		}

		if ext := d.ExtendedType(); ext != nil && !edge(ext) {
			d.SetExtendedType(l.g.Object())
		}
		satisfied := d.SatisfiedTypes()
		kept := satisfied[:0]
		for _, st := range satisfied {
			if edge(st) {
				kept = append(kept, st)
			}
		}
		if len(kept) != len(satisfied) {
			d.SetSatisfiedTypes(kept...)
		}
		state[d.ID()] = visited
	}

	var roots []inheriting
	for _, u := range l.units {
		for _, p := range u.pending {
			if d, ok := p.decl.(inheriting); ok {
				roots = append(roots, d)
				positions[d.ID()] = l.at(p.desc.Pos)
			}
		}
	}
	for _, d := range roots {
		if state[d.ID()] == unvisited {
			visit(d, nil)
		}
	}
	return errs
}
