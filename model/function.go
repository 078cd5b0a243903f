package model

import (
	"slices"
)

// Functional is a declaration that can be invoked: a function or a class (through its
// initializer). Overloaded declarations come in sets, represented in their scope by every
// overload plus one abstraction placeholder standing for the whole set.
type Functional interface {
	Decl
	ParameterLists() []*ParameterList
	// IsAbstraction is true for the placeholder of an overload set
	IsAbstraction() bool
	// IsOverloaded is true for the members of an overload set, the abstraction excluded
	IsOverloaded() bool
	// Overloads is the overload set of an abstraction
	Overloads() []Decl

	fn() *functional
}

var (
	_ Functional = (*Function)(nil)
	_ Functional = (*Class)(nil)
)

type functional struct {
	parameterLists []*ParameterList
	abstraction    bool
	overloaded     bool
	overloads      []Decl
}

func (f *functional) fn() *functional                  { return f }
func (f *functional) ParameterLists() []*ParameterList { return slices.Clone(f.parameterLists) }
func (f *functional) IsAbstraction() bool              { return f.abstraction }
func (f *functional) IsOverloaded() bool               { return f.overloaded }
func (f *functional) Overloads() []Decl                { return slices.Clone(f.overloads) }

// AddParameterList appends a parameter list. Only the first one takes part in overload resolution.
func (f *functional) AddParameterList(pl *ParameterList) {
	f.parameterLists = append(f.parameterLists, pl)
}

func (f *functional) firstParameterList() *ParameterList {
	if len(f.parameterLists) == 0 {
		return nil
	}
	return f.parameterLists[0]
}

// Overload groups overloads, which must all be declared in container under the same name,
// into an overload set, and declares the abstraction standing for the set. The abstraction
// of a class set has the supertypes, type parameters and members of the first overload.
func (g *Graph) Overload(container Scope, overloads ...Functional) Functional {
	if len(overloads) == 0 {
		panic("an overload set needs at least one declaration")
	}
	first := overloads[0]
	var abstraction Functional
	switch first := first.(type) {
	case *Class:
		c := g.NewClass(container, first.Name(), first.Flags())
		c.extended = first.extended
		c.satisfied = slices.Clone(first.satisfied)
		c.cases = slices.Clone(first.cases)
		c.typeParams = slices.Clone(first.typeParams)
		for _, m := range first.Members() {
			c.addMember(m)
		}
		abstraction = c
	case *Function:
		f := g.NewFunction(container, first.Name(), first.Flags())
		f.typ = first.typ
		abstraction = f
	default:
		panic("cannot overload " + first.String())
	}
	a := abstraction.fn()
	a.abstraction = true
	for _, o := range overloads {
		o.fn().overloaded = true
		a.overloads = append(a.overloads, o)
	}
	logger.Debug("declared overload set", "name", first.QualifiedName(), "overloads", len(overloads))
	return abstraction
}

// Function is a method or a toplevel function. It is also the scope of its body.
type Function struct {
	declBase
	memberList
	functional
	typeParams []*TypeParameter
	typ        *ProducedType
}

func (g *Graph) NewFunction(container Scope, name string, flags Flags) *Function {
	f := &Function{}
	f.init(g, container, name, KindFunction, flags, f)
	if container != nil {
		container.addMember(f)
	}
	return f
}

// Type is the return type of the function
func (f *Function) Type() *ProducedType              { return f.typ }
func (f *Function) SetType(t *ProducedType)          { f.typ = t }
func (f *Function) TypeParameters() []*TypeParameter { return slices.Clone(f.typeParams) }

func (f *Function) addTypeParameter(tp *TypeParameter) {
	f.typeParams = append(f.typeParams, tp)
	f.graph.touch(f)
}

// Value is an attribute or a toplevel value
type Value struct {
	declBase
	typ *ProducedType
}

func (g *Graph) NewValue(container Scope, name string, flags Flags, t *ProducedType) *Value {
	v := &Value{typ: t}
	v.init(g, container, name, KindValue, flags, v)
	if container != nil {
		container.addMember(v)
	}
	return v
}

func (v *Value) Type() *ProducedType     { return v.typ }
func (v *Value) SetType(t *ProducedType) { v.typ = t }

// Parameter is one parameter of a ParameterList. For a sequenced (variadic) parameter
// Type is the type of a single element.
type Parameter struct {
	Name      string
	Type      *ProducedType
	Defaulted bool
	Sequenced bool
}

type ParameterList struct {
	Params              []*Parameter
	NamedSupported      bool
	PositionalSupported bool
}

// NewParameterList returns a list supporting both named and positional arguments
func NewParameterList(params ...*Parameter) *ParameterList {
	return &ParameterList{Params: params, NamedSupported: true, PositionalSupported: true}
}

// HasSequenced reports whether the last parameter is sequenced
func (pl *ParameterList) HasSequenced() bool {
	return len(pl.Params) > 0 && pl.Params[len(pl.Params)-1].Sequenced
}

// Types returns the parameter types, in order
func (pl *ParameterList) Types() []*ProducedType {
	ts := make([]*ProducedType, len(pl.Params))
	for i, p := range pl.Params {
		ts[i] = p.Type
	}
	return ts
}
