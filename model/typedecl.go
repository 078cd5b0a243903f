package model

import (
	"slices"
	"sync"
)

// TypeDecl is a type constructor. The set of implementations is closed:
// *Class, *Interface, *TypeParameter, *UnionType, *IntersectionType,
// *NothingType, *BottomType and *UnknownType.
type TypeDecl interface {
	Decl
	Scope
	ExtendedType() *ProducedType
	SatisfiedTypes() []*ProducedType
	// CaseTypes is non-empty for enumerated (closed) types, and holds the members of a union
	CaseTypes() []*ProducedType
	TypeParameters() []*TypeParameter
	// SupertypeDeclarations is the flattened, deduplicated list of every ancestor declaration,
	// ordered by handle
	SupertypeDeclarations() []TypeDecl
	Inherits(other TypeDecl) bool
	// Type is the type of the declaration seen from inside its own body,
	// with every type parameter bound to itself
	Type() *ProducedType
	// ProducedType binds args positionally to the type parameters of the declaration.
	// A shorter list leaves the trailing parameters unbound, to be filled by defaults.
	ProducedType(qualifying *ProducedType, args []*ProducedType) *ProducedType
	Member(name string, signature []*ProducedType, spread bool) (Decl, Resolution)

	isTypeDecl()
}

var (
	_ TypeDecl = (*Class)(nil)
	_ TypeDecl = (*Interface)(nil)
	_ TypeDecl = (*TypeParameter)(nil)
	_ TypeDecl = (*UnionType)(nil)
	_ TypeDecl = (*IntersectionType)(nil)
	_ TypeDecl = (*NothingType)(nil)
	_ TypeDecl = (*BottomType)(nil)
	_ TypeDecl = (*UnknownType)(nil)
)

type Variance uint8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	default:
		return ""
	}
}

// typeParameterized is implemented by declarations that can own type parameters
type typeParameterized interface {
	Decl
	addTypeParameter(tp *TypeParameter)
}

// selfTypeCache holds the self type of a declaration, valid for as long as neither the
// declaration's generation nor its outer declaration's self type change
type selfTypeCache struct {
	mu         sync.Mutex
	t          *ProducedType
	generation uint64
}

func (c *selfTypeCache) get(d TypeDecl) *ProducedType {
	var outer *ProducedType
	if outerDecl, ok := d.Container().(TypeDecl); ok {
		outer = outerDecl.Type()
	}
	gen := d.base().generation.Load()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t != nil && c.generation == gen && c.t.qualifying == outer {
		return c.t
	}
	args := NewTypeArgs()
	for _, tp := range d.TypeParameters() {
		args = args.With(tp, tp.Type())
	}
	c.t = newProducedType(d, outer, args)
	c.generation = gen
	return c.t
}

// nominal holds what classes and interfaces have in common
type nominal struct {
	declBase
	memberList
	extended   *ProducedType
	satisfied  []*ProducedType
	cases      []*ProducedType
	typeParams []*TypeParameter
	selfType   selfTypeCache
}

func (n *nominal) isTypeDecl()        {}
func (n *nominal) typeDecl() TypeDecl { return n.self.(TypeDecl) }

func (n *nominal) ExtendedType() *ProducedType      { return n.extended }
func (n *nominal) SatisfiedTypes() []*ProducedType  { return slices.Clone(n.satisfied) }
func (n *nominal) CaseTypes() []*ProducedType       { return slices.Clone(n.cases) }
func (n *nominal) TypeParameters() []*TypeParameter { return slices.Clone(n.typeParams) }
func (n *nominal) Type() *ProducedType              { return n.selfType.get(n.typeDecl()) }

func (n *nominal) ProducedType(qualifying *ProducedType, args []*ProducedType) *ProducedType {
	return bindPositionally(n.typeDecl(), qualifying, args)
}

func (n *nominal) SupertypeDeclarations() []TypeDecl { return supertypeDeclarations(n.typeDecl()) }
func (n *nominal) Inherits(other TypeDecl) bool      { return inheritsDecl(n.typeDecl(), other) }

func (n *nominal) Member(name string, signature []*ProducedType, spread bool) (Decl, Resolution) {
	return memberOf(n.typeDecl(), name, signature, spread)
}

func (n *nominal) SetExtendedType(t *ProducedType) {
	n.extended = t
	n.graph.touch(n.self)
}

func (n *nominal) SetSatisfiedTypes(ts ...*ProducedType) {
	n.satisfied = slices.Clone(ts)
	n.graph.touch(n.self)
}

func (n *nominal) SetCaseTypes(ts ...*ProducedType) {
	n.cases = slices.Clone(ts)
	n.graph.touch(n.self)
}

func (n *nominal) addTypeParameter(tp *TypeParameter) {
	n.typeParams = append(n.typeParams, tp)
	n.graph.touch(n.self)
}

// IsFinal reports whether the declaration can have no subtypes other than itself
func (n *nominal) IsFinal() bool {
	return n.Is(Final) || n.Is(Anonymous)
}

type Class struct {
	nominal
	functional
}

// NewClass declares a class inside container. Classes extend Object unless told otherwise.
func (g *Graph) NewClass(container Scope, name string, flags Flags) *Class {
	c := &Class{}
	c.init(g, container, name, KindClass, flags, c)
	if g.object != nil {
		c.extended = g.object.Type()
	}
	if container != nil {
		container.addMember(c)
	}
	return c
}

type Interface struct {
	nominal
}

// NewInterface declares an interface inside container. Interfaces always have Object as
// their extended type, so that they are disjoint from Null.
func (g *Graph) NewInterface(container Scope, name string, flags Flags) *Interface {
	i := &Interface{}
	i.init(g, container, name, KindInterface, flags, i)
	if g.object != nil {
		i.extended = g.object.Type()
	}
	if container != nil {
		container.addMember(i)
	}
	return i
}

// noMembers is embedded by type declarations that cannot own members
type noMembers struct{}

func (noMembers) Members() []Decl                                 { return nil }
func (noMembers) DirectMember(string, []*ProducedType, bool) Decl { return nil }
func (noMembers) addMember(Decl)                                  {}

type TypeParameter struct {
	declBase
	noMembers
	variance    Variance
	declaration Decl
	defaultArg  *ProducedType
	bounds      []*ProducedType
	cases       []*ProducedType
	params      *ParameterList
	selfType    *ProducedType
}

// NewTypeParameter appends a type parameter to declaration, which must be a class,
// interface or function
func (g *Graph) NewTypeParameter(declaration Decl, name string, variance Variance) *TypeParameter {
	owner, ok := declaration.(typeParameterized)
	if !ok {
		panic("type parameters can only be declared by classes, interfaces and functions, not " + declaration.String())
	}
	tp := &TypeParameter{variance: variance, declaration: declaration}
	container, _ := declaration.(Scope)
	tp.init(g, container, name, KindTypeParameter, 0, tp)
	tp.selfType = newProducedType(tp, nil, NewTypeArgs())
	owner.addTypeParameter(tp)
	if container != nil {
		container.addMember(tp)
	}
	return tp
}

func (tp *TypeParameter) isTypeDecl()                    {}
func (tp *TypeParameter) Variance() Variance             { return tp.variance }
func (tp *TypeParameter) Declaration() Decl              { return tp.declaration }
func (tp *TypeParameter) DefaultTypeArgument() *ProducedType {
	return tp.defaultArg
}
func (tp *TypeParameter) ParameterList() *ParameterList { return tp.params }

func (tp *TypeParameter) ExtendedType() *ProducedType      { return tp.graph.anything.Type() }
func (tp *TypeParameter) SatisfiedTypes() []*ProducedType  { return slices.Clone(tp.bounds) }
func (tp *TypeParameter) CaseTypes() []*ProducedType       { return slices.Clone(tp.cases) }
func (tp *TypeParameter) TypeParameters() []*TypeParameter { return nil }
func (tp *TypeParameter) Type() *ProducedType              { return tp.selfType }

func (tp *TypeParameter) ProducedType(*ProducedType, []*ProducedType) *ProducedType {
	return tp.selfType
}

func (tp *TypeParameter) SupertypeDeclarations() []TypeDecl { return supertypeDeclarations(tp) }
func (tp *TypeParameter) Inherits(other TypeDecl) bool      { return inheritsDecl(tp, other) }

func (tp *TypeParameter) Member(name string, signature []*ProducedType, spread bool) (Decl, Resolution) {
	return memberOf(tp, name, signature, spread)
}

func (tp *TypeParameter) SetVariance(v Variance) {
	tp.variance = v
	tp.graph.touch(tp)
}

// SetBounds sets the upper bounds (the satisfied types) of the type parameter
func (tp *TypeParameter) SetBounds(bounds ...*ProducedType) {
	tp.bounds = slices.Clone(bounds)
	tp.graph.touch(tp)
}

func (tp *TypeParameter) SetCaseTypes(ts ...*ProducedType) {
	tp.cases = slices.Clone(ts)
	tp.graph.touch(tp)
}

func (tp *TypeParameter) SetDefaultTypeArgument(t *ProducedType) {
	tp.defaultArg = t
	tp.graph.touch(tp)
}

// SetParameterList gives the type parameter constructor parameters
func (tp *TypeParameter) SetParameterList(pl *ParameterList) { tp.params = pl }
