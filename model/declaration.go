package model

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

type DeclKind uint8

const (
	_ DeclKind = iota
	KindClass
	KindInterface
	KindTypeParameter
	KindUnion
	KindIntersection
	KindNothing
	KindBottom
	KindUnknown
	KindFunction
	KindValue
)

func (k DeclKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTypeParameter:
		return "type parameter"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindNothing:
		return "nothing"
	case KindBottom:
		return "bottom"
	case KindUnknown:
		return "unknown"
	case KindFunction:
		return "function"
	case KindValue:
		return "value"
	default:
		return "invalid"
	}
}

type Flags uint16

const (
	Shared Flags = 1 << iota
	Formal
	Actual
	Default
	Final
	Abstract
	// Anonymous marks object declarations, whose class has no name of its own
	Anonymous
	Variable
)

var flagNames = []string{"shared", "formal", "actual", "default", "final", "abstract", "anonymous", "variable"}

func (f Flags) String() string {
	var names []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, " ")
}

type Annotation struct {
	Name string
	Args []string
}

// Decl is a named, annotated program element
type Decl interface {
	fmt.Stringer
	ID() DeclID
	// Name is "" for anonymous declarations
	Name() string
	Kind() DeclKind
	Container() Scope
	Flags() Flags
	Is(f Flags) bool
	Annotations() []Annotation
	// Refined is the least-refined declaration this one overrides, or itself
	Refined() Decl
	QualifiedName() string
	Graph() *Graph

	base() *declBase
}

type declBase struct {
	id          DeclID
	name        string
	kind        DeclKind
	container   Scope
	flags       Flags
	annotations []Annotation
	refined     Decl
	graph       *Graph
	self        Decl
	generation  atomic.Uint64
}

func (d *declBase) init(g *Graph, container Scope, name string, kind DeclKind, flags Flags, self Decl) {
	d.graph = g
	d.container = container
	d.name = name
	d.kind = kind
	d.flags = flags
	d.self = self
	d.id = g.register(self)
}

func (d *declBase) base() *declBase          { return d }
func (d *declBase) ID() DeclID               { return d.id }
func (d *declBase) Name() string             { return d.name }
func (d *declBase) Kind() DeclKind           { return d.kind }
func (d *declBase) Container() Scope         { return d.container }
func (d *declBase) Flags() Flags             { return d.flags }
func (d *declBase) Is(f Flags) bool          { return d.flags&f == f }
func (d *declBase) Graph() *Graph            { return d.graph }
func (d *declBase) Generation() uint64       { return d.generation.Load() }
func (d *declBase) Annotations() []Annotation { return slices.Clone(d.annotations) }

func (d *declBase) Refined() Decl {
	if d.refined == nil {
		return d.self
	}
	return d.refined
}

func (d *declBase) QualifiedName() string {
	name := d.name
	if name == "" {
		name = "<anonymous>"
	}
	switch c := d.container.(type) {
	case nil:
		return name
	case *Package:
		return c.QualifiedName() + "::" + name
	default:
		return c.QualifiedName() + "." + name
	}
}

func (d *declBase) String() string {
	return d.kind.String() + " " + d.QualifiedName()
}

// SetFlags replaces the flags of the declaration
func (d *declBase) SetFlags(f Flags) { d.flags = f }

// SetRefined records the least-refined declaration d overrides
func (d *declBase) SetRefined(refined Decl) { d.refined = refined }

func (d *declBase) Annotate(name string, args ...string) {
	d.annotations = append(d.annotations, Annotation{Name: name, Args: args})
}

// SameDecl reports whether a and b denote the same declaration: either they are
// identical, or they are named and agree on name, kind and container.
func SameDecl(a, b Decl) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Name() == "" || b.Name() == "" {
		return false
	}
	return a.Kind() == b.Kind() && a.Name() == b.Name() && sameScope(a.Container(), b.Container())
}

func sameScope(a, b Scope) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	ad, aIsDecl := a.(Decl)
	bd, bIsDecl := b.(Decl)
	if aIsDecl && bIsDecl {
		return SameDecl(ad, bd)
	}
	ap, aIsPkg := a.(*Package)
	bp, bIsPkg := b.(*Package)
	return aIsPkg && bIsPkg && ap.name == bp.name
}

// Scope is a container of declarations
type Scope interface {
	// Container is nil for packages
	Container() Scope
	// Members returns a snapshot of the declarations directly inside the scope
	Members() []Decl
	DirectMember(name string, signature []*ProducedType, spread bool) Decl
	QualifiedName() string
	Graph() *Graph

	addMember(d Decl)
}

var (
	_ Scope = (*Package)(nil)
	_ Scope = (*ConditionScope)(nil)
	_ Scope = (*Class)(nil)
	_ Scope = (*Interface)(nil)
	_ Scope = (*Function)(nil)
)

// memberList is appended to while the graph is populated, possibly from several goroutines,
// so readers always get a copy
type memberList struct {
	mu      sync.Mutex
	members []Decl
}

func (l *memberList) Members() []Decl {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.members)
}

func (l *memberList) addMember(d Decl) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.members = append(l.members, d)
}

// DirectMember looks name up among the declarations of this scope only, see LookupMember
func (l *memberList) DirectMember(name string, signature []*ProducedType, spread bool) Decl {
	return LookupMember(l.Members(), name, signature, spread)
}

type Package struct {
	name  string
	graph *Graph
	memberList
}

func (p *Package) Name() string          { return p.name }
func (p *Package) Container() Scope      { return nil }
func (p *Package) QualifiedName() string { return p.name }
func (p *Package) Graph() *Graph         { return p.graph }
func (p *Package) String() string        { return "package " + p.name }

// ConditionScope holds declarations introduced by a condition (such as a narrowed value)
// that are only visible inside the guarded block
type ConditionScope struct {
	container Scope
	memberList
}

func (g *Graph) NewConditionScope(container Scope) *ConditionScope {
	return &ConditionScope{container: container}
}

func (c *ConditionScope) Container() Scope      { return c.container }
func (c *ConditionScope) QualifiedName() string { return c.container.QualifiedName() + ".<condition>" }
func (c *ConditionScope) Graph() *Graph         { return c.container.Graph() }
