package model

import (
	"slices"
	"strings"

	"github.com/cottand/typegraph/util"
)

// sentinel holds what the declarations without a body of their own have in common
type sentinel struct {
	declBase
	noMembers
	selfType selfTypeCache
}

func (s *sentinel) isTypeDecl()                      {}
func (s *sentinel) typeDecl() TypeDecl               { return s.self.(TypeDecl) }
func (s *sentinel) ExtendedType() *ProducedType      { return nil }
func (s *sentinel) SatisfiedTypes() []*ProducedType  { return nil }
func (s *sentinel) CaseTypes() []*ProducedType       { return nil }
func (s *sentinel) TypeParameters() []*TypeParameter { return nil }
func (s *sentinel) Type() *ProducedType              { return s.selfType.get(s.typeDecl()) }

func (s *sentinel) ProducedType(*ProducedType, []*ProducedType) *ProducedType { return s.Type() }

func (s *sentinel) SupertypeDeclarations() []TypeDecl { return supertypeDeclarations(s.typeDecl()) }
func (s *sentinel) Inherits(other TypeDecl) bool      { return inheritsDecl(s.typeDecl(), other) }

func (s *sentinel) Member(name string, signature []*ProducedType, spread bool) (Decl, Resolution) {
	return memberOf(s.typeDecl(), name, signature, spread)
}

// NothingType is the declared bottom of the lattice, written Nothing
type NothingType struct {
	sentinel
}

// BottomType is the uninhabited type an intersection collapses to.
// It is exactly the same type as Nothing.
type BottomType struct {
	sentinel
}

// UnknownType marks a type that could not be resolved. It is neither a subtype nor a
// supertype of any type, itself included.
type UnknownType struct {
	sentinel
	ambiguous bool
}

// IsAmbiguous reports whether this is the marker returned by a supertype search that
// found more than one incomparable match
func (u *UnknownType) IsAmbiguous() bool { return u.ambiguous }

// UnionType is a synthetic declaration whose case types are the members of the union.
// Union declarations are not registered in the graph: they are compared structurally.
type UnionType struct {
	sentinel
	cases []*ProducedType
}

func (g *Graph) newUnionType(cases []*ProducedType) *UnionType {
	u := &UnionType{cases: slices.Clone(cases)}
	u.graph = g
	u.kind = KindUnion
	u.self = u
	return u
}

func (u *UnionType) CaseTypes() []*ProducedType { return slices.Clone(u.cases) }
func (u *UnionType) QualifiedName() string      { return renderUnion(u.cases) }
func (u *UnionType) String() string             { return "union " + u.QualifiedName() }

// IntersectionType is a synthetic declaration whose satisfied types are the members of the
// intersection
type IntersectionType struct {
	sentinel
	members []*ProducedType
}

func (g *Graph) newIntersectionType(members []*ProducedType) *IntersectionType {
	i := &IntersectionType{members: slices.Clone(members)}
	i.graph = g
	i.kind = KindIntersection
	i.self = i
	return i
}

func (i *IntersectionType) SatisfiedTypes() []*ProducedType { return slices.Clone(i.members) }
func (i *IntersectionType) QualifiedName() string           { return renderIntersection(i.members) }
func (i *IntersectionType) String() string                  { return "intersection " + i.QualifiedName() }

func renderUnion(cases []*ProducedType) string {
	return util.JoinString(cases, "|")
}

func renderIntersection(members []*ProducedType) string {
	parts := make([]string, len(members))
	for i, m := range members {
		if m.IsUnion() {
			parts[i] = "(" + m.String() + ")"
		} else {
			parts[i] = m.String()
		}
	}
	return strings.Join(parts, "&")
}
