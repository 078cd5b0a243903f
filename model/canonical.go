package model

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Union returns the canonical union of ts: nested unions are flattened and no member is a
// subtype of another. The union of nothing is Nothing. An unknown member is kept once,
// so that the result still reports ContainsUnknowns.
func (g *Graph) Union(ts ...*ProducedType) *ProducedType {
	var list []*ProducedType
	for _, t := range ts {
		list = addToUnion(list, t)
	}
	switch len(list) {
	case 0:
		return g.Nothing()
	case 1:
		return list[0]
	}
	return g.newUnionType(list).Type()
}

// Intersection returns the canonical intersection of ts: nested intersections are flattened,
// no member is a supertype of another, repeated instantiations of a declaration are merged,
// and provably empty intersections collapse to the bottom type.
// The intersection of nothing is Anything.
func (g *Graph) Intersection(ts ...*ProducedType) *ProducedType {
	var list []*ProducedType
	for _, t := range ts {
		list = g.addToIntersection(list, t)
	}
	switch len(list) {
	case 0:
		return g.Anything()
	case 1:
		return list[0]
	}
	return g.newIntersectionType(list).Type()
}

func addToUnion(list []*ProducedType, t *ProducedType) []*ProducedType {
	switch {
	case t == nil:
		return list
	case t.IsBottom() && len(list) > 0:
		return list
	case t.IsAnything():
		return []*ProducedType{t}
	case t.IsUnknown() && slices.ContainsFunc(list, (*ProducedType).IsUnknown):
		return list
	case t.IsUnion():
		for _, c := range t.CaseTypes() {
			list = addToUnion(list, c)
		}
		return list
	}
	out := list[:0:0]
	for i, existing := range list {
		if t.IsSubtypeOf(existing) {
			return list
		}
		if t.IsSupertypeOf(existing) {
			continue
		}
		out = append(out, list[i])
	}
	return append(out, t)
}

func (g *Graph) addToIntersection(list []*ProducedType, t *ProducedType) []*ProducedType {
	switch {
	case t == nil:
		return list
	case slices.ContainsFunc(list, (*ProducedType).IsBottom):
		return list
	case t.IsAnything() && len(list) > 0:
		return list
	case t.IsBottom():
		return []*ProducedType{t}
	case t.IsIntersection():
		for _, m := range t.SatisfiedTypes() {
			list = g.addToIntersection(list, m)
			if len(list) == 1 && list[0].IsBottom() {
				return list
			}
		}
		return list
	}

	if slices.ContainsFunc(list, t.IsSupertypeOf) {
		return list
	}
	out := make([]*ProducedType, 0, len(list)+1)
	for i, existing := range list {
		switch {
		case t.IsSubtypeOf(existing):
			continue
		case emptyMeet(t, existing):
			logger.Debug("intersection collapsed: empty meet", "type", t, "with", existing)
			return []*ProducedType{g.Bottom()}
		case disjointCases(t, existing):
			logger.Debug("intersection collapsed: disjoint cases of an enumerated type", "type", t, "with", existing)
			return []*ProducedType{g.Bottom()}
		case mergeable(t, existing):
			pi := principalInstantiation(t.decl, existing, t)
			if pi.IsBottom() {
				return []*ProducedType{pi}
			}
			if !pi.ContainsUnknowns() {
				out = append(out, list[i+1:]...)
				return g.addToIntersection(out, pi)
			}
		}
		out = append(out, existing)
	}

	// t may be a supertype of the intersection of the other members even though it is a
	// supertype of none of them
	if len(out) > 1 && t.IsSupertypeOf(g.newIntersectionType(out).Type()) {
		return out
	}
	return append(out, t)
}

// mergeable reports whether two instantiations of the same declaration can be replaced by
// their principal instantiation
func mergeable(a, b *ProducedType) bool {
	if a.IsUnion() || a.IsIntersection() || a.IsTypeParameter() || !SameDecl(a.decl, b.decl) {
		return false
	}
	if a.ContainsUnknowns() || b.ContainsUnknowns() {
		return false
	}
	for _, tp := range a.decl.TypeParameters() {
		if tp.Variance() == Invariant {
			return false
		}
	}
	return len(a.decl.TypeParameters()) > 0
}

// disjointCases reports whether p and q fall under different cases of a common enumerated
// supertype, as Object and Null do for Anything. Cases may overlap, so the two are only
// disjoint when no case inherited by one is inherited by the other.
func disjointCases(p, q *ProducedType) bool {
	if p.IsTypeParameter() || q.IsTypeParameter() {
		return false
	}
	qids := p.Graph().supertypeDeclIDs(q.decl)
	for _, sd := range p.decl.SupertypeDeclarations() {
		if _, common := slices.BinarySearch(qids, sd.ID()); !common {
			continue
		}
		cases := sd.CaseTypes()
		if len(cases) < 2 {
			continue
		}
		own, other := inheritedCases(p, cases), inheritedCases(q, cases)
		if len(own) == 0 || len(other) == 0 {
			continue
		}
		shared := set.From(other)
		if !slices.ContainsFunc(own, shared.Contains) {
			return true
		}
	}
	return false
}

// inheritedCases returns the declarations of the cases that t inherits
func inheritedCases(t *ProducedType, cases []*ProducedType) []DeclID {
	var ids []DeclID
	for _, c := range cases {
		if c.IsTypeParameter() {
			continue
		}
		if st, _ := t.Supertype(c.decl); st != nil && !st.IsUnknown() {
			ids = append(ids, c.decl.ID())
		}
	}
	return ids
}

// emptyMeet reports whether no value can be an instance of both p and q
func emptyMeet(p, q *ProducedType) bool {
	if p.IsBottom() || q.IsBottom() {
		return true
	}
	if p.IsUnknown() || q.IsUnknown() {
		return false
	}
	switch pd := p.decl.(type) {
	case *TypeParameter:
		for _, b := range pd.bounds {
			if emptyMeet(b, q) {
				return true
			}
		}
		return false
	case *UnionType:
		for _, c := range pd.cases {
			if !emptyMeet(c, q) {
				return false
			}
		}
		return true
	case *IntersectionType:
		for _, m := range pd.members {
			if emptyMeet(m, q) {
				return true
			}
		}
		return false
	}
	switch q.decl.(type) {
	case *TypeParameter, *UnionType, *IntersectionType:
		return emptyMeet(q, p)
	}
	return emptyNominalMeet(p, q)
}

// emptyNominalMeet: a final class has no subclass that could inherit anything it does not
// already inherit, and no interface is inherited by Null
func emptyNominalMeet(p, q *ProducedType) bool {
	g := p.Graph()
	pd, qd := p.decl, q.decl
	if pd.Inherits(qd) || qd.Inherits(pd) {
		return invariantMismatch(p, q)
	}
	pc, pIsClass := pd.(*Class)
	qc, qIsClass := qd.(*Class)
	_, pIsInterface := pd.(*Interface)
	_, qIsInterface := qd.(*Interface)
	switch {
	case pIsClass && pc.IsFinal() && (qIsClass || qIsInterface):
		return true
	case qIsClass && qc.IsFinal() && (pIsClass || pIsInterface):
		return true
	case pIsInterface && qd.Inherits(g.null), qIsInterface && pd.Inherits(g.null):
		return true
	}
	return invariantMismatch(p, q)
}

// invariantMismatch reports whether p and q inherit a common generic declaration with
// different arguments for one of its invariant type parameters
func invariantMismatch(p, q *ProducedType) bool {
	qids := p.Graph().supertypeDeclIDs(q.decl)
	for _, sd := range p.decl.SupertypeDeclarations() {
		if _, common := slices.BinarySearch(qids, sd.ID()); !common {
			continue
		}
		var invariant []*TypeParameter
		for _, tp := range sd.TypeParameters() {
			if tp.Variance() == Invariant {
				invariant = append(invariant, tp)
			}
		}
		if len(invariant) == 0 {
			continue
		}
		ps, _ := p.Supertype(sd)
		qs, _ := q.Supertype(sd)
		if ps == nil || qs == nil || ps.IsUnknown() || qs.IsUnknown() {
			continue
		}
		for _, tp := range invariant {
			pa, qa := argumentOrSelf(ps, tp), argumentOrSelf(qs, tp)
			if pa.InvolvesTypeParameters() || qa.InvolvesTypeParameters() {
				continue
			}
			if pa.ContainsUnknowns() || qa.ContainsUnknowns() {
				continue
			}
			if !pa.IsExactly(qa) {
				return true
			}
		}
	}
	return false
}

// DefiniteType removes Null from t: String|Null becomes String
func (g *Graph) DefiniteType(t *ProducedType) *ProducedType {
	if t == nil || t.IsUnknown() {
		return t
	}
	if t.IsUnion() {
		var kept []*ProducedType
		for _, c := range t.CaseTypes() {
			if !c.IsSubtypeOf(g.Null()) {
				kept = append(kept, c)
			}
		}
		return g.Union(kept...)
	}
	if !t.IsBottom() && t.IsSubtypeOf(g.Null()) {
		return g.Nothing()
	}
	return t
}
