package model

// IsSubtypeOf reports whether every instance of t is an instance of other.
// Unknown types are never subtypes nor supertypes of anything.
func (t *ProducedType) IsSubtypeOf(other *ProducedType) bool {
	return isSubtype(t, other, 0)
}

func (t *ProducedType) IsSupertypeOf(other *ProducedType) bool {
	return isSubtype(other, t, 0)
}

func isSubtype(t, other *ProducedType, depth int) bool {
	if t == nil || other == nil {
		return false
	}
	if depth > maxWalkDepth {
		logger.Debug("subtype check too deep, giving up", "sub", t, "super", other)
		return false
	}
	if t.IsUnknown() || other.IsUnknown() {
		return false
	}
	if t == other || t.IsBottom() || other.IsAnything() {
		return true
	}

	switch d := t.decl.(type) {
	case *UnionType:
		for _, c := range d.cases {
			if !isSubtype(c, other, depth+1) {
				return false
			}
		}
		return true
	}

	switch od := other.decl.(type) {
	case *IntersectionType:
		for _, m := range od.members {
			if !isSubtype(t, m, depth+1) {
				return false
			}
		}
		return true
	case *UnionType:
		for _, c := range od.cases {
			if isSubtype(t, c, depth+1) {
				return true
			}
		}
		return isSubtypeByCases(t, other, depth)
	case *NothingType, *BottomType:
		return false
	}

	if d, ok := t.decl.(*IntersectionType); ok {
		for _, m := range d.members {
			if isSubtype(m, other, depth+1) {
				return true
			}
		}
		if isSubtypeByCases(t, other, depth) {
			return true
		}
		// X&Y inherits the principal instantiation of what X and Y inherit
		return isNominalSubtype(t, other, depth)
	}

	return isNominalSubtype(t, other, depth)
}

// isSubtypeByCases handles enumerated types: a type whose cases are all subtypes of other
// is a subtype of other, and so is an intersection whose members include an enumerated type
// once the intersection is distributed over those cases.
func isSubtypeByCases(t, other *ProducedType, depth int) bool {
	g := t.Graph()
	if d, ok := t.decl.(*IntersectionType); ok {
		for i, m := range d.members {
			cases := m.CaseTypes()
			if len(cases) == 0 {
				continue
			}
			rest := make([]*ProducedType, 0, len(d.members))
			rest = append(rest, d.members[:i]...)
			rest = append(rest, d.members[i+1:]...)
			all := true
			for _, c := range cases {
				distributed := g.Intersection(append([]*ProducedType{c}, rest...)...)
				if !isSubtype(distributed, other, depth+1) {
					all = false
					break
				}
			}
			if all {
				return true
			}
		}
		return false
	}
	cases := t.CaseTypes()
	if len(cases) == 0 {
		return false
	}
	for _, c := range cases {
		if c.IsExactly(t) || !isSubtype(c, other, depth+1) {
			return false
		}
	}
	return true
}

func isNominalSubtype(t, other *ProducedType, depth int) bool {
	st := t.supertypeFor(other.decl, depth+1)
	if st == nil || st.IsUnknown() {
		return false
	}
	if other.qualifying != nil {
		if st.qualifying == nil || !isSubtype(st.qualifying, other.qualifying, depth+1) {
			return false
		}
	}
	for _, tp := range other.decl.TypeParameters() {
		sub, super := argumentOrSelf(st, tp), argumentOrSelf(other, tp)
		switch tp.Variance() {
		case Covariant:
			if !isSubtype(sub, super, depth+1) {
				return false
			}
		case Contravariant:
			if !isSubtype(super, sub, depth+1) {
				return false
			}
		default:
			if !sub.IsExactly(super) {
				return false
			}
		}
	}
	return true
}
