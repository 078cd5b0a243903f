package model

// PrincipalInstantiation reconciles two instantiations a and b of dec into the single
// instantiation their intersection is equivalent to. Per type parameter, contravariant
// arguments are united and covariant ones intersected. Invariant arguments must be exactly
// the same: when they are not and either involves type parameters the argument is unknown,
// otherwise no instantiation exists and the result is the bottom type.
func PrincipalInstantiation(dec TypeDecl, a, b *ProducedType) *ProducedType {
	return principalInstantiation(dec, a, b)
}

func principalInstantiation(dec TypeDecl, a, b *ProducedType) *ProducedType {
	g := dec.Graph()
	params := dec.TypeParameters()
	args := make([]*ProducedType, len(params))
	for i, tp := range params {
		x, y := argumentOrSelf(a, tp), argumentOrSelf(b, tp)
		switch tp.Variance() {
		case Contravariant:
			args[i] = g.Union(x, y)
		case Covariant:
			args[i] = g.Intersection(x, y)
		default:
			switch {
			case x.IsExactly(y):
				args[i] = x
			case x.InvolvesTypeParameters() || y.InvolvesTypeParameters():
				logger.Debug("invariant arguments disagree, giving up on the argument", "decl", dec.QualifiedName(), "param", tp.Name(), "first", x, "second", y)
				args[i] = g.Unknown()
			default:
				logger.Debug("no principal instantiation", "decl", dec.QualifiedName(), "param", tp.Name(), "first", x, "second", y)
				return g.Bottom()
			}
		}
	}
	qualifying := principalQualifyingType(a, b)
	if qualifying != nil && qualifying.IsBottom() {
		return qualifying
	}
	return dec.ProducedType(qualifying, args)
}

func principalQualifyingType(a, b *ProducedType) *ProducedType {
	switch {
	case a.qualifying == nil:
		return b.qualifying
	case b.qualifying == nil:
		return a.qualifying
	case SameDecl(a.qualifying.decl, b.qualifying.decl):
		return principalInstantiation(a.qualifying.decl, a.qualifying, b.qualifying)
	default:
		return a.qualifying
	}
}
