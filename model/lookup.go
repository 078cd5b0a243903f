package model

import (
	"cmp"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Resolution qualifies the result of a member lookup
type Resolution uint8

const (
	Absent Resolution = iota
	Resolved
	// Abstraction means the name refers to an overload set that the arguments could not
	// narrow down to a single overload; the declaration returned is the set's abstraction
	Abstraction
	// Ambiguous means more than one incomparable declaration matches
	Ambiguous
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Abstraction:
		return "abstraction"
	case Ambiguous:
		return "ambiguous"
	default:
		return "absent"
	}
}

func isAbstraction(d Decl) bool {
	f, ok := d.(Functional)
	return ok && f.IsAbstraction()
}

// notOverloaded is true for declarations that can stand for their name on their own:
// anything that is not part of an overload set, and overload abstractions
func notOverloaded(d Decl) bool {
	f, ok := d.(Functional)
	return !ok || !f.IsOverloaded() || f.IsAbstraction()
}

// TypeDeclaration returns the declaration that a type written as the name of d denotes.
// The overloads of a class are initializers of one type, the type of the first overload,
// so the abstraction of the set stands for it.
func TypeDeclaration(d TypeDecl) TypeDecl {
	if c, ok := d.(*Class); ok && c.IsAbstraction() && len(c.overloads) > 0 {
		if first, ok := c.overloads[0].(TypeDecl); ok {
			return first
		}
	}
	return d
}

func resolutionOf(d Decl) Resolution {
	switch {
	case d == nil:
		return Absent
	case isAbstraction(d):
		return Abstraction
	default:
		return Resolved
	}
}

// LookupMember finds the declaration called name among members.
//
// A nil signature is a plain reference: the result is the first declaration that is not a
// single overload, so overloaded names resolve to their abstraction. Otherwise signature
// holds the argument types of a call (an empty, non-nil signature is a call without
// arguments) and spread tells whether the last argument is spread into a variadic parameter.
// Among the declarations whose signature matches, one is kept when it is a better match
// than every other; without a unique best match the result is the abstraction or the
// non-overloaded declaration of that name, if any.
//
// Incomparable matches are discarded in declaration order: a later match is not added
// when an earlier one beats it, but an earlier match beaten by a later one is removed even
// if it beat another. Which overload wins a tie can therefore depend on the order members
// were declared in.
func LookupMember(members []Decl, name string, signature []*ProducedType, spread bool) Decl {
	d, _ := lookupMember(members, name, signature, spread)
	return d
}

func lookupMember(members []Decl, name string, signature []*ProducedType, spread bool) (Decl, Resolution) {
	var (
		results []Decl
		inexact Decl
	)
	for _, d := range members {
		if d.Name() == "" || d.Name() != name {
			continue
		}
		if signature == nil {
			if notOverloaded(d) {
				return d, resolutionOf(d)
			}
			continue
		}
		if notOverloaded(d) {
			inexact = d
		}
		if !hasMatchingSignature(d, signature, spread) {
			continue
		}
		add := true
		kept := results[:0]
		for _, o := range results {
			if betterMatch(d, o) {
				continue
			}
			if betterMatch(o, d) {
				add = false
			}
			kept = append(kept, o)
		}
		results = kept
		if add {
			results = append(results, d)
		}
	}
	switch len(results) {
	case 0:
		return inexact, resolutionOf(inexact)
	case 1:
		return results[0], Resolved
	default:
		logger.Debug("overloads match equally well", "name", name, "matches", len(results))
		return inexact, Ambiguous
	}
}

// hasMatchingSignature reports whether the arguments in signature can be passed to the first
// parameter list of d. Overload abstractions never match.
func hasMatchingSignature(d Decl, signature []*ProducedType, spread bool) bool {
	f, ok := d.(Functional)
	if !ok || f.IsAbstraction() {
		return false
	}
	pl := f.fn().firstParameterList()
	if pl == nil {
		return false
	}
	params := pl.Params
	size := len(params)
	sequenced := pl.HasSequenced()
	if sequenced {
		size--
		if len(signature) < size {
			return false
		}
	} else if len(signature) > size || len(signature) < requiredParams(params) {
		return false
	}
	fixed := min(size, len(signature))
	for i := 0; i < fixed; i++ {
		if !matches(signature[i], params[i].Type) {
			return false
		}
	}
	if !sequenced {
		return !spread
	}
	elem := params[size].Type
	for i := size; i < len(signature); i++ {
		arg := signature[i]
		if spread && i == len(signature)-1 {
			if arg = iterableElement(arg); arg == nil {
				return false
			}
		}
		if !matches(arg, elem) {
			return false
		}
	}
	return true
}

// requiredParams counts the parameters before the trailing defaulted ones
func requiredParams(params []*Parameter) int {
	n := len(params)
	for n > 0 && params[n-1].Defaulted {
		n--
	}
	return n
}

func iterableElement(t *ProducedType) *ProducedType {
	if t == nil {
		return nil
	}
	g := t.Graph()
	st, _ := t.Supertype(g.iterable)
	if st == nil || st.IsUnknown() {
		return nil
	}
	return argumentOrSelf(st, g.element)
}

// matches reports whether an argument of type arg can be passed to a parameter of type
// param, ignoring optionality
func matches(arg, param *ProducedType) bool {
	if arg == nil || param == nil || arg.IsUnknown() || param.IsUnknown() {
		return false
	}
	g := arg.Graph()
	adt, pdt := g.DefiniteType(arg), g.DefiniteType(param)
	if tp, ok := pdt.decl.(*TypeParameter); ok {
		for _, b := range tp.bounds {
			if b.InvolvesTypeParameters() {
				continue
			}
			if !adt.IsSubtypeOf(b) {
				return false
			}
		}
		return true
	}
	return adt.IsSubtypeOf(pdt)
}

// betterMatch reports whether d is at least as specific an overload as o: a signature without
// a variadic parameter beats one with, otherwise every parameter type of d must be a subtype
// of the corresponding one of o, variadic tails compared by element type
func betterMatch(d, o Decl) bool {
	df, dok := d.(Functional)
	of, ook := o.(Functional)
	if !dok || !ook {
		return false
	}
	dpl, opl := df.fn().firstParameterList(), of.fn().firstParameterList()
	if dpl == nil || opl == nil {
		return false
	}
	dseq, oseq := dpl.HasSequenced(), opl.HasSequenced()
	if !dseq && oseq {
		return true
	}
	if dseq && !oseq {
		return false
	}
	if len(dpl.Params) != len(opl.Params) {
		return false
	}
	g := d.Graph()
	for i := range dpl.Params {
		dt, ot := dpl.Params[i].Type, opl.Params[i].Type
		if dt == nil || ot == nil || dt.IsUnknown() || ot.IsUnknown() {
			return false
		}
		if !g.DefiniteType(dt).IsSubtypeOf(g.DefiniteType(ot)) {
			return false
		}
	}
	return true
}

// memberOn resolves name on t: among the members of its declaration first, then on the most
// specific supertype with a matching shared member. It also returns the instantiation of the
// type the member was found on.
func memberOn(t *ProducedType, name string, signature []*ProducedType, spread bool) (Decl, *ProducedType, Resolution) {
	direct, res := lookupMember(t.decl.Members(), name, signature, spread)
	if direct != nil {
		if signature != nil && isAbstraction(direct) {
			// an inherited overload may match the arguments where none of the direct ones does
			if m, st, r := inheritedMemberOn(t, name, signature, spread); m != nil && r == Resolved {
				return m, st, r
			}
		}
		return direct, t, res
	}
	if res == Ambiguous {
		return nil, nil, Ambiguous
	}
	return inheritedMemberOn(t, name, signature, spread)
}

func inheritedMemberOn(t *ProducedType, name string, signature []*ProducedType, spread bool) (Decl, *ProducedType, Resolution) {
	st, outcome := SearchSupertype(t, ExactMemberCriteria(t.decl, name, signature, spread))
	if outcome == SearchAbsent {
		st, outcome = SearchSupertype(t, LooseMemberCriteria(t.decl, name))
	}
	switch outcome {
	case SearchAbsent:
		return nil, nil, Absent
	case SearchAmbiguous:
		logger.Debug("member inherited from incomparable supertypes", "type", t, "member", name)
		return nil, nil, Ambiguous
	}
	m, r := lookupMember(st.decl.Members(), name, signature, spread)
	return m, st, r
}

func memberOf(d TypeDecl, name string, signature []*ProducedType, spread bool) (Decl, Resolution) {
	m, _, r := memberOn(d.Type(), name, signature, spread)
	return m, r
}

// TypedMember resolves name on t like TypeDecl.Member does, and also returns the
// instantiation of the supertype of t the member was found on, so that the member's
// signature can be read with the right type arguments
func (t *ProducedType) TypedMember(name string, signature []*ProducedType, spread bool) (Decl, *ProducedType, Resolution) {
	return memberOn(t, name, signature, spread)
}

// Resolve looks name up from scope outwards. Types contribute their inherited members as
// well as their own. Declarations of the language package are visible everywhere.
func Resolve(scope Scope, name string, signature []*ProducedType, spread bool) (Decl, Resolution) {
	var lang *Package
	for s := scope; s != nil; s = s.Container() {
		var (
			d Decl
			r Resolution
		)
		if td, ok := s.(TypeDecl); ok {
			d, r = td.Member(name, signature, spread)
		} else {
			d, r = lookupMember(s.Members(), name, signature, spread)
		}
		if d != nil || r == Ambiguous {
			return d, r
		}
		if p, ok := s.(*Package); ok && p != p.graph.lang {
			lang = p.graph.lang
		}
	}
	if lang != nil {
		return lookupMember(lang.Members(), name, signature, spread)
	}
	return nil, Absent
}

// RefinedMember finds the least refined declaration of name visible on d, searching its
// supertypes before d itself. Declarations that are themselves refinements (actual) are
// never returned.
func RefinedMember(d TypeDecl, name string, signature []*ProducedType, spread bool) Decl {
	return refinedMember(d, name, signature, spread, set.New[DeclID](8))
}

func refinedMember(d TypeDecl, name string, signature []*ProducedType, spread bool, visited *set.Set[DeclID]) Decl {
	if d.ID() != NoID && !visited.Insert(d.ID()) {
		return nil
	}
	var result Decl
	if et := d.ExtendedType(); et != nil {
		if c := refinedMember(et.decl, name, signature, spread, visited); isBetterRefinement(signature, result, c) {
			result = c
		}
	}
	for _, st := range d.SatisfiedTypes() {
		if c := refinedMember(st.decl, name, signature, spread, visited); isBetterRefinement(signature, result, c) {
			result = c
		}
	}
	if c := d.DirectMember(name, signature, spread); isBetterRefinement(signature, result, c) {
		result = c
	}
	return result
}

// isBetterRefinement reports whether candidate should replace result. Only shared,
// non-actual declarations are candidates. A candidate whose shape agrees with the signature
// (callable when there is one, not callable otherwise) beats one that does not, and a
// concrete declaration beats an overload abstraction.
func isBetterRefinement(signature []*ProducedType, result, candidate Decl) bool {
	if candidate == nil || candidate.Is(Actual) || !candidate.Is(Shared) {
		return false
	}
	if result == nil {
		return true
	}
	if cs, rs := shapeAgrees(candidate, signature), shapeAgrees(result, signature); cs != rs {
		return cs
	}
	return isAbstraction(result) && !isAbstraction(candidate)
}

func shapeAgrees(d Decl, signature []*ProducedType) bool {
	_, callable := d.(Functional)
	return callable == (signature != nil)
}

// IsMember reports whether m is declared by d or inherited by it
func IsMember(d TypeDecl, m Decl) bool {
	return isMember(d, m, set.New[DeclID](8))
}

func isMember(d TypeDecl, m Decl, visited *set.Set[DeclID]) bool {
	if d.ID() != NoID && !visited.Insert(d.ID()) {
		return false
	}
	if slices.ContainsFunc(d.Members(), func(o Decl) bool { return SameDecl(o, m) }) {
		return true
	}
	for _, st := range d.SatisfiedTypes() {
		if isMember(st.decl, m, visited) {
			return true
		}
	}
	if et := d.ExtendedType(); et != nil {
		return isMember(et.decl, m, visited)
	}
	return false
}

// InheritedMembers returns every shared declaration called name on the proper supertypes of d
func InheritedMembers(d TypeDecl, name string) []Decl {
	var found []Decl
	visited := set.New[DeclID](8)
	visited.Insert(d.ID())
	var walk func(TypeDecl)
	walk = func(t TypeDecl) {
		if t.ID() != NoID && !visited.Insert(t.ID()) {
			return
		}
		for _, m := range t.Members() {
			if m.Name() == name && m.Is(Shared) {
				found = append(found, m)
			}
		}
		if et := t.ExtendedType(); et != nil {
			walk(et.decl)
		}
		for _, st := range t.SatisfiedTypes() {
			walk(st.decl)
		}
	}
	if et := d.ExtendedType(); et != nil {
		walk(et.decl)
	}
	for _, st := range d.SatisfiedTypes() {
		walk(st.decl)
	}
	return found
}

// signatureOf is the parameter types of the first parameter list of d, or nil if d is not
// callable
func signatureOf(d Decl) []*ProducedType {
	f, ok := d.(Functional)
	if !ok {
		return nil
	}
	pl := f.fn().firstParameterList()
	if pl == nil {
		return nil
	}
	return pl.Types()
}

// SetRefinements points every actual member of a type at the declaration it refines, as
// found by RefinedMember. It returns how many refinements were set.
func (g *Graph) SetRefinements() int {
	n := 0
	for _, d := range g.Decls() {
		if !d.Is(Actual) || isAbstraction(d) {
			continue
		}
		owner, ok := d.Container().(TypeDecl)
		if !ok {
			continue
		}
		refined := RefinedMember(owner, d.Name(), signatureOf(d), false)
		if refined == nil {
			logger.Debug("actual member refines nothing", "member", d.QualifiedName())
			continue
		}
		d.base().SetRefined(refined.Refined())
		n++
	}
	return n
}

// DeclarationWithProximity is a declaration visible from a scope, with how many scopes
// outwards it was found
type DeclarationWithProximity struct {
	Decl      Decl
	Proximity int
}

// MatchingDeclarations returns the declarations visible from scope whose name starts with
// prefix, ignoring case. Inner declarations shadow outer ones with the same name. Members a
// type inherits are found at the proximity of the type. Results are ordered by proximity,
// then by name.
func MatchingDeclarations(scope Scope, prefix string, proximity int) []DeclarationWithProximity {
	found := make(map[string]DeclarationWithProximity)
	collectMatching(scope, strings.ToLower(prefix), proximity, found)
	if p, ok := outermost(scope).(*Package); ok && p != p.graph.lang {
		langFound := make(map[string]DeclarationWithProximity)
		collectMatching(p.graph.lang, strings.ToLower(prefix), proximity+depthOf(scope)+1, langFound)
		for name, d := range langFound {
			if _, shadowed := found[name]; !shadowed {
				found[name] = d
			}
		}
	}
	out := make([]DeclarationWithProximity, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b DeclarationWithProximity) int {
		if c := cmp.Compare(a.Proximity, b.Proximity); c != 0 {
			return c
		}
		return cmp.Compare(a.Decl.Name(), b.Decl.Name())
	})
	return out
}

func outermost(s Scope) Scope {
	for s.Container() != nil {
		s = s.Container()
	}
	return s
}

func depthOf(s Scope) int {
	n := 0
	for s.Container() != nil {
		s = s.Container()
		n++
	}
	return n
}

func collectMatching(scope Scope, prefix string, proximity int, found map[string]DeclarationWithProximity) {
	if c := scope.Container(); c != nil {
		collectMatching(c, prefix, proximity+1, found)
	}
	matching := func(d Decl) bool {
		return d.Name() != "" && notOverloaded(d) && strings.HasPrefix(strings.ToLower(d.Name()), prefix)
	}
	if td, ok := scope.(TypeDecl); ok {
		inherited := make(map[string]bool)
		for _, sd := range td.SupertypeDeclarations() {
			if SameDecl(sd, td) {
				continue
			}
			for _, m := range sd.Members() {
				if m.Is(Shared) && matching(m) && !inherited[m.Name()] {
					inherited[m.Name()] = true
					found[m.Name()] = DeclarationWithProximity{Decl: m, Proximity: proximity}
				}
			}
		}
	}
	for _, m := range scope.Members() {
		if matching(m) {
			found[m.Name()] = DeclarationWithProximity{Decl: m, Proximity: proximity}
		}
	}
}
