package model

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
	sortedset "github.com/xtgo/set"

	"github.com/cottand/typegraph/util/hset"
)

// maxWalkDepth bounds the recursion of subtype checks and supertype searches, which can
// otherwise expand self-referential generic supertypes forever
const maxWalkDepth = 128

type idSlice []DeclID

func (s idSlice) Len() int           { return len(s) }
func (s idSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s idSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// sortedIDs sorts and deduplicates ids in place
func sortedIDs(ids idSlice) idSlice {
	slices.Sort(ids)
	return ids[:sortedset.Uniq(ids)]
}

// interIDs intersects two sorted, deduplicated slices
func interIDs(a, b idSlice) idSlice {
	data := append(slices.Clone(a), b...)
	return data[:sortedset.Inter(data, len(a))]
}

// unionIDs unites two sorted, deduplicated slices
func unionIDs(a, b idSlice) idSlice {
	data := append(slices.Clone(a), b...)
	return data[:sortedset.Union(data, len(a))]
}

func supertypeDeclarations(d TypeDecl) []TypeDecl {
	g := d.Graph()
	ids := g.supertypeDeclIDs(d)
	decls := make([]TypeDecl, 0, len(ids))
	for _, id := range ids {
		decls = append(decls, g.Decl(id).(TypeDecl))
	}
	return decls
}

func (g *Graph) supertypeDeclIDs(d TypeDecl) idSlice {
	id := d.ID()
	if id == NoID {
		return g.collectSupertypeDeclIDs(d)
	}
	epoch := g.Epoch()
	g.cacheMu.Lock()
	entry, ok := g.supertypeDecls[id]
	g.cacheMu.Unlock()
	if ok && entry.epoch == epoch {
		return entry.ids
	}
	ids := g.collectSupertypeDeclIDs(d)
	g.cacheMu.Lock()
	g.supertypeDecls[id] = supertypeDeclsEntry{epoch: epoch, ids: ids}
	g.cacheMu.Unlock()
	return ids
}

func (g *Graph) collectSupertypeDeclIDs(d TypeDecl) idSlice {
	switch d := d.(type) {
	case *UnionType:
		// only what every case inherits
		var common idSlice
		for i, c := range d.cases {
			ids := g.supertypeDeclIDs(c.decl)
			if i == 0 {
				common = slices.Clone(ids)
			} else {
				common = interIDs(common, ids)
			}
		}
		return common
	case *IntersectionType:
		var all idSlice
		for _, m := range d.members {
			all = unionIDs(all, g.supertypeDeclIDs(m.decl))
		}
		return all
	case *NothingType, *BottomType, *UnknownType:
		return nil
	}
	var ids idSlice
	visited := set.New[DeclID](8)
	g.walkSupertypeDecls(d, visited, &ids)
	return sortedIDs(ids)
}

func (g *Graph) walkSupertypeDecls(d TypeDecl, visited *set.Set[DeclID], ids *idSlice) {
	switch d.(type) {
	case *Class, *Interface, *TypeParameter:
	default:
		// a bound or supertype that is itself synthetic contributes its own list
		*ids = append(*ids, g.supertypeDeclIDs(d)...)
		return
	}
	if !visited.Insert(d.ID()) {
		return
	}
	*ids = append(*ids, d.ID())
	if et := d.ExtendedType(); et != nil {
		g.walkSupertypeDecls(et.decl, visited, ids)
	}
	for _, st := range d.SatisfiedTypes() {
		g.walkSupertypeDecls(st.decl, visited, ids)
	}
}

func inheritsDecl(d TypeDecl, other TypeDecl) bool {
	if _, unknown := other.(*UnknownType); unknown {
		return false
	}
	switch d := d.(type) {
	case *NothingType, *BottomType:
		return true
	case *UnknownType:
		return false
	case *UnionType:
		for _, c := range d.cases {
			if !c.decl.Inherits(other) {
				return false
			}
		}
		return len(d.cases) > 0
	case *IntersectionType:
		for _, m := range d.members {
			if m.decl.Inherits(other) {
				return true
			}
		}
		return false
	}
	return inheritsWalk(d, other, set.New[DeclID](8))
}

func inheritsWalk(d TypeDecl, other TypeDecl, visited *set.Set[DeclID]) bool {
	if SameDecl(d, other) {
		return true
	}
	switch d.(type) {
	case *Class, *Interface, *TypeParameter:
	default:
		return d.Inherits(other)
	}
	if !visited.Insert(d.ID()) {
		return false
	}
	if et := d.ExtendedType(); et != nil && inheritsWalk(et.decl, other, visited) {
		return true
	}
	for _, st := range d.SatisfiedTypes() {
		if inheritsWalk(st.decl, other, visited) {
			return true
		}
	}
	return false
}

// Outcome is the result of a supertype search
type Outcome uint8

const (
	SearchAbsent Outcome = iota
	SearchFound
	// SearchAmbiguous means several incomparable supertypes satisfy the criteria
	SearchAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case SearchFound:
		return "found"
	case SearchAmbiguous:
		return "ambiguous"
	default:
		return "absent"
	}
}

// Criteria selects the declarations a supertype search is looking for
type Criteria interface {
	Satisfies(d TypeDecl) bool
	// MemberLookup is true when the search looks for a declaration holding a member
	MemberLookup() bool
}

type declarationCriteria struct {
	decl TypeDecl
}

// DeclarationCriteria is satisfied by d only
func DeclarationCriteria(d TypeDecl) Criteria { return declarationCriteria{decl: d} }

func (c declarationCriteria) Satisfies(d TypeDecl) bool {
	switch c.decl.(type) {
	case *UnionType, *IntersectionType:
		return false
	}
	return SameDecl(c.decl, d)
}

func (c declarationCriteria) MemberLookup() bool { return false }

type exactMemberCriteria struct {
	receiver  TypeDecl
	name      string
	signature []*ProducedType
	spread    bool
}

// ExactMemberCriteria is satisfied by the supertypes of receiver with a shared direct member
// called name matching signature. Overload abstractions only count when signature is nil.
func ExactMemberCriteria(receiver TypeDecl, name string, signature []*ProducedType, spread bool) Criteria {
	return exactMemberCriteria{receiver: receiver, name: name, signature: signature, spread: spread}
}

func (c exactMemberCriteria) Satisfies(d TypeDecl) bool {
	if SameDecl(d, c.receiver) {
		return false
	}
	m := d.DirectMember(c.name, c.signature, c.spread)
	if m == nil || !m.Is(Shared) {
		return false
	}
	return c.signature == nil || !isAbstraction(m)
}

func (c exactMemberCriteria) MemberLookup() bool { return true }

type looseMemberCriteria struct {
	receiver TypeDecl
	name     string
}

// LooseMemberCriteria is satisfied by the supertypes of receiver with a shared overload set
// called name, regardless of signature
func LooseMemberCriteria(receiver TypeDecl, name string) Criteria {
	return looseMemberCriteria{receiver: receiver, name: name}
}

func (c looseMemberCriteria) Satisfies(d TypeDecl) bool {
	if SameDecl(d, c.receiver) {
		return false
	}
	m := d.DirectMember(c.name, nil, false)
	return m != nil && m.Is(Shared) && isAbstraction(m)
}

func (c looseMemberCriteria) MemberLookup() bool { return true }

type producedHasher struct{}

func (producedHasher) Hash(t *ProducedType) uint32   { return t.Hash() }
func (producedHasher) Equal(a, b *ProducedType) bool { return a.IsExactly(b) }

// SearchSupertype finds the most specific supertype of t whose declaration satisfies c
func SearchSupertype(t *ProducedType, c Criteria) (*ProducedType, Outcome) {
	return outcomeOf(t.searchSupertype(c, hset.Empty[*ProducedType](producedHasher{}), 0))
}

func outcomeOf(st *ProducedType) (*ProducedType, Outcome) {
	switch {
	case st == nil:
		return nil, SearchAbsent
	case st.IsAmbiguous():
		return st, SearchAmbiguous
	default:
		return st, SearchFound
	}
}

// Supertype returns the instantiation of d that t inherits, for example
// Iterable<String> for List<String> and Iterable
func (t *ProducedType) Supertype(d TypeDecl) (*ProducedType, Outcome) {
	return outcomeOf(t.supertypeFor(d, 0))
}

func (t *ProducedType) supertypeFor(d TypeDecl, depth int) *ProducedType {
	id := d.ID()
	if id == NoID {
		return t.searchSupertype(DeclarationCriteria(d), hset.Empty[*ProducedType](producedHasher{}), depth)
	}
	m := t.lockMemo()
	cached, ok := m.supertypes[id]
	m.mu.Unlock()
	if ok {
		return cached.t
	}
	st := t.searchSupertype(DeclarationCriteria(d), hset.Empty[*ProducedType](producedHasher{}), depth)
	m = t.lockMemo()
	if m.supertypes == nil {
		m.supertypes = make(map[DeclID]supertypeResult)
	}
	_, outcome := outcomeOf(st)
	m.supertypes[id] = supertypeResult{t: st, outcome: outcome}
	m.mu.Unlock()
	return st
}

func (t *ProducedType) searchSupertype(c Criteria, visited hset.HSet[*ProducedType], depth int) *ProducedType {
	if depth > maxWalkDepth {
		logger.Debug("supertype search too deep, giving up", "type", t, "depth", depth)
		return nil
	}
	switch t.decl.(type) {
	case *NothingType, *BottomType, *UnknownType:
		return nil
	case *UnionType:
		return t.searchUnionSupertype(c, depth)
	}
	if c.Satisfies(t.decl) {
		return t
	}
	if !visited.Add(t) {
		return nil
	}
	var result *ProducedType
	if et := t.ExtendedType(); et != nil {
		result = et.searchSupertype(c, visited, depth+1)
	}
	for _, st := range t.SatisfiedTypes() {
		result = moreSpecific(result, st.searchSupertype(c, visited, depth+1), depth)
		if result != nil && result.IsAmbiguous() {
			return result
		}
	}
	return result
}

// moreSpecific keeps the more specific of two search results. Incomparable instantiations
// of the same declaration are merged into their principal instantiation; anything else
// that is incomparable is ambiguous.
func moreSpecific(result, candidate *ProducedType, depth int) *ProducedType {
	switch {
	case candidate == nil:
		return result
	case result == nil:
		return candidate
	case result.IsAmbiguous() || candidate.IsAmbiguous():
		return result.Graph().ambiguousType()
	case isSubtype(candidate, result, depth+1):
		return candidate
	case isSubtype(result, candidate, depth+1):
		return result
	}
	if SameDecl(candidate.decl, result.decl) {
		pi := principalInstantiation(candidate.decl, result, candidate)
		if !pi.IsBottom() && !pi.ContainsUnknowns() {
			return pi
		}
	}
	logger.Debug("incomparable supertypes", "first", result, "second", candidate)
	return result.Graph().ambiguousType()
}

// searchUnionSupertype finds the most specific declaration every case inherits, then
// combines the instantiations of the cases
func (t *ProducedType) searchUnionSupertype(c Criteria, depth int) *ProducedType {
	var candidates []TypeDecl
	for _, d := range t.decl.SupertypeDeclarations() {
		if c.Satisfies(d) {
			candidates = append(candidates, d)
		}
	}
	candidates = mostSpecificDecls(candidates)
	switch len(candidates) {
	case 0:
		return nil
	case 1:
	default:
		logger.Debug("union inherits incomparable candidates", "type", t, "candidates", len(candidates))
		return t.Graph().ambiguousType()
	}
	dec := candidates[0]
	var result *ProducedType
	for _, ct := range t.CaseTypes() {
		st := ct.supertypeFor(dec, depth+1)
		if st == nil || st.IsUnknown() {
			return st
		}
		if result == nil {
			result = st
			continue
		}
		if result = combineDually(dec, result, st); result == nil {
			return nil
		}
	}
	return result
}

// mostSpecificDecls drops every declaration that is inherited by another one
func mostSpecificDecls(decls []TypeDecl) []TypeDecl {
	var out []TypeDecl
	for _, d := range decls {
		redundant := false
		for _, o := range decls {
			if !SameDecl(d, o) && o.Inherits(d) {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, d)
		}
	}
	return out
}

// combineDually returns the least instantiation of dec that is a supertype of both a and b:
// covariant arguments are united, contravariant ones intersected, and invariant ones must
// agree, otherwise there is none and the result is nil
func combineDually(dec TypeDecl, a, b *ProducedType) *ProducedType {
	g := dec.Graph()
	var qualifying *ProducedType
	if a.qualifying != nil && b.qualifying != nil {
		if !SameDecl(a.qualifying.decl, b.qualifying.decl) {
			return nil
		}
		if qualifying = combineDually(a.qualifying.decl, a.qualifying, b.qualifying); qualifying == nil {
			return nil
		}
	}
	params := dec.TypeParameters()
	args := make([]*ProducedType, len(params))
	for i, tp := range params {
		x, y := argumentOrSelf(a, tp), argumentOrSelf(b, tp)
		switch tp.Variance() {
		case Covariant:
			args[i] = g.Union(x, y)
		case Contravariant:
			args[i] = g.Intersection(x, y)
		default:
			if !x.IsExactly(y) {
				return nil
			}
			args[i] = x
		}
	}
	return dec.ProducedType(qualifying, args)
}

func argumentOrSelf(t *ProducedType, tp *TypeParameter) *ProducedType {
	if a := t.Argument(tp); a != nil {
		return a
	}
	return tp.Type()
}
