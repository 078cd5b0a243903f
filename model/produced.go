package model

import (
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"github.com/cottand/typegraph/typerr"
)

// maxDefaultDepth bounds the chain of default type arguments resolved for a single read
const maxDefaultDepth = 50

// ProducedType is an instantiation of a TypeDecl: the declaration, the type it is qualified
// by when the declaration is nested in another type, and the arguments bound to its type
// parameters. It is immutable once built; defaults and supertypes are computed lazily
// and memoised on the value.
type ProducedType struct {
	decl       TypeDecl
	qualifying *ProducedType
	args       TypeArgs
	memo       *producedMemo
}

// producedMemo is reset whenever the epoch of the graph moves past the one it was filled at
type producedMemo struct {
	mu         sync.Mutex
	epoch      uint64
	defaults   map[DeclID]*ProducedType
	supertypes map[DeclID]supertypeResult
}

type supertypeResult struct {
	t       *ProducedType
	outcome Outcome
}

func newProducedType(decl TypeDecl, qualifying *ProducedType, args TypeArgs) *ProducedType {
	return &ProducedType{decl: decl, qualifying: qualifying, args: args, memo: &producedMemo{}}
}

func bindPositionally(d TypeDecl, qualifying *ProducedType, args []*ProducedType) *ProducedType {
	params := d.TypeParameters()
	if len(args) > len(params) {
		logger.Debug("too many type arguments, ignoring the extra ones", "decl", d.QualifiedName(), "args", len(args), "params", len(params))
	}
	if qualifying == nil {
		if outer, ok := d.Container().(TypeDecl); ok {
			qualifying = outer.Type()
		}
	}
	return newProducedType(d, qualifying, TypeArgsOf(params, args))
}

// lockMemo locks the memo, first dropping whatever was computed at an older epoch
func (t *ProducedType) lockMemo() *producedMemo {
	m := t.memo
	m.mu.Lock()
	if epoch := t.decl.Graph().Epoch(); m.epoch != epoch {
		m.epoch = epoch
		m.defaults = nil
		m.supertypes = nil
	}
	return m
}

func (t *ProducedType) Decl() TypeDecl { return t.decl }

// QualifyingType is nil when the declaration is not nested in a type
func (t *ProducedType) QualifyingType() *ProducedType { return t.qualifying }

func (t *ProducedType) Graph() *Graph { return t.decl.Graph() }

// ExplicitArguments returns the arguments given when the type was produced,
// without defaults and without the arguments of the qualifying type
func (t *ProducedType) ExplicitArguments() TypeArgs { return t.args }

// Argument returns the argument of tp, which may be a type parameter of the declaration
// or of any declaration it is nested in. Unbound parameters without a default are nil.
func (t *ProducedType) Argument(tp *TypeParameter) *ProducedType {
	return t.argument(tp, 0)
}

// TypeArguments returns every argument, defaults included, merged from the outermost
// qualifying type inwards
func (t *ProducedType) TypeArguments() TypeArgs {
	var all TypeArgs
	if t.qualifying != nil {
		all = t.qualifying.TypeArguments()
	} else {
		all = NewTypeArgs()
	}
	for _, tp := range t.decl.TypeParameters() {
		if a := t.argument(tp, 0); a != nil {
			all = all.With(tp, a)
		}
	}
	return all
}

func (t *ProducedType) argument(tp *TypeParameter, depth int) *ProducedType {
	if a, ok := t.args.Get(tp); ok {
		return a
	}
	if SameDecl(tp.declaration, t.decl) {
		return t.defaultArgument(tp, depth)
	}
	if t.qualifying != nil {
		return t.qualifying.argument(tp, depth)
	}
	return nil
}

func (t *ProducedType) defaultArgument(tp *TypeParameter, depth int) *ProducedType {
	def := tp.DefaultTypeArgument()
	if def == nil {
		return nil
	}
	if depth > maxDefaultDepth {
		err := typerr.New(typerr.UndecidableDefaults{
			Declaration: t.decl.QualifiedName(),
			Parameter:   tp.Name(),
			Depth:       maxDefaultDepth,
		})
		logger.Error("giving up on default type arguments", "type", t.decl.QualifiedName(), "err", err)
		panic(err)
	}

	m := t.lockMemo()
	cached, ok := m.defaults[tp.ID()]
	m.mu.Unlock()
	if ok {
		return cached
	}

	resolved := def.substituteWith(func(leaf *TypeParameter) *ProducedType {
		return t.argument(leaf, depth+1)
	})

	m = t.lockMemo()
	if m.defaults == nil {
		m.defaults = make(map[DeclID]*ProducedType)
	}
	m.defaults[tp.ID()] = resolved
	m.mu.Unlock()
	return resolved
}

// Substitute replaces every type parameter bound in args, wherever it occurs in t.
// Unions and intersections are canonicalised again after substitution.
func (t *ProducedType) Substitute(args TypeArgs) *ProducedType {
	if args.Len() == 0 {
		return t
	}
	return t.substituteWith(func(tp *TypeParameter) *ProducedType {
		a, _ := args.Get(tp)
		return a
	})
}

// substituteWith rebuilds t with each type parameter leaf replaced by resolve(leaf),
// or left alone when resolve returns nil. Untouched subtrees are shared, not copied.
func (t *ProducedType) substituteWith(resolve func(*TypeParameter) *ProducedType) *ProducedType {
	g := t.Graph()
	switch d := t.decl.(type) {
	case *TypeParameter:
		if r := resolve(d); r != nil {
			return r
		}
		return t
	case *UnionType:
		cases, changed := substituteAll(d.cases, resolve)
		if !changed {
			return t
		}
		return g.Union(cases...)
	case *IntersectionType:
		members, changed := substituteAll(d.members, resolve)
		if !changed {
			return t
		}
		return g.Intersection(members...)
	case *NothingType, *BottomType, *UnknownType:
		return t
	}

	changed := false
	qualifying := t.qualifying
	if qualifying != nil {
		qualifying = qualifying.substituteWith(resolve)
		changed = qualifying != t.qualifying
	}
	args := t.args
	for tp, a := range t.args.All() {
		if s := a.substituteWith(resolve); s != a {
			args = args.With(tp, s)
			changed = true
		}
	}
	if !changed {
		return t
	}
	return newProducedType(t.decl, qualifying, args)
}

func substituteAll(ts []*ProducedType, resolve func(*TypeParameter) *ProducedType) ([]*ProducedType, bool) {
	out := make([]*ProducedType, len(ts))
	changed := false
	for i, t := range ts {
		out[i] = t.substituteWith(resolve)
		changed = changed || out[i] != t
	}
	return out, changed
}

// resolver substitutes the arguments of t, defaults and qualifying type included
func (t *ProducedType) resolver() func(*TypeParameter) *ProducedType {
	return func(tp *TypeParameter) *ProducedType {
		return t.argument(tp, 0)
	}
}

// ExtendedType is the extended type of the declaration, as seen through this instantiation
func (t *ProducedType) ExtendedType() *ProducedType {
	et := t.decl.ExtendedType()
	if et == nil {
		return nil
	}
	return et.substituteWith(t.resolver())
}

func (t *ProducedType) SatisfiedTypes() []*ProducedType {
	return t.instantiateAll(t.decl.SatisfiedTypes())
}

func (t *ProducedType) CaseTypes() []*ProducedType {
	return t.instantiateAll(t.decl.CaseTypes())
}

func (t *ProducedType) instantiateAll(ts []*ProducedType) []*ProducedType {
	if len(ts) == 0 {
		return nil
	}
	switch t.decl.(type) {
	case *UnionType, *IntersectionType, *TypeParameter:
		return ts
	}
	resolve := t.resolver()
	out := make([]*ProducedType, len(ts))
	for i, st := range ts {
		out[i] = st.substituteWith(resolve)
	}
	return out
}

func (t *ProducedType) IsUnion() bool {
	_, ok := t.decl.(*UnionType)
	return ok
}

func (t *ProducedType) IsIntersection() bool {
	_, ok := t.decl.(*IntersectionType)
	return ok
}

func (t *ProducedType) IsTypeParameter() bool {
	_, ok := t.decl.(*TypeParameter)
	return ok
}

// IsBottom is true for Nothing and for the uninhabited type intersections collapse to
func (t *ProducedType) IsBottom() bool {
	switch t.decl.(type) {
	case *NothingType, *BottomType:
		return true
	}
	return false
}

// IsUnknown is true for unresolved types, including the ambiguity marker
func (t *ProducedType) IsUnknown() bool {
	_, ok := t.decl.(*UnknownType)
	return ok
}

func (t *ProducedType) IsAmbiguous() bool {
	u, ok := t.decl.(*UnknownType)
	return ok && u.ambiguous
}

func (t *ProducedType) IsAnything() bool {
	return t.decl == TypeDecl(t.Graph().anything)
}

// InvolvesTypeParameters reports whether any type parameter occurs in t
func (t *ProducedType) InvolvesTypeParameters() bool {
	return t.anyLeaf(func(leaf *ProducedType) bool { return leaf.IsTypeParameter() })
}

// ContainsUnknowns reports whether any unresolved type occurs in t
func (t *ProducedType) ContainsUnknowns() bool {
	return t.anyLeaf(func(leaf *ProducedType) bool { return leaf.IsUnknown() })
}

func (t *ProducedType) anyLeaf(pred func(*ProducedType) bool) bool {
	if pred(t) {
		return true
	}
	switch d := t.decl.(type) {
	case *UnionType:
		for _, c := range d.cases {
			if c.anyLeaf(pred) {
				return true
			}
		}
		return false
	case *IntersectionType:
		for _, m := range d.members {
			if m.anyLeaf(pred) {
				return true
			}
		}
		return false
	}
	if t.qualifying != nil && t.qualifying.anyLeaf(pred) {
		return true
	}
	for _, a := range t.args.All() {
		if a.anyLeaf(pred) {
			return true
		}
	}
	return false
}

// IsExactly reports whether t and other denote the same type. Unknown types are not
// exactly anything, not even themselves.
func (t *ProducedType) IsExactly(other *ProducedType) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.IsUnknown() || other.IsUnknown() {
		return false
	}
	if t == other {
		return true
	}
	if t.IsBottom() || other.IsBottom() {
		return t.IsBottom() && other.IsBottom()
	}
	switch d := t.decl.(type) {
	case *UnionType:
		od, ok := other.decl.(*UnionType)
		return ok && sameMembers(d.cases, od.cases)
	case *IntersectionType:
		od, ok := other.decl.(*IntersectionType)
		return ok && sameMembers(d.members, od.members)
	}
	if !SameDecl(t.decl, other.decl) {
		return false
	}
	if (t.qualifying == nil) != (other.qualifying == nil) {
		return false
	}
	if t.qualifying != nil && !t.qualifying.IsExactly(other.qualifying) {
		return false
	}
	for _, tp := range t.decl.TypeParameters() {
		a, b := t.Argument(tp), other.Argument(tp)
		if a == nil {
			a = tp.Type()
		}
		if b == nil {
			b = tp.Type()
		}
		if !a.IsExactly(b) {
			return false
		}
	}
	return true
}

func sameMembers(a, b []*ProducedType) bool {
	if len(a) != len(b) {
		return false
	}
	contained := func(xs, ys []*ProducedType) bool {
		for _, x := range xs {
			found := false
			for _, y := range ys {
				if x.IsExactly(y) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return contained(a, b) && contained(b, a)
}

// IsEquivalentTo reports whether t and other are subtypes of each other
func (t *ProducedType) IsEquivalentTo(other *ProducedType) bool {
	return t.IsSubtypeOf(other) && other.IsSubtypeOf(t)
}

// Hash is consistent with IsExactly: types that are exactly the same hash the same
func (t *ProducedType) Hash() uint32 {
	switch d := t.decl.(type) {
	case *NothingType, *BottomType:
		return hashString("Nothing")
	case *UnionType:
		return commutativeHash(KindUnion, d.cases)
	case *IntersectionType:
		return commutativeHash(KindIntersection, d.members)
	}
	h := hashString(t.decl.QualifiedName())
	if t.qualifying != nil {
		h = h*31 + t.qualifying.Hash()
	}
	for _, tp := range t.decl.TypeParameters() {
		if a := t.Argument(tp); a != nil {
			h = h*31 + a.Hash()
		} else {
			h = h*31 + tp.Type().Hash()
		}
	}
	return h
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func commutativeHash(kind DeclKind, ts []*ProducedType) uint32 {
	h := uint32(kind) * 0x9e3779b9
	for _, t := range ts {
		h += t.Hash()
	}
	return h
}

// String renders the type with the arguments it was given explicitly:
// Box<String>, Outer<X>.Inner<Y>, A|B, (A|B)&C
func (t *ProducedType) String() string {
	if t == nil {
		return "<nil>"
	}
	switch d := t.decl.(type) {
	case *UnionType:
		return renderUnion(d.cases)
	case *IntersectionType:
		return renderIntersection(d.members)
	}
	var sb strings.Builder
	if t.qualifying != nil {
		sb.WriteString(t.qualifying.String())
		sb.WriteString(".")
	}
	name := t.decl.Name()
	if name == "" {
		name = "<anonymous>"
	}
	sb.WriteString(name)
	var args []string
	for _, tp := range t.decl.TypeParameters() {
		a, ok := t.args.Get(tp)
		if !ok {
			break
		}
		args = append(args, a.String())
	}
	if len(args) > 0 {
		sb.WriteString("<")
		sb.WriteString(strings.Join(args, ", "))
		sb.WriteString(">")
	}
	return sb.String()
}

func (t *ProducedType) LogValue() slog.Value {
	return slog.StringValue(t.String())
}

var _ slog.LogValuer = (*ProducedType)(nil)
