package model

import (
	"cmp"
	"iter"
	"slices"

	"github.com/benbjohnson/immutable"
)

type declIDHasher struct{}

func (declIDHasher) Hash(id DeclID) uint32  { return uint32(id) }
func (declIDHasher) Equal(a, b DeclID) bool { return a == b }

var _ immutable.Hasher[DeclID] = declIDHasher{}

type typeArg struct {
	param *TypeParameter
	arg   *ProducedType
}

// TypeArgs is a persistent map from type parameters to their arguments.
// The zero value is an empty map.
type TypeArgs struct {
	m *immutable.Map[DeclID, typeArg]
}

func NewTypeArgs() TypeArgs {
	return TypeArgs{m: immutable.NewMap[DeclID, typeArg](declIDHasher{})}
}

// TypeArgsOf binds params to args positionally
func TypeArgsOf(params []*TypeParameter, args []*ProducedType) TypeArgs {
	ta := NewTypeArgs()
	for i, p := range params {
		if i >= len(args) {
			break
		}
		ta = ta.With(p, args[i])
	}
	return ta
}

func (a TypeArgs) Len() int {
	if a.m == nil {
		return 0
	}
	return a.m.Len()
}

func (a TypeArgs) Get(tp *TypeParameter) (*ProducedType, bool) {
	if a.m == nil || tp == nil {
		return nil, false
	}
	v, ok := a.m.Get(tp.ID())
	return v.arg, ok
}

// With returns a copy of a where tp is bound to t
func (a TypeArgs) With(tp *TypeParameter, t *ProducedType) TypeArgs {
	m := a.m
	if m == nil {
		m = immutable.NewMap[DeclID, typeArg](declIDHasher{})
	}
	return TypeArgs{m: m.Set(tp.ID(), typeArg{param: tp, arg: t})}
}

// Merge returns the bindings of both maps; where both bind a parameter, inner wins
func (a TypeArgs) Merge(inner TypeArgs) TypeArgs {
	merged := a
	for tp, t := range inner.All() {
		merged = merged.With(tp, t)
	}
	return merged
}

// All iterates over the bindings ordered by type parameter handle
func (a TypeArgs) All() iter.Seq2[*TypeParameter, *ProducedType] {
	return func(yield func(*TypeParameter, *ProducedType) bool) {
		if a.m == nil {
			return
		}
		entries := make([]typeArg, 0, a.m.Len())
		it := a.m.Iterator()
		for !it.Done() {
			_, v, _ := it.Next()
			entries = append(entries, v)
		}
		slices.SortFunc(entries, func(x, y typeArg) int {
			return cmp.Compare(x.param.ID(), y.param.ID())
		})
		for _, e := range entries {
			if !yield(e.param, e.arg) {
				return
			}
		}
	}
}
