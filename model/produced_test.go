package model

import (
	"testing"

	"github.com/cottand/typegraph/typerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	f := newFixture()
	g := f.g
	pair := g.NewInterface(f.pkg, "Pair", Shared)
	g.NewTypeParameter(pair, "A", Covariant)
	g.NewTypeParameter(pair, "B", Covariant)
	holder := g.NewFunction(f.pkg, "holder", Shared)
	x := g.NewTypeParameter(holder, "X", Invariant)
	y := g.NewTypeParameter(holder, "Y", Invariant)

	generic := of(pair, x.Type(), g.IterableOf(y.Type()))
	args := NewTypeArgs().With(x, f.integer.Type()).With(y, f.str.Type())

	result := generic.Substitute(args)
	expected := of(pair, f.integer.Type(), g.IterableOf(f.str.Type()))
	assert.True(t, result.IsExactly(expected), "expected %s, got %s", expected, result)
	assert.False(t, result.InvolvesTypeParameters())
	assert.True(t, generic.InvolvesTypeParameters())

	t.Run("is idempotent", func(t *testing.T) {
		assert.Same(t, result, result.Substitute(args))
	})

	t.Run("shares what it does not touch", func(t *testing.T) {
		partial := generic.Substitute(NewTypeArgs().With(x, f.integer.Type()))
		second, _ := partial.ExplicitArguments().Get(pair.TypeParameters()[1])
		first, _ := generic.ExplicitArguments().Get(pair.TypeParameters()[1])
		assert.Same(t, first, second)
	})

	t.Run("with no arguments", func(t *testing.T) {
		assert.Same(t, generic, generic.Substitute(NewTypeArgs()))
		assert.Same(t, generic, generic.Substitute(TypeArgs{}))
	})

	t.Run("recanonicalises unions", func(t *testing.T) {
		u := g.Union(x.Type(), f.integer.Type())
		require.True(t, u.IsUnion())
		s := u.Substitute(NewTypeArgs().With(x, g.Object()))
		assert.True(t, s.IsExactly(g.Object()), "got %s", s)
	})

	t.Run("recanonicalises intersections", func(t *testing.T) {
		i := g.Intersection(x.Type(), f.integer.Type())
		require.True(t, i.IsIntersection())
		s := i.Substitute(NewTypeArgs().With(x, f.str.Type()))
		assert.True(t, s.IsBottom(), "got %s", s)
	})
}

func TestDefaultTypeArguments(t *testing.T) {
	f := newFixture()
	g := f.g
	mapping := g.NewInterface(f.pkg, "Map", Shared)
	k := g.NewTypeParameter(mapping, "K", Invariant)
	v := g.NewTypeParameter(mapping, "V", Invariant)
	v.SetDefaultTypeArgument(k.Type())

	short := of(mapping, f.str.Type())
	full := of(mapping, f.str.Type(), f.str.Type())

	assert.Equal(t, 1, short.ExplicitArguments().Len())
	assert.True(t, short.Argument(v).IsExactly(f.str.Type()))
	assert.True(t, short.IsExactly(full))
	assert.True(t, full.IsExactly(short))
	assert.Equal(t, full.Hash(), short.Hash())
	assert.Equal(t, 2, short.TypeArguments().Len())
	assert.Equal(t, "Map<String>", short.String())

	assert.False(t, of(mapping, f.str.Type(), f.integer.Type()).IsExactly(short))
}

func TestDefaultTypeArgumentsAreUndecidable(t *testing.T) {
	g := NewGraph()
	pkg := g.Package("test")
	c := g.NewInterface(pkg, "C", Shared)
	first := g.NewTypeParameter(c, "T", Invariant)
	second := g.NewTypeParameter(c, "U", Invariant)
	first.SetDefaultTypeArgument(second.Type())
	second.SetDefaultTypeArgument(first.Type())

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(typerr.UndecidableDefaults)
		require.True(t, ok, "unexpected panic value %#v", r)
		assert.Equal(t, "test::C", err.Declaration)
		assert.Equal(t, maxDefaultDepth, err.Depth)
		assert.Equal(t, typerr.UndecidableDefaultsCode, err.Code())
	}()
	c.ProducedType(nil, nil).Argument(first)
}

func TestNestedProducedType(t *testing.T) {
	g := NewGraph()
	pkg := g.Package("test")
	integer := g.NewClass(pkg, "Integer", Shared|Final)
	str := g.NewClass(pkg, "String", Shared|Final)
	outer := g.NewClass(pkg, "Outer", Shared)
	o := g.NewTypeParameter(outer, "O", Invariant)
	inner := g.NewClass(outer, "Inner", Shared)
	i := g.NewTypeParameter(inner, "I", Invariant)
	inner.SetExtendedType(g.IterableOf(o.Type()))

	typ := inner.ProducedType(outer.ProducedType(nil, []*ProducedType{integer.Type()}), []*ProducedType{str.Type()})

	assert.Equal(t, "Outer<Integer>.Inner<String>", typ.String())
	assert.Equal(t, "Outer<O>.Inner<I>", inner.Type().String())
	assert.True(t, typ.Argument(o).IsExactly(integer.Type()))
	assert.True(t, typ.Argument(i).IsExactly(str.Type()))
	assert.Equal(t, 2, typ.TypeArguments().Len())
	assert.True(t, typ.ExtendedType().IsExactly(g.IterableOf(integer.Type())), "got %s", typ.ExtendedType())

	t.Run("unqualified defaults to the outer self type", func(t *testing.T) {
		bare := inner.ProducedType(nil, []*ProducedType{str.Type()})
		require.NotNil(t, bare.QualifyingType())
		assert.True(t, bare.QualifyingType().IsExactly(outer.Type()))
	})
}

func TestInstantiatedSupertypes(t *testing.T) {
	f := newFixture()
	list := of(f.list, f.integer.Type())

	satisfied := list.SatisfiedTypes()
	require.Len(t, satisfied, 1)
	assert.True(t, satisfied[0].IsExactly(f.g.IterableOf(f.integer.Type())))
	assert.True(t, list.ExtendedType().IsExactly(f.g.Object()))

	cases := f.shape.Type().CaseTypes()
	require.Len(t, cases, 2)
	assert.True(t, cases[0].IsExactly(f.circle.Type()))
}

func TestHashIsConsistentWithIsExactly(t *testing.T) {
	f := newFixture()
	g := f.g
	pairs := [][2]*ProducedType{
		{g.Union(f.integer.Type(), f.str.Type()), g.Union(f.str.Type(), f.integer.Type())},
		{g.Intersection(f.shape.Type(), f.named.Type()), g.Intersection(f.named.Type(), f.shape.Type())},
		{g.Nothing(), g.Bottom()},
		{of(f.box, f.integer.Type()), of(f.box, f.integer.Type())},
	}
	for _, p := range pairs {
		require.True(t, p[0].IsExactly(p[1]), "%s and %s", p[0], p[1])
		assert.Equal(t, p[0].Hash(), p[1].Hash(), "%s and %s", p[0], p[1])
	}
	assert.False(t, g.Unknown().IsExactly(g.Unknown()))
}
