package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	f := newFixture()
	g := f.g
	integer, str := f.integer.Type(), f.str.Type()

	testCases := []struct {
		name     string
		members  []*ProducedType
		expected *ProducedType
	}{
		{"empty union is Nothing", nil, g.Nothing()},
		{"single member", []*ProducedType{integer}, integer},
		{"idempotent", []*ProducedType{integer, integer}, integer},
		{"subtype absorbed", []*ProducedType{integer, g.Object()}, g.Object()},
		{"subtype absorbed in any order", []*ProducedType{g.Object(), integer}, g.Object()},
		{"Nothing is the unit", []*ProducedType{g.Nothing(), integer}, integer},
		{"Bottom is the unit", []*ProducedType{integer, g.Bottom()}, integer},
		{"Anything absorbs", []*ProducedType{integer, g.Anything(), str}, g.Anything()},
		{"nested unions are flattened", []*ProducedType{g.Union(integer, str), integer}, g.Union(integer, str)},
		{"cases of Anything", []*ProducedType{g.Object(), g.Null()}, g.Union(g.Null(), g.Object())},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := g.Union(tc.members...)
			assert.True(t, result.IsExactly(tc.expected), "expected %s, got %s", tc.expected, result)
		})
	}

	t.Run("unknown is kept once", func(t *testing.T) {
		u := g.Union(g.Object(), g.Unknown(), g.Unknown())
		require.True(t, u.IsUnion())
		assert.Len(t, u.CaseTypes(), 2)
		assert.True(t, u.ContainsUnknowns())
		assert.Equal(t, "Object|unknown", u.String())
		assert.True(t, g.Union(g.Anything(), g.Unknown()).IsAnything())
	})

	t.Run("members are incomparable", func(t *testing.T) {
		u := g.Union(integer, str, g.Null(), integer, f.circle.Type(), f.shape.Type())
		require.True(t, u.IsUnion())
		cases := u.CaseTypes()
		assert.Len(t, cases, 4)
		for i, a := range cases {
			for j, b := range cases {
				if i != j {
					assert.False(t, a.IsSubtypeOf(b), "%s <: %s in %s", a, b, u)
				}
			}
		}
	})
}

func TestIntersection(t *testing.T) {
	f := newFixture()
	g := f.g
	integer, str := f.integer.Type(), f.str.Type()
	named := f.named.Type()

	testCases := []struct {
		name     string
		members  []*ProducedType
		expected *ProducedType
	}{
		{"empty intersection is Anything", nil, g.Anything()},
		{"idempotent", []*ProducedType{integer, integer}, integer},
		{"supertype absorbed", []*ProducedType{integer, g.Object()}, integer},
		{"supertype absorbed in any order", []*ProducedType{g.Object(), integer}, integer},
		{"Anything is the unit", []*ProducedType{g.Anything(), named}, named},
		{"Bottom absorbs", []*ProducedType{integer, g.Bottom()}, g.Bottom()},
		{"Bottom absorbs in any order", []*ProducedType{g.Bottom(), named}, g.Bottom()},
		{"Nothing absorbs", []*ProducedType{named, g.Nothing()}, g.Nothing()},
		{"final classes", []*ProducedType{integer, str}, g.Bottom()},
		{"final class and unrelated interface", []*ProducedType{integer, named}, g.Bottom()},
		{"disjoint cases of Shape", []*ProducedType{f.circle.Type(), f.square.Type()}, g.Bottom()},
		{"disjoint cases of Anything", []*ProducedType{g.Object(), g.Null()}, g.Bottom()},
		{"interfaces are disjoint from Null", []*ProducedType{named, g.Null()}, g.Bottom()},
		{"invariant arguments disagree", []*ProducedType{of(f.box, integer), of(f.box, str)}, g.Bottom()},
		{"nested intersections are flattened", []*ProducedType{g.Intersection(f.shape.Type(), named), f.circle.Type()}, g.Intersection(f.circle.Type(), named)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := g.Intersection(tc.members...)
			assert.True(t, result.IsExactly(tc.expected), "expected %s, got %s", tc.expected, result)
		})
	}

	t.Run("bottom absorbs everything", func(t *testing.T) {
		for _, typ := range []*ProducedType{integer, named, g.Anything(), g.Union(integer, g.Null()), of(f.box, str)} {
			assert.True(t, g.Intersection(typ, g.Bottom()).IsBottom(), "%s & Bottom", typ)
			assert.True(t, g.Intersection(g.Bottom(), typ).IsBottom(), "Bottom & %s", typ)
		}
	})

	t.Run("unrelated open types are kept", func(t *testing.T) {
		i := g.Intersection(f.shape.Type(), named)
		require.True(t, i.IsIntersection())
		assert.Len(t, i.SatisfiedTypes(), 2)
		assert.Equal(t, "Shape&Named", i.String())
	})

	t.Run("covariant instantiations merge", func(t *testing.T) {
		i := g.Intersection(of(f.producer, f.shape.Type()), of(f.producer, named))
		assert.False(t, i.IsIntersection())
		assert.True(t, i.IsExactly(of(f.producer, g.Intersection(f.shape.Type(), named))), "got %s", i)
	})

	t.Run("contravariant instantiations merge", func(t *testing.T) {
		i := g.Intersection(of(f.consumer, integer), of(f.consumer, str))
		assert.True(t, i.IsExactly(of(f.consumer, g.Union(integer, str))), "got %s", i)
	})

	t.Run("overlapping cases", func(t *testing.T) {
		// E of A|B, where C is both an A and a B
		e := f.interfaceSatisfying("E")
		a := f.interfaceSatisfying("A", e.Type())
		b := f.interfaceSatisfying("B", e.Type())
		e.SetCaseTypes(a.Type(), b.Type())
		c := f.interfaceSatisfying("C", a.Type(), b.Type())
		d := f.interfaceSatisfying("D", a.Type())

		assert.True(t, g.Intersection(a.Type(), b.Type()).IsBottom())
		assert.True(t, g.Intersection(b.Type(), c.Type()).IsExactly(c.Type()), "got %s", g.Intersection(b.Type(), c.Type()))
		assert.True(t, g.Intersection(c.Type(), b.Type()).IsExactly(c.Type()), "got %s", g.Intersection(c.Type(), b.Type()))
		assert.True(t, g.Intersection(b.Type(), d.Type()).IsBottom())

		// C and D share the case A
		cd := g.Intersection(c.Type(), d.Type())
		require.True(t, cd.IsIntersection(), "got %s", cd)
		assert.Len(t, cd.SatisfiedTypes(), 2)
	})

	t.Run("redundant with the intersection as a whole", func(t *testing.T) {
		// the union is a supertype of neither Shape nor Named, but it is of Shape&Named
		u := g.Union(g.Intersection(f.circle.Type(), named), f.square.Type(), integer)
		require.True(t, u.IsUnion())
		require.Len(t, u.CaseTypes(), 3)

		i := g.Intersection(f.shape.Type(), named, u)
		require.True(t, i.IsIntersection())
		assert.True(t, i.IsExactly(g.Intersection(f.shape.Type(), named)), "got %s", i)
	})
}

func TestDefiniteType(t *testing.T) {
	f := newFixture()
	g := f.g
	integer := f.integer.Type()

	assert.True(t, g.DefiniteType(g.Union(integer, g.Null())).IsExactly(integer))
	assert.True(t, g.DefiniteType(integer).IsExactly(integer))
	assert.True(t, g.DefiniteType(g.Null()).IsBottom())
	assert.True(t, g.DefiniteType(g.Anything()).IsExactly(g.Anything()))
}
