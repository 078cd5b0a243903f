package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalInstantiation(t *testing.T) {
	f := newFixture()
	g := f.g
	integer, str := f.integer.Type(), f.str.Type()

	testCases := []struct {
		name     string
		decl     TypeDecl
		a, b     *ProducedType
		expected *ProducedType
	}{
		{"invariant, same argument", f.box, of(f.box, integer), of(f.box, integer), of(f.box, integer)},
		{"invariant, different arguments", f.box, of(f.box, integer), of(f.box, str), g.Bottom()},
		{"covariant arguments intersect", f.producer, of(f.producer, f.shape.Type()), of(f.producer, f.named.Type()), of(f.producer, g.Intersection(f.shape.Type(), f.named.Type()))},
		{"covariant arguments related by subtyping", f.producer, of(f.producer, g.Object()), of(f.producer, integer), of(f.producer, integer)},
		{"contravariant arguments unite", f.consumer, of(f.consumer, integer), of(f.consumer, str), of(f.consumer, g.Union(integer, str))},
		{"covariant disjoint arguments", f.producer, of(f.producer, integer), of(f.producer, str), of(f.producer, g.Bottom())},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := PrincipalInstantiation(tc.decl, tc.a, tc.b)
			assert.True(t, result.IsExactly(tc.expected), "expected %s, got %s", tc.expected, result)
		})
	}
}

func TestPrincipalInstantiationIsIdempotent(t *testing.T) {
	f := newFixture()
	for _, typ := range []*ProducedType{
		of(f.box, f.integer.Type()),
		of(f.producer, f.g.Union(f.str.Type(), f.g.Null())),
		of(f.consumer, f.shape.Type()),
	} {
		result := PrincipalInstantiation(typ.Decl(), typ, typ)
		assert.True(t, result.IsExactly(typ), "expected %s, got %s", typ, result)
	}
}

func TestPrincipalInstantiationWithTypeParameters(t *testing.T) {
	f := newFixture()
	holder := f.g.NewClass(f.pkg, "Holder", Shared)
	x := f.g.NewTypeParameter(holder, "X", Invariant)

	result := PrincipalInstantiation(f.box, of(f.box, x.Type()), of(f.box, f.integer.Type()))
	require.NotNil(t, result)
	assert.False(t, result.IsBottom())
	assert.True(t, SameDecl(result.Decl(), f.box))
	assert.True(t, result.ContainsUnknowns(), "got %s", result)
}

func TestPrincipalInstantiationOfNestedType(t *testing.T) {
	g := NewGraph()
	pkg := g.Package("test")
	integer := g.NewClass(pkg, "Integer", Shared|Final)
	str := g.NewClass(pkg, "String", Shared|Final)
	outer := g.NewInterface(pkg, "Outer", Shared)
	g.NewTypeParameter(outer, "O", Covariant)
	inner := g.NewInterface(outer, "Inner", Shared)
	g.NewTypeParameter(inner, "I", Contravariant)

	a := inner.ProducedType(outer.ProducedType(nil, []*ProducedType{integer.Type()}), []*ProducedType{integer.Type()})
	b := inner.ProducedType(outer.ProducedType(nil, []*ProducedType{g.Object()}), []*ProducedType{str.Type()})

	result := PrincipalInstantiation(inner, a, b)
	expected := inner.ProducedType(
		outer.ProducedType(nil, []*ProducedType{integer.Type()}),
		[]*ProducedType{g.Union(integer.Type(), str.Type())},
	)
	assert.True(t, result.IsExactly(expected), "expected %s, got %s", expected, result)
	assert.Equal(t, "Outer<Integer>.Inner<Integer|String>", result.String())

	t.Run("disjoint qualifying types", func(t *testing.T) {
		box := g.NewInterface(pkg, "Box", Shared)
		g.NewTypeParameter(box, "T", Invariant)
		nested := g.NewInterface(box, "Nested", Shared)
		x := nested.ProducedType(box.ProducedType(nil, []*ProducedType{integer.Type()}), nil)
		y := nested.ProducedType(box.ProducedType(nil, []*ProducedType{str.Type()}), nil)
		assert.True(t, PrincipalInstantiation(nested, x, y).IsBottom())
	})
}
