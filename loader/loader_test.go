package loader

import (
	"testing"

	"github.com/cottand/typegraph/model"
	"github.com/cottand/typegraph/typerr"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShapes(t *testing.T) *Result {
	t.Helper()
	res, err := LoadFile("testdata/shapes.yaml")
	require.NoError(t, err)
	require.False(t, res.Errors.HasError(), res.Errors.Error())
	return res
}

func mustType(t *testing.T, res *Result, pkg string, src string) *model.ProducedType {
	t.Helper()
	typ, err := res.Type(res.Package(pkg), src)
	require.NoError(t, err, src)
	return typ
}

func TestLoad(t *testing.T) {
	res := loadShapes(t)
	require.Len(t, res.Packages, 2)
	assert.Equal(t, "shapes", res.Packages[0].Name())
	assert.Equal(t, "gallery", res.Packages[1].Name())
	assert.Nil(t, res.Package("missing"))

	ty := func(src string) *model.ProducedType { return mustType(t, res, "shapes", src) }

	testCases := []struct {
		sub, super string
		expected   bool
	}{
		{"Circle", "Shape", true},
		{"Circle", "Named", true},
		{"Square", "Named", false},
		{"Shape", "Circle|Square", true},
		{"Circle?", "Shape?", true},
		{"Circle?", "Shape", false},
		{"Shape&Named", "Circle", true},
		{"Producer<Circle>", "Producer<Shape>", true},
		{"Producer<Shape>", "Producer<Circle>", false},
		{"Box<Integer>", "Box<Object>", false},
		{"Box<Integer>.Inner<Object>", "Box<Integer>.Inner<String>", true},
		{"Box<Integer>.Inner<Object>", "Box<String>.Inner<Object>", false},
		{"Map<String>", "Map<String, String>", true},
		{"Map<String, String>", "Map<String>", true},
		{"Integer|Nothing", "Integer", true},
	}
	for _, tc := range testCases {
		t.Run(tc.sub+" <: "+tc.super, func(t *testing.T) {
			assert.Equal(t, tc.expected, ty(tc.sub).IsSubtypeOf(ty(tc.super)))
		})
	}

	t.Run("optional is a union with Null", func(t *testing.T) {
		assert.True(t, ty("Integer?").IsExactly(res.Graph.Union(ty("Integer"), res.Graph.Null())))
	})

	t.Run("imported declarations", func(t *testing.T) {
		gallery := mustType(t, res, "gallery", "Gallery")
		assert.True(t, gallery.IsSubtypeOf(ty("Producer<Shape>")))
		assert.False(t, gallery.IsSubtypeOf(ty("Producer<Circle>")))

		_, err := res.Type(res.Package("shapes"), "Gallery")
		var unknown typerr.UnknownDeclaration
		require.ErrorAs(t, err, new(*typerr.Errors))
		errs := err.(*typerr.Errors).Errors()
		require.Len(t, errs, 1)
		require.ErrorAs(t, errs[0], &unknown)
		assert.Equal(t, "Gallery", unknown.Name)
	})

	t.Run("values", func(t *testing.T) {
		origin, _ := model.Resolve(res.Package("shapes"), "origin", nil, false)
		require.IsType(t, &model.Value{}, origin)
		assert.Equal(t, "Circle|Null", origin.(*model.Value).Type().String())
		assert.Equal(t, []model.Annotation{{Name: "doc", Args: []string{"the origin"}}}, origin.Annotations())

		pieces, _ := model.Resolve(res.Package("gallery"), "pieces", nil, false)
		require.NotNil(t, pieces)
		assert.True(t, pieces.(*model.Value).Type().IsExactly(ty("Iterable<Circle|Square>")), pieces.(*model.Value).Type().String())
	})
}

func TestLoadOverloads(t *testing.T) {
	res := loadShapes(t)
	shapes := res.Package("shapes")
	ty := func(src string) *model.ProducedType { return mustType(t, res, "shapes", src) }

	abstraction, r := model.Resolve(shapes, "show", nil, false)
	require.NotNil(t, abstraction)
	assert.Equal(t, model.Abstraction, r)
	assert.Len(t, abstraction.(model.Functional).Overloads(), 2)

	forCircle, r := model.Resolve(shapes, "show", []*model.ProducedType{ty("Circle")}, false)
	assert.Equal(t, model.Resolved, r)
	require.NotNil(t, forCircle)
	assert.Equal(t, "shape", forCircle.(*model.Function).ParameterLists()[0].Params[0].Name)

	forInteger, _ := model.Resolve(shapes, "show", []*model.ProducedType{ty("Integer")}, false)
	require.NotNil(t, forInteger)
	assert.Equal(t, "number", forInteger.(*model.Function).ParameterLists()[0].Params[0].Name)

	// without a matching overload the name stands for the whole set
	noMatch, r := model.Resolve(shapes, "show", []*model.ProducedType{ty("String")}, false)
	assert.Same(t, abstraction, noMatch)
	assert.Equal(t, model.Abstraction, r)

	join, _ := model.Resolve(shapes, "join", []*model.ProducedType{ty("String"), ty("String")}, false)
	assert.NotNil(t, join)
	join, _ = model.Resolve(shapes, "join", []*model.ProducedType{}, false)
	assert.NotNil(t, join)
}

func TestLoadRefinements(t *testing.T) {
	res := loadShapes(t)
	shapes := res.Package("shapes")
	circle := shapes.DirectMember("Circle", nil, false).(*model.Class)
	named := shapes.DirectMember("Named", nil, false).(*model.Interface)

	circleName := circle.DirectMember("name", nil, false)
	namedName := named.DirectMember("name", nil, false)
	require.NotNil(t, circleName)
	require.NotNil(t, namedName)
	assert.Same(t, namedName, circleName.Refined())
	assert.Same(t, namedName, namedName.Refined())
	assert.True(t, circleName.Is(model.Actual|model.Shared))
}

func TestLoadCycles(t *testing.T) {
	res, err := LoadFile("testdata/cycle.yaml")
	require.NoError(t, err)
	errs := res.Errors.Errors()
	require.Len(t, errs, 2, spew.Sdump(res.Errors.Error()))

	var cycle typerr.InheritanceCycle
	require.ErrorAs(t, errs[0], &cycle)
	assert.Equal(t, []string{"A", "B", "A"}, cycle.Names)
	assert.Equal(t, typerr.Pos{File: "testdata/cycle.yaml", Line: 5, Column: 5}, cycle.Pos)

	require.ErrorAs(t, errs[1], &cycle)
	assert.Equal(t, []string{"I", "J", "I"}, cycle.Names)

	// the graph stays usable once the cycles are broken
	a := mustType(t, res, "cycle", "A")
	b := mustType(t, res, "cycle", "B")
	assert.True(t, a.IsSubtypeOf(b))
	assert.False(t, b.IsSubtypeOf(a))
	assert.True(t, b.IsSubtypeOf(res.Graph.Object()))
	assert.True(t, mustType(t, res, "cycle", "I").IsSubtypeOf(mustType(t, res, "cycle", "J")))
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name     string
		yaml     string
		code     typerr.ErrCode
		expected string
	}{
		{
			"unknown type",
			"package: p\ndeclarations:\n  - class: A\n    extends: Strin\n",
			typerr.UnknownDeclarationCode,
			"inline.yaml:4:14: (E003) type 'Strin' is not declared",
		},
		{
			"unknown type argument",
			"package: p\ndeclarations:\n  - value: a\n    type: Iterable<Strin>\n",
			typerr.UnknownDeclarationCode,
			"inline.yaml:4:20: (E003) type 'Strin' is not declared",
		},
		{
			"unknown nested type",
			"package: p\ndeclarations:\n  - class: A\n  - value: a\n    type: A.B\n",
			typerr.UnknownDeclarationCode,
			"inline.yaml:5:13: (E003) type 'A.B' is not declared",
		},
		{
			"duplicate value",
			"package: p\ndeclarations:\n  - value: a\n    type: Object\n  - value: a\n    type: Object\n",
			typerr.DuplicateDeclarationCode,
			"inline.yaml:5:5: (E004) 'a' is declared more than once in 'p'",
		},
		{
			"class and value with the same name",
			"package: p\ndeclarations:\n  - class: a\n  - value: a\n    type: Object\n",
			typerr.DuplicateDeclarationCode,
			"",
		},
		{
			"malformed type",
			"package: p\ndeclarations:\n  - value: a\n    type: Iterable<Object\n",
			typerr.MalformedTypeCode,
			"",
		},
		{
			"too many type arguments",
			"package: p\ndeclarations:\n  - value: a\n    type: Object<Object>\n",
			typerr.MalformedTypeCode,
			"inline.yaml:4:11: (E005) malformed type expression 'Object<Object>': Object takes 0 type arguments, not 1",
		},
		{
			"type expression that is not a string",
			"package: p\ndeclarations:\n  - class: A\n    extends: [Object]\n",
			typerr.MalformedTypeCode,
			"",
		},
		{
			"missing package",
			"declarations:\n  - class: A\n",
			typerr.InvalidDescriptionCode,
			"inline.yaml:1:1: (E007) a description needs a package name",
		},
		{
			"two kinds",
			"package: p\ndeclarations:\n  - class: A\n    function: A\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"bad variance",
			"package: p\ndeclarations:\n  - interface: A\n    typeParameters:\n      - name: T\n        variance: up\n",
			typerr.InvalidDescriptionCode,
			"inline.yaml:5:9: (E007) variance must be 'in', 'out' or nothing, not 'up'",
		},
		{
			"class extending an interface",
			"package: p\ndeclarations:\n  - interface: I\n  - class: A\n    extends: I\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"class extending a final class",
			"package: p\ndeclarations:\n  - class: F\n    final: true\n  - class: A\n    extends: F\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"class satisfying a class",
			"package: p\ndeclarations:\n  - class: C\n  - class: A\n    satisfies: [C]\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"value without a type",
			"package: p\ndeclarations:\n  - value: a\n",
			typerr.InvalidDescriptionCode,
			"inline.yaml:3:5: (E007) value a needs a type",
		},
		{
			"value with type parameters",
			"package: p\ndeclarations:\n  - value: a\n    type: Object\n    typeParameters: [{name: T}]\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"members of a value",
			"package: p\ndeclarations:\n  - value: a\n    type: Object\n    members: [{class: B}]\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"sequenced parameter before the last",
			"package: p\ndeclarations:\n  - function: f\n    parameters: [{name: a, type: Object, sequenced: true}, {name: b, type: Object}]\n",
			typerr.InvalidDescriptionCode,
			"",
		},
		{
			"unknown import",
			"package: p\nimports: [q]\n",
			typerr.InvalidDescriptionCode,
			"inline.yaml:1:1: (E007) imported package 'q' is not described",
		},
		{
			"language package",
			"package: lang\n",
			typerr.InvalidDescriptionCode,
			"",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Load(model.NewGraph(), "inline.yaml", []byte(tc.yaml))
			require.NoError(t, err)
			errs := res.Errors.Errors()
			require.Len(t, errs, 1, spew.Sdump(res.Errors.Error()))
			assert.Equal(t, tc.code, errs[0].Code())
			if tc.expected != "" {
				assert.Equal(t, tc.expected, typerr.FormatWithCode(errs[0]))
			}
		})
	}
}

func TestLoadOverloadedClasses(t *testing.T) {
	src := `
package: p
declarations:
  - class: Point
    satisfies: [Named]
    parameters:
      - name: x
        type: Integer
    members:
      - value: x
        type: Integer
  - class: Point
    satisfies: [Named]
    parameters:
      - name: x
        type: Integer
      - name: y
        type: Integer
  - interface: Named
  - class: Integer
    final: true
`
	res, err := Load(model.NewGraph(), "inline.yaml", []byte(src))
	require.NoError(t, err)
	require.False(t, res.Errors.HasError(), res.Errors.Error())

	integer := mustType(t, res, "p", "Integer")
	p := res.Package("p")
	one, _ := model.Resolve(p, "Point", []*model.ProducedType{integer}, false)
	two, _ := model.Resolve(p, "Point", []*model.ProducedType{integer, integer}, false)
	require.NotNil(t, one)
	require.NotNil(t, two)
	assert.NotSame(t, one, two)
	assert.Len(t, two.(*model.Class).ParameterLists()[0].Params, 2)

	abstraction, r := model.Resolve(p, "Point", nil, false)
	assert.Equal(t, model.Abstraction, r)
	assert.True(t, abstraction.(model.Functional).IsAbstraction())

	// as a type, the set is its first overload
	named := mustType(t, res, "p", "Named")
	point := mustType(t, res, "p", "Point")
	assert.Same(t, one, point.Decl())
	assert.True(t, point.IsSubtypeOf(named))
	assert.True(t, mustType(t, res, "p", "Point?").IsSubtypeOf(mustType(t, res, "p", "Named?")))

	set := abstraction.(model.TypeDecl)
	assert.True(t, set.Inherits(named.Decl()))
	x, _ := set.Member("x", nil, false)
	require.NotNil(t, x)
	assert.Equal(t, "x", x.Name())
}

func TestLoadIsOrderIndependent(t *testing.T) {
	res, err := LoadFile("testdata/order.yaml")
	require.NoError(t, err)
	require.False(t, res.Errors.HasError(), res.Errors.Error())
	p := res.Package("order")
	person := mustType(t, res, "order", "Person")

	greet, _ := model.Resolve(p, "greet", nil, false)
	require.IsType(t, &model.Function{}, greet)
	fn := greet.(*model.Function)
	who := fn.ParameterLists()[0].Params[0].Type
	assert.True(t, who.IsExactly(person), "got %s", who)
	assert.True(t, fn.Type().IsExactly(person), "got %s", fn.Type())
	assert.True(t, who.IsExactly(mustType(t, res, "order", "Named & Person")))

	greeter := mustType(t, res, "order", "Greeter")
	assert.True(t, greeter.IsSubtypeOf(mustType(t, res, "order", "Consumer<Person>")))
	st, _ := greeter.Supertype(mustType(t, res, "order", "Consumer<Person>").Decl())
	require.NotNil(t, st)
	assert.Equal(t, "Consumer<Person>", st.String())

	team := mustType(t, res, "order", "Team")
	lead := team.Decl().DirectMember("lead", nil, false)
	require.IsType(t, &model.Value{}, lead)
	assert.True(t, lead.(*model.Value).Type().IsExactly(team), "got %s", lead.(*model.Value).Type())
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	_, err := Load(model.NewGraph(), "inline.yaml", []byte("package: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing inline.yaml")

	_, err = LoadFile("testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading graph description")
}
