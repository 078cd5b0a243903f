package model

// fixture is a small graph shared by the tests of this package:
//
//	final class Integer, String, Boolean
//	interface Named
//	abstract class Shape of Circle | Square
//	class Circle extends Shape, class Square extends Shape
//	interface Box<T>, Producer<out T>, Consumer<in T>
//	class List<out T> satisfies Iterable<T>
type fixture struct {
	g   *Graph
	pkg *Package

	integer, str, boolean *Class
	named                 *Interface
	shape, circle, square *Class
	box, producer         *Interface
	consumer              *Interface
	list                  *Class
}

func newFixture() *fixture {
	g := NewGraph()
	f := &fixture{g: g, pkg: g.Package("test")}

	f.integer = g.NewClass(f.pkg, "Integer", Shared|Final)
	f.str = g.NewClass(f.pkg, "String", Shared|Final)
	f.boolean = g.NewClass(f.pkg, "Boolean", Shared|Final)
	f.named = g.NewInterface(f.pkg, "Named", Shared)

	f.shape = g.NewClass(f.pkg, "Shape", Shared|Abstract)
	f.circle = g.NewClass(f.pkg, "Circle", Shared)
	f.square = g.NewClass(f.pkg, "Square", Shared)
	f.circle.SetExtendedType(f.shape.Type())
	f.square.SetExtendedType(f.shape.Type())
	f.shape.SetCaseTypes(f.circle.Type(), f.square.Type())

	f.box = g.NewInterface(f.pkg, "Box", Shared)
	g.NewTypeParameter(f.box, "T", Invariant)
	f.producer = g.NewInterface(f.pkg, "Producer", Shared)
	g.NewTypeParameter(f.producer, "T", Covariant)
	f.consumer = g.NewInterface(f.pkg, "Consumer", Shared)
	g.NewTypeParameter(f.consumer, "T", Contravariant)

	f.list = g.NewClass(f.pkg, "List", Shared)
	elem := g.NewTypeParameter(f.list, "T", Covariant)
	f.list.SetSatisfiedTypes(g.IterableOf(elem.Type()))
	return f
}

// of instantiates d with args
func of(d TypeDecl, args ...*ProducedType) *ProducedType {
	return d.ProducedType(nil, args)
}

func (f *fixture) interfaceSatisfying(name string, supertypes ...*ProducedType) *Interface {
	i := f.g.NewInterface(f.pkg, name, Shared)
	i.SetSatisfiedTypes(supertypes...)
	return i
}

func (f *fixture) function(container Scope, name string, flags Flags, params ...*Parameter) *Function {
	fn := f.g.NewFunction(container, name, flags)
	fn.AddParameterList(NewParameterList(params...))
	return fn
}

func param(name string, t *ProducedType) *Parameter {
	return &Parameter{Name: name, Type: t}
}

func sequenced(name string, elem *ProducedType) *Parameter {
	return &Parameter{Name: name, Type: elem, Sequenced: true}
}

func sig(ts ...*ProducedType) []*ProducedType {
	if ts == nil {
		return []*ProducedType{}
	}
	return ts
}
