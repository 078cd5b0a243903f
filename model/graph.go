package model

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cottand/typegraph/internal/log"
)

var logger = log.DefaultLogger.With("section", "model")

// DeclID is the stable handle of a declaration inside its Graph.
// Synthetic declarations (unions and intersections) are not registered and have NoID.
type DeclID uint32

const NoID DeclID = 0

// LanguagePackage is the name of the package holding the built-in declarations
const LanguagePackage = "lang"

// Graph is the arena every declaration lives in.
//
// It is populated by a scanning collaborator (see package loader) and then queried.
// Shape mutations after caches have been filled go through the Set* methods of the
// declarations, which bump both the declaration's generation and the graph's epoch,
// so that every cache stamped with an older epoch is recomputed on its next read.
type Graph struct {
	mu       sync.RWMutex
	decls    []Decl
	packages map[string]*Package

	epoch atomic.Uint64

	cacheMu        sync.Mutex
	supertypeDecls map[DeclID]supertypeDeclsEntry

	lang      *Package
	anything  *Class
	object    *Class
	null      *Class
	iterable  *Interface
	element   *TypeParameter
	nothing   *NothingType
	bottom    *BottomType
	unknown   *UnknownType
	ambiguous *UnknownType
}

type supertypeDeclsEntry struct {
	epoch uint64
	ids   []DeclID
}

// NewGraph returns a Graph containing only the language package:
//
//	abstract class Anything of Object | Null
//	abstract class Object extends Anything
//	abstract class Null extends Anything
//	interface Iterable<out Element>
//	Nothing
func NewGraph() *Graph {
	g := &Graph{
		decls:          []Decl{nil},
		packages:       make(map[string]*Package),
		supertypeDecls: make(map[DeclID]supertypeDeclsEntry),
	}
	g.lang = g.Package(LanguagePackage)

	g.anything = g.NewClass(g.lang, "Anything", Shared|Abstract)
	g.object = g.NewClass(g.lang, "Object", Shared|Abstract)
	g.null = g.NewClass(g.lang, "Null", Shared|Abstract)
	g.object.SetExtendedType(g.anything.Type())
	g.null.SetExtendedType(g.anything.Type())
	g.anything.SetCaseTypes(g.object.Type(), g.null.Type())

	g.iterable = g.NewInterface(g.lang, "Iterable", Shared)
	g.element = g.NewTypeParameter(g.iterable, "Element", Covariant)

	g.nothing = &NothingType{}
	g.nothing.init(g, g.lang, "Nothing", KindNothing, Shared, g.nothing)
	g.lang.addMember(g.nothing)

	g.bottom = &BottomType{}
	g.bottom.init(g, g.lang, "Bottom", KindBottom, 0, g.bottom)
	g.unknown = &UnknownType{}
	g.unknown.init(g, g.lang, "unknown", KindUnknown, 0, g.unknown)
	g.ambiguous = &UnknownType{ambiguous: true}
	g.ambiguous.init(g, g.lang, "ambiguous", KindUnknown, 0, g.ambiguous)
	return g
}

func (g *Graph) register(d Decl) DeclID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decls = append(g.decls, d)
	return DeclID(len(g.decls) - 1)
}

// Decl returns the declaration with handle id, or nil
func (g *Graph) Decl(id DeclID) Decl {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id]
}

// Decls returns a snapshot of every registered declaration, in registration order
func (g *Graph) Decls() []Decl {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.decls[1:])
}

// Package returns the package called name, creating it if needed
func (g *Graph) Package(name string) *Package {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.packages[name]; ok {
		return p
	}
	p := &Package{name: name, graph: g}
	g.packages[name] = p
	return p
}

// Packages returns every package, the language package included
func (g *Graph) Packages() []*Package {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pkgs := make([]*Package, 0, len(g.packages))
	for _, p := range g.packages {
		pkgs = append(pkgs, p)
	}
	slices.SortFunc(pkgs, func(a, b *Package) int {
		if a.name < b.name {
			return -1
		}
		if a.name > b.name {
			return 1
		}
		return 0
	})
	return pkgs
}

func (g *Graph) LanguagePackage() *Package { return g.lang }

// Epoch changes every time the shape of any declaration changes
func (g *Graph) Epoch() uint64 { return g.epoch.Load() }

func (g *Graph) touch(d Decl) {
	d.base().generation.Add(1)
	epoch := g.epoch.Add(1)
	logger.Debug("declaration shape changed", "decl", d.QualifiedName(), "epoch", epoch)
}

func (g *Graph) AnythingDeclaration() *Class     { return g.anything }
func (g *Graph) ObjectDeclaration() *Class       { return g.object }
func (g *Graph) NullDeclaration() *Class         { return g.null }
func (g *Graph) IterableDeclaration() *Interface { return g.iterable }
func (g *Graph) NothingDeclaration() *NothingType { return g.nothing }

func (g *Graph) Anything() *ProducedType { return g.anything.Type() }
func (g *Graph) Object() *ProducedType   { return g.object.Type() }
func (g *Graph) Null() *ProducedType     { return g.null.Type() }
func (g *Graph) Nothing() *ProducedType  { return g.nothing.Type() }

// Bottom is the uninhabited type produced when an intersection is found to be empty
func (g *Graph) Bottom() *ProducedType { return g.bottom.Type() }

// Unknown is the sentinel for unresolved or broken types
func (g *Graph) Unknown() *ProducedType { return g.unknown.Type() }

func (g *Graph) ambiguousType() *ProducedType { return g.ambiguous.Type() }

// IterableOf returns Iterable<element>
func (g *Graph) IterableOf(element *ProducedType) *ProducedType {
	return g.iterable.ProducedType(nil, []*ProducedType{element})
}
