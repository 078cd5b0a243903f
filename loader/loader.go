// Package loader populates a model.Graph from a YAML description of already scanned
// declarations. It stands in for the scanning phase of a compiler in tests and tools.
package loader

import (
	"bytes"
	"io"
	"os"
	"slices"

	"github.com/cottand/typegraph/internal/log"
	"github.com/cottand/typegraph/model"
	"github.com/cottand/typegraph/typerr"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var logger = log.DefaultLogger.With("section", "loader")

// Result is a populated graph together with the problems found while populating it.
// A graph with errors is still usable: whatever could not be resolved is left out.
type Result struct {
	Graph    *model.Graph
	Packages []*model.Package
	Errors   *typerr.Errors

	File   string
	Source []byte

	imports map[*model.Package][]*model.Package
}

// Package returns the loaded package called name, or nil
func (r *Result) Package(name string) *model.Package {
	for _, p := range r.Packages {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// LoadFile loads the description at path into a new graph
func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading graph description")
	}
	return Load(model.NewGraph(), path, data)
}

// Load adds the packages described in data, one per YAML document, to g. The returned
// error is only set when data is not a readable description at all; problems with the
// declarations themselves are reported in Result.Errors.
func Load(g *model.Graph, file string, data []byte) (*Result, error) {
	res := &Result{
		Graph:   g,
		File:    file,
		Source:  data,
		imports: make(map[*model.Package][]*model.Package),
	}
	descs, err := decode(data)
	if err != nil {
		var te typerr.TypeError
		if errors.As(err, &te) {
			res.Errors = res.Errors.With(withFile(te, file))
			return res, nil
		}
		return nil, errors.Wrapf(err, "parsing %s", file)
	}

	l := newLoader(g, file)
	res.Errors = res.Errors.Merge(l.declarePhase(descs))
	res.Errors = res.Errors.Merge(l.headerPhase())
	res.Errors = res.Errors.Merge(l.cyclePhase())
	res.Errors = res.Errors.Merge(l.signaturePhase())
	l.overloadPhase()
	refinements := g.SetRefinements()

	for _, u := range l.units {
		res.Packages = append(res.Packages, u.pkg)
		res.imports[u.pkg] = u.imports
	}
	logger.Debug("loaded graph description", "file", file, "packages", len(res.Packages), "refinements", refinements, "errors", res.Errors)
	return res, nil
}

func decode(data []byte) ([]*Description, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var descs []*Description
	for {
		d := &Description{}
		err := dec.Decode(d)
		if err == io.EOF {
			return descs, nil
		}
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
}

// withFile sets the file of an error raised while decoding, when it has a position
func withFile(te typerr.TypeError, file string) typerr.TypeError {
	if mt, ok := te.(typerr.MalformedType); ok && mt.Pos.IsValid() {
		mt.Pos.File = file
		return mt
	}
	return te
}

// unit is one package being loaded
type unit struct {
	desc    *Description
	pkg     *model.Package
	imports []*model.Package
	pending []*pending
}

// pending is a declaration whose type expressions still have to be resolved
type pending struct {
	desc *Declaration
	decl model.Decl
	// scope is where the type expressions of the declaration are resolved
	scope model.Scope
	tps   []*model.TypeParameter
	unit  *unit
}

type scopedName struct {
	scope model.Scope
	name  string
}

type loader struct {
	g     *model.Graph
	file  string
	units []*unit
	// declared is the keyword each name was first declared with, per scope
	declared map[scopedName]string
	// overloads holds functions and classes declared more than once in the same scope,
	// in declaration order
	overloads     map[scopedName][]model.Functional
	overloadOrder []scopedName
}

func newLoader(g *model.Graph, file string) *loader {
	return &loader{
		g:         g,
		file:      file,
		declared:  make(map[scopedName]string),
		overloads: make(map[scopedName][]model.Functional),
	}
}

func (l *loader) at(pos typerr.Pos) typerr.Pos {
	if pos.IsValid() {
		pos.File = l.file
	}
	return pos
}

// declarePhase creates every declaration, so that type expressions can refer to
// declarations that come later in the description
func (l *loader) declarePhase(descs []*Description) *typerr.Errors {
	var errs *typerr.Errors
	for _, desc := range descs {
		if desc.Package == "" {
			errs = errs.With(typerr.New(typerr.InvalidDescription{Pos: l.at(desc.Pos), Reason: "a description needs a package name"}))
			continue
		}
		if desc.Package == model.LanguagePackage {
			errs = errs.With(typerr.New(typerr.InvalidDescription{Pos: l.at(desc.Pos), Reason: "the language package cannot be redeclared"}))
			continue
		}
		u := &unit{desc: desc, pkg: l.g.Package(desc.Package)}
		l.units = append(l.units, u)
		for i := range desc.Declarations {
			errs = errs.Merge(l.declare(u, u.pkg, &desc.Declarations[i]))
		}
	}
	for _, u := range l.units {
		for _, name := range u.desc.Imports {
			imported := slices.IndexFunc(l.units, func(o *unit) bool { return o.pkg.Name() == name })
			if imported < 0 {
				errs = errs.With(typerr.New(typerr.InvalidDescription{Pos: l.at(u.desc.Pos), Reason: "imported package '" + name + "' is not described"}))
				continue
			}
			u.imports = append(u.imports, l.units[imported].pkg)
		}
	}
	return errs
}

func (l *loader) declare(u *unit, container model.Scope, d *Declaration) *typerr.Errors {
	if d.kinds() != 1 {
		return (&typerr.Errors{}).With(typerr.New(typerr.InvalidDescription{
			Pos:    l.at(d.Pos),
			Reason: "a declaration needs exactly one of class, interface, function or value",
		}))
	}
	name, keyword := d.name()
	key := scopedName{scope: container, name: name}
	if previous, ok := l.declared[key]; ok {
		overloadable := previous == keyword && (keyword == "function" || keyword == "class")
		if !overloadable {
			return (&typerr.Errors{}).With(typerr.New(typerr.DuplicateDeclaration{Pos: l.at(d.Pos), Name: name, Container: container.QualifiedName()}))
		}
	} else {
		l.declared[key] = keyword
	}

	p := &pending{desc: d, unit: u}
	flags := d.flags()
	var errs *typerr.Errors
	switch keyword {
	case "class":
		c := l.g.NewClass(container, name, flags)
		p.decl, p.scope = c, c
		l.addOverload(key, c)
	case "interface":
		i := l.g.NewInterface(container, name, flags)
		p.decl, p.scope = i, i
	case "function":
		f := l.g.NewFunction(container, name, flags)
		p.decl, p.scope = f, f
		l.addOverload(key, f)
	case "value":
		p.decl = l.g.NewValue(container, name, flags, nil)
		p.scope = container
	}
	for _, a := range d.Annotations {
		p.decl.(interface{ Annotate(string, ...string) }).Annotate(a.Name, a.Args...)
	}

	if len(d.TypeParameters) > 0 && keyword == "value" {
		errs = errs.With(typerr.New(typerr.InvalidDescription{Pos: l.at(d.Pos), Reason: "values cannot have type parameters"}))
	} else {
		for _, tpd := range d.TypeParameters {
			variance, ok := parseVariance(tpd.Variance)
			if !ok {
				errs = errs.With(typerr.New(typerr.InvalidDescription{Pos: l.at(tpd.Pos), Reason: "variance must be 'in', 'out' or nothing, not '" + tpd.Variance + "'"}))
			}
			p.tps = append(p.tps, l.g.NewTypeParameter(p.decl, tpd.Name, variance))
		}
	}

	u.pending = append(u.pending, p)
	if len(d.Members) > 0 {
		scope, ok := p.decl.(model.Scope)
		if !ok || keyword == "function" {
			errs = errs.With(typerr.New(typerr.InvalidDescription{Pos: l.at(d.Pos), Reason: keyword + " " + name + " cannot have members"}))
		} else {
			for i := range d.Members {
				errs = errs.Merge(l.declare(u, scope, &d.Members[i]))
			}
		}
	}
	return errs
}

func (l *loader) addOverload(key scopedName, f model.Functional) {
	if _, ok := l.overloads[key]; !ok {
		l.overloadOrder = append(l.overloadOrder, key)
	}
	l.overloads[key] = append(l.overloads[key], f)
}

func (d *Declaration) flags() model.Flags {
	var f model.Flags
	set := func(on bool, flag model.Flags) {
		if on {
			f |= flag
		}
	}
	set(d.Shared == nil || *d.Shared, model.Shared)
	set(d.Formal, model.Formal)
	set(d.Actual, model.Actual)
	set(d.Default, model.Default)
	set(d.Final, model.Final)
	set(d.Abstract, model.Abstract)
	set(d.Anonymous, model.Anonymous)
	set(d.Variable, model.Variable)
	return f
}

func parseVariance(s string) (model.Variance, bool) {
	switch s {
	case "":
		return model.Invariant, true
	case "out":
		return model.Covariant, true
	case "in":
		return model.Contravariant, true
	}
	return model.Invariant, false
}

// overloadPhase groups the functions and classes declared more than once in a scope into
// overload sets. It runs after resolution, since abstractions copy the type of the first
// overload.
func (l *loader) overloadPhase() {
	for _, key := range l.overloadOrder {
		if set := l.overloads[key]; len(set) > 1 {
			l.g.Overload(key.scope, set...)
		}
	}
}

// Type resolves the type expression src as if it were written at the top level of pkg.
// A nil pkg stands for the first loaded package, or the language package when nothing
// was loaded.
func (r *Result) Type(pkg *model.Package, src string) (*model.ProducedType, error) {
	if pkg == nil {
		pkg = r.Graph.LanguagePackage()
		if len(r.Packages) > 0 {
			pkg = r.Packages[0]
		}
	}
	l := newLoader(r.Graph, "")
	t, errs := l.resolve(pkg, &unit{pkg: pkg, imports: r.imports[pkg]}, Expr{Text: src})
	if errs.HasError() {
		return nil, errs
	}
	return t, nil
}
