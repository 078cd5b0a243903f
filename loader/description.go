package loader

import (
	"github.com/cottand/typegraph/typerr"
	"gopkg.in/yaml.v3"
)

// Description is one YAML document: the declarations of a single package, as an upstream
// scanner would have found them.
//
//	package: example
//	imports: [shapes]
//	declarations:
//	  - class: Integer
//	    extends: Object
//	    satisfies: [Comparable<Integer>]
//	    final: true
//	    members:
//	      - function: plus
//	        type: Integer
//	        parameters: [{name: other, type: Integer}]
//	  - interface: Comparable
//	    typeParameters: [{name: Other, variance: in}]
type Description struct {
	Package      string        `yaml:"package"`
	Imports      []string      `yaml:"imports"`
	Declarations []Declaration `yaml:"declarations"`

	Pos typerr.Pos `yaml:"-"`
}

func (d *Description) UnmarshalYAML(n *yaml.Node) error {
	type plain Description
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Pos = posOf(n)
	return nil
}

// Declaration is a class, interface, function or value. Exactly one of the four name keys
// must be set.
type Declaration struct {
	Class     string `yaml:"class"`
	Interface string `yaml:"interface"`
	Function  string `yaml:"function"`
	Value     string `yaml:"value"`

	Extends   *Expr  `yaml:"extends"`
	Satisfies []Expr `yaml:"satisfies"`
	// Of lists the case types of an enumerated class or interface
	Of []Expr `yaml:"of"`
	// Type is the return type of a function or the type of a value
	Type           *Expr           `yaml:"type"`
	TypeParameters []TypeParameter `yaml:"typeParameters"`
	// Parameters is the first parameter list of a function or the initializer of a class
	Parameters []Parameter   `yaml:"parameters"`
	Members    []Declaration `yaml:"members"`

	// Shared defaults to true: descriptions list the API of a package
	Shared    *bool `yaml:"shared"`
	Final     bool  `yaml:"final"`
	Abstract  bool  `yaml:"abstract"`
	Formal    bool  `yaml:"formal"`
	Actual    bool  `yaml:"actual"`
	Default   bool  `yaml:"default"`
	Variable  bool  `yaml:"variable"`
	Anonymous bool  `yaml:"anonymous"`

	Annotations []Annotation `yaml:"annotations"`

	Pos typerr.Pos `yaml:"-"`
}

func (d *Declaration) UnmarshalYAML(n *yaml.Node) error {
	type plain Declaration
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Pos = posOf(n)
	return nil
}

type TypeParameter struct {
	Name string `yaml:"name"`
	// Variance is "in", "out" or empty
	Variance  string `yaml:"variance"`
	Default   *Expr  `yaml:"default"`
	Satisfies []Expr `yaml:"satisfies"`
	Of        []Expr `yaml:"of"`

	Pos typerr.Pos `yaml:"-"`
}

func (tp *TypeParameter) UnmarshalYAML(n *yaml.Node) error {
	type plain TypeParameter
	if err := n.Decode((*plain)(tp)); err != nil {
		return err
	}
	tp.Pos = posOf(n)
	return nil
}

type Parameter struct {
	Name string `yaml:"name"`
	// Type is the element type when Sequenced is set
	Type      Expr `yaml:"type"`
	Defaulted bool `yaml:"defaulted"`
	Sequenced bool `yaml:"sequenced"`
}

type Annotation struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// Expr is a type expression together with where it was written
type Expr struct {
	Text string
	Pos  typerr.Pos
}

func (e *Expr) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return typerr.New(typerr.MalformedType{Pos: posOf(n), Expression: n.Value, Reason: "a type expression must be a string"})
	}
	e.Text = n.Value
	e.Pos = posOf(n)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		// columns are relative to the text, past the opening quote
		e.Pos.Column++
	}
	return nil
}

func posOf(n *yaml.Node) typerr.Pos {
	return typerr.Pos{Line: n.Line, Column: n.Column}
}

// name returns the declared name and the keyword it was declared with
func (d *Declaration) name() (string, string) {
	switch {
	case d.Class != "":
		return d.Class, "class"
	case d.Interface != "":
		return d.Interface, "interface"
	case d.Function != "":
		return d.Function, "function"
	case d.Value != "":
		return d.Value, "value"
	}
	return "", ""
}

func (d *Declaration) kinds() int {
	n := 0
	for _, s := range []string{d.Class, d.Interface, d.Function, d.Value} {
		if s != "" {
			n++
		}
	}
	return n
}
