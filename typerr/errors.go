package typerr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	UndecidableDefaultsCode
	AmbiguousMemberCode
	UnknownDeclarationCode
	DuplicateDeclarationCode
	MalformedTypeCode
	InheritanceCycleCode
	InvalidDescriptionCode
)

// Pos is a location inside a graph description. The zero value means no location is known.
type Pos struct {
	File         string
	Line, Column int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

type TypeError interface {
	Error() string
	Code() ErrCode
	Position() Pos

	withStack([]byte) TypeError
	getStack() []byte
}

func FormatWithCode(e TypeError) string {
	msg := fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
	if e.Position().IsValid() {
		msg = e.Position().String() + ": " + msg
	}
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:%s", stack, msg)
	}
	return msg
}

func New[E TypeError](err E) TypeError {
	return err.withStack(debug.Stack())
}

// UndecidableDefaults is raised, as a panic value, when resolving default type arguments
// recurses past the depth limit. It is the only failure of the type model that is not
// degraded into a sentinel type.
type UndecidableDefaults struct {
	Declaration string
	Parameter   string
	Depth       int
	stack       []byte
}

func (e UndecidableDefaults) Error() string {
	return fmt.Sprintf("undecidable default type arguments: resolving '%s' of '%s' exceeded depth %d", e.Parameter, e.Declaration, e.Depth)
}
func (e UndecidableDefaults) Code() ErrCode    { return UndecidableDefaultsCode }
func (e UndecidableDefaults) Position() Pos    { return Pos{} }
func (e UndecidableDefaults) getStack() []byte { return e.stack }
func (e UndecidableDefaults) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}

type AmbiguousMember struct {
	Pos
	Type   string
	Member string
	stack  []byte
}

func (e AmbiguousMember) Error() string {
	return fmt.Sprintf("member '%s' is ambiguous for '%s': it is inherited from incomparable supertypes", e.Member, e.Type)
}
func (e AmbiguousMember) Code() ErrCode    { return AmbiguousMemberCode }
func (e AmbiguousMember) Position() Pos    { return e.Pos }
func (e AmbiguousMember) getStack() []byte { return e.stack }
func (e AmbiguousMember) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}

type UnknownDeclaration struct {
	Pos
	Name  string
	stack []byte
}

func (e UnknownDeclaration) Error() string {
	return fmt.Sprintf("type '%s' is not declared", e.Name)
}
func (e UnknownDeclaration) Code() ErrCode    { return UnknownDeclarationCode }
func (e UnknownDeclaration) Position() Pos    { return e.Pos }
func (e UnknownDeclaration) getStack() []byte { return e.stack }
func (e UnknownDeclaration) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}

type DuplicateDeclaration struct {
	Pos
	Name      string
	Container string
	stack     []byte
}

func (e DuplicateDeclaration) Error() string {
	return fmt.Sprintf("'%s' is declared more than once in '%s'", e.Name, e.Container)
}
func (e DuplicateDeclaration) Code() ErrCode    { return DuplicateDeclarationCode }
func (e DuplicateDeclaration) Position() Pos    { return e.Pos }
func (e DuplicateDeclaration) getStack() []byte { return e.stack }
func (e DuplicateDeclaration) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}

type MalformedType struct {
	Pos
	Expression string
	Reason     string
	stack      []byte
}

func (e MalformedType) Error() string {
	return fmt.Sprintf("malformed type expression '%s': %s", e.Expression, e.Reason)
}
func (e MalformedType) Code() ErrCode    { return MalformedTypeCode }
func (e MalformedType) Position() Pos    { return e.Pos }
func (e MalformedType) getStack() []byte { return e.stack }
func (e MalformedType) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}

type InheritanceCycle struct {
	Pos
	Names []string
	stack []byte
}

func (e InheritanceCycle) Error() string {
	return fmt.Sprintf("inheritance cycle: %s", strings.Join(e.Names, " -> "))
}
func (e InheritanceCycle) Code() ErrCode    { return InheritanceCycleCode }
func (e InheritanceCycle) Position() Pos    { return e.Pos }
func (e InheritanceCycle) getStack() []byte { return e.stack }
func (e InheritanceCycle) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}

type InvalidDescription struct {
	Pos
	Reason string
	stack  []byte
}

func (e InvalidDescription) Error() string    { return e.Reason }
func (e InvalidDescription) Code() ErrCode    { return InvalidDescriptionCode }
func (e InvalidDescription) Position() Pos    { return e.Pos }
func (e InvalidDescription) getStack() []byte { return e.stack }
func (e InvalidDescription) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
