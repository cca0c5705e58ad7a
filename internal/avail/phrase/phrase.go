// Package phrase defines the abstract syntax nodes the parsing engine
// produces: send, literal, variable-use, block, declaration, assignment,
// list, marker, reference, and super-cast phrases (GLOSSARY, §9).
package phrase

import (
	"fmt"
	"strings"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/token"
)

// Phrase is the sealed sum type over every parse-tree node the engine can
// deliver. As with splitter.Expression (§9), dispatch is exhaustive rather
// than virtual: callers type-switch when they need variant-specific
// behavior.
type Phrase interface {
	// Type is the phrase's static type, used by completed-send processing
	// (§4.7) and the top-level driver's ⊤-type check (§4.8).
	Type() atype.Type

	// Copy returns a deep, independent copy of the phrase.
	Copy() Phrase

	// Equal reports whether two phrases have identical structure,
	// following types.ParseTree.Equal's contract.
	Equal(other Phrase) bool

	String() string
}

// Send is a method invocation phrase: the resolved method name and the
// argument phrases supplied to it.
type Send struct {
	Method    string
	Args      []Phrase
	ReturnType atype.Type
}

func (s *Send) Type() atype.Type { return s.ReturnType }
func (s *Send) Copy() Phrase {
	cp := &Send{Method: s.Method, ReturnType: s.ReturnType, Args: make([]Phrase, len(s.Args))}
	for i, a := range s.Args {
		cp.Args[i] = a.Copy()
	}
	return cp
}
func (s *Send) Equal(o Phrase) bool {
	other, ok := o.(*Send)
	if !ok || other.Method != s.Method || len(other.Args) != len(s.Args) {
		return false
	}
	for i := range s.Args {
		if !s.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}
func (s *Send) String() string {
	var sb strings.Builder
	sb.WriteString("(SEND ")
	sb.WriteString(s.Method)
	for _, a := range s.Args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Literal is a scanned literal value (integer, string, etc).
type Literal struct {
	Value     any
	ValueType atype.Type
	Source    token.Token
}

func (l *Literal) Type() atype.Type { return l.ValueType }
func (l *Literal) Copy() Phrase     { cp := *l; return &cp }
func (l *Literal) Equal(o Phrase) bool {
	other, ok := o.(*Literal)
	return ok && fmt.Sprint(other.Value) == fmt.Sprint(l.Value)
}
func (l *Literal) String() string { return fmt.Sprintf("(LITERAL %v)", l.Value) }

// VariableUse is a reference to a previously declared name.
type VariableUse struct {
	Name    string
	VarType atype.Type
}

func (v *VariableUse) Type() atype.Type { return v.VarType }
func (v *VariableUse) Copy() Phrase     { cp := *v; return &cp }
func (v *VariableUse) Equal(o Phrase) bool {
	other, ok := o.(*VariableUse)
	return ok && other.Name == v.Name
}
func (v *VariableUse) String() string { return fmt.Sprintf("(VAR %s)", v.Name) }

// DeclKind distinguishes the flavors of top-level Declaration.
type DeclKind int

const (
	DeclVariable DeclKind = iota
	DeclConstant
	DeclArgument
	DeclLabel
)

// Declaration introduces a new name into scope, optionally with an
// initializing expression.
type Declaration struct {
	Kind        DeclKind
	Name        string
	DeclaredType atype.Type
	Initializer Phrase // nil if none
}

func (d *Declaration) Type() atype.Type { return atype.Top }
func (d *Declaration) Copy() Phrase {
	cp := *d
	if d.Initializer != nil {
		cp.Initializer = d.Initializer.Copy()
	}
	return &cp
}
func (d *Declaration) Equal(o Phrase) bool {
	other, ok := o.(*Declaration)
	if !ok || other.Kind != d.Kind || other.Name != d.Name {
		return false
	}
	if (d.Initializer == nil) != (other.Initializer == nil) {
		return false
	}
	if d.Initializer != nil {
		return d.Initializer.Equal(other.Initializer)
	}
	return true
}
func (d *Declaration) String() string { return fmt.Sprintf("(DECLARE %s)", d.Name) }

// Assignment assigns a new value to a previously declared variable.
type Assignment struct {
	Name  string
	Value Phrase
}

func (a *Assignment) Type() atype.Type { return atype.Top }
func (a *Assignment) Copy() Phrase     { return &Assignment{Name: a.Name, Value: a.Value.Copy()} }
func (a *Assignment) Equal(o Phrase) bool {
	other, ok := o.(*Assignment)
	return ok && other.Name == a.Name && a.Value.Equal(other.Value)
}
func (a *Assignment) String() string { return fmt.Sprintf("(ASSIGN %s := %s)", a.Name, a.Value.String()) }

// List is a fixed-length tuple of phrases, as produced by a Group.
type List struct {
	Elements []Phrase
}

func (l *List) Type() atype.Type {
	var elem atype.Type = atype.Any
	if len(l.Elements) > 0 {
		elem = l.Elements[0].Type()
	}
	return &atype.Tuple{Elements: elem, Range: atype.Fixed(len(l.Elements))}
}
func (l *List) Copy() Phrase {
	cp := &List{Elements: make([]Phrase, len(l.Elements))}
	for i, e := range l.Elements {
		cp.Elements[i] = e.Copy()
	}
	return cp
}
func (l *List) Equal(o Phrase) bool {
	other, ok := o.(*List)
	if !ok || len(other.Elements) != len(l.Elements) {
		return false
	}
	for i := range l.Elements {
		if !l.Elements[i].Equal(other.Elements[i]) {
			return false
		}
	}
	return true
}
func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "(LIST " + strings.Join(parts, " ") + ")"
}

// Marker is a boolean produced by an Optional group (present/absent).
type Marker struct {
	Present bool
}

func (m *Marker) Type() atype.Type { return atype.Named("boolean") }
func (m *Marker) Copy() Phrase     { cp := *m; return &cp }
func (m *Marker) Equal(o Phrase) bool {
	other, ok := o.(*Marker)
	return ok && other.Present == m.Present
}
func (m *Marker) String() string { return fmt.Sprintf("(MARKER %v)", m.Present) }

// Block is a function literal: its formal parameters and statement body.
type Block struct {
	Params []Declaration
	Body   []Phrase
	Result atype.Type
}

func (b *Block) Type() atype.Type { return &atype.Function{Return: b.Result} }
func (b *Block) Copy() Phrase {
	cp := &Block{Params: append([]Declaration(nil), b.Params...), Result: b.Result, Body: make([]Phrase, len(b.Body))}
	for i, s := range b.Body {
		cp.Body[i] = s.Copy()
	}
	return cp
}
func (b *Block) Equal(o Phrase) bool {
	other, ok := o.(*Block)
	if !ok || len(other.Body) != len(b.Body) || len(other.Params) != len(b.Params) {
		return false
	}
	for i := range b.Body {
		if !b.Body[i].Equal(other.Body[i]) {
			return false
		}
	}
	return true
}
func (b *Block) String() string { return "(BLOCK)" }

// Reference is a `↑`-parsed variable reference phrase (the variable
// itself, not its current value).
type Reference struct {
	Name string
}

func (r *Reference) Type() atype.Type { return atype.Named("variable") }
func (r *Reference) Copy() Phrase     { cp := *r; return &cp }
func (r *Reference) Equal(o Phrase) bool {
	other, ok := o.(*Reference)
	return ok && other.Name == r.Name
}
func (r *Reference) String() string { return fmt.Sprintf("(REFERENCE %s)", r.Name) }

// SuperCast widens the static type an argument is checked against, for
// calling a more general override of a polymorphic method.
type SuperCast struct {
	Inner  Phrase
	AsType atype.Type
}

func (s *SuperCast) Type() atype.Type { return s.AsType }
func (s *SuperCast) Copy() Phrase     { return &SuperCast{Inner: s.Inner.Copy(), AsType: s.AsType} }
func (s *SuperCast) Equal(o Phrase) bool {
	other, ok := o.(*SuperCast)
	return ok && s.Inner.Equal(other.Inner)
}
func (s *SuperCast) String() string { return fmt.Sprintf("(SUPERCAST %s)", s.Inner.String()) }
