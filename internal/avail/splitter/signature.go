package splitter

import "github.com/dekarrin/avail/internal/avail/atype"

// CheckImplementationSignature validates that a proposed method or macro
// signature matches the structural shape this set of top-level
// expressions expects (§4.2): fixed argument arity equals the number of
// top-level argument positions, and every top-level group argument is a
// tuple type whose inner size range fits the group's dagger arity. Groups
// nested inside a group argument are not checked.
//
// sectionNumber, when non-zero, restricts the check to the prefix of
// exprs up to (and not including) the section checkpoint with that
// number — used to validate a macro's nth prefix function against only
// the arguments visible at that checkpoint.
func CheckImplementationSignature(exprs []Expression, fn *atype.Function, sectionNumber int) error {
	scoped := exprs
	if sectionNumber > 0 {
		scoped = prefixBeforeCheckpoint(exprs, sectionNumber)
	}

	expected := flattenArgumentShapes(scoped)
	if len(expected) != len(fn.Params) {
		return newError(IncorrectNumberOfArguments, "", 0, "")
	}

	for i, shape := range expected {
		if err := shape.matches(fn.Params[i]); err != nil {
			return err
		}
	}

	return nil
}

// argShape describes the structural type a single top-level argument
// position must accept: either a bare leaf (any type is fine structurally;
// semantic restrictions handle the rest) or a Group, whose size range
// constrains a tuple parameter's length.
type argShape struct {
	group *Group
}

func (s argShape) matches(t atype.Type) error {
	if s.group == nil {
		return nil
	}
	tup, ok := t.(*atype.Tuple)
	if !ok {
		return newError(IncorrectTypeForGroup, "", 0, "group argument position requires a tuple type")
	}
	want := groupSizeRange(s.group)
	if !want.Contains(want.Min) {
		return newError(IncorrectTypeForGroup, "", 0, "")
	}
	if tup.Range.Min < want.Min || (want.Max >= 0 && (tup.Range.Max < 0 || tup.Range.Max > want.Max)) {
		return newError(IncorrectTypeForComplexGroup, "", 0, "tuple size range does not match the group's dagger arity")
	}
	return nil
}

// groupSizeRange computes the dagger arity range of a Group: a group
// without a dagger admits 0 or more iterations with a fixed shape per
// iteration; a group with a dagger only guarantees at least the minimum
// needed to reach the post-dagger tail once.
func groupSizeRange(g *Group) atype.SizeRange {
	if g.Dagger {
		return atype.Unbounded(1)
	}
	return atype.Unbounded(0)
}

func flattenArgumentShapes(exprs []Expression) []argShape {
	var out []argShape
	for _, x := range exprs {
		switch e := x.(type) {
		case *Argument, *RawToken, *VariableQuote, *ModuleScopeArgument:
			out = append(out, argShape{})
		case *Group:
			out = append(out, argShape{group: e})
		case *CaseInsensitive:
			out = append(out, flattenArgumentShapes([]Expression{e.Inner})...)
		}
	}
	return out
}

func prefixBeforeCheckpoint(exprs []Expression, number int) []Expression {
	var out []Expression
	for _, x := range exprs {
		if cp, ok := x.(*SectionCheckpoint); ok && cp.Number == number {
			break
		}
		out = append(out, x)
	}
	return out
}
