// Package availerr defines the structured compilation error reported at
// the end of a failed top-level statement (§7) and its human-readable
// banner rendering.
package availerr

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/fatih/color"
	"golang.org/x/text/width"
)

// CompilationError reports the rightmost position any parse attempt
// reached for one top-level statement, and the deduplicated list of
// things that were expected there (§7).
type compilationError struct {
	module       string
	position     int
	line, column int
	expected     []string
	wrap         error
}

func (e *compilationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: no valid parse found", e.module, e.line, e.column)
}

func (e *compilationError) Unwrap() error { return e.wrap }

// Module returns the name of the module being compiled when this error
// was raised.
func (e *compilationError) Module() string { return e.module }

// Position returns the code-point offset of the rightmost position any
// parse attempt reached.
func (e *compilationError) Position() int { return e.position }

// Line and Column return the 1-indexed source location of Position.
func (e *compilationError) Line() int   { return e.line }
func (e *compilationError) Column() int { return e.column }

// Expected returns the deduplicated list of things expected at Position,
// in the order the Progress tracker first saw them.
func (e *compilationError) Expected() []string {
	return append([]string(nil), e.expected...)
}

// New constructs a CompilationError from a Progress snapshot (§4.5, §7).
func New(module string, position, line, column int, expected []string) error {
	return &compilationError{module: module, position: position, line: line, column: column, expected: expected}
}

// Wrap attaches a lower-level cause to a CompilationError, e.g. a
// splitter.Error surfaced while building the bundle tree for a method
// declared by the failing statement's own module.
func Wrap(err error, cause error) error {
	ce, ok := err.(*compilationError)
	if !ok {
		return err
	}
	cp := *ce
	cp.wrap = cause
	return &cp
}

// Banner renders err as a multi-line human-readable report: the source
// location, a caret-marked excerpt of source (when src is non-empty), and
// the wrapped "expected one of: ..." list reflowed to columnWidth
// code-points using the dekarrin/rosed text-layout library.
// Column measurement accounts for wide (East-Asian/full-width) runes in
// quoted keyword lexemes via golang.org/x/text/width, so the caret lands
// under the right source column even when the line contains multi-cell
// characters.
func Banner(err error, src string, columnWidth int) string {
	ce, ok := err.(*compilationError)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: no valid parse found\n", ce.module, ce.line, ce.column)

	if src != "" {
		lines := strings.Split(src, "\n")
		if ce.line-1 < len(lines) {
			srcLine := lines[ce.line-1]
			b.WriteString(srcLine)
			b.WriteString("\n")
			b.WriteString(strings.Repeat(" ", visualColumn(srcLine, ce.column-1)))
			b.WriteString("^\n")
		}
	}

	if len(ce.expected) > 0 {
		body := "expected one of: " + strings.Join(ce.expected, ", ")
		wrapped := rosed.Edit(body).
			WithOptions(rosed.Options{ParagraphSeparator: "\n"}).
			Wrap(columnWidth).
			String()
		b.WriteString(wrapped)
		b.WriteString("\n")
	}

	if ce.wrap != nil {
		fmt.Fprintf(&b, "caused by: %s\n", ce.wrap)
	}

	return b.String()
}

// visualColumn converts a code-point column offset into srcLine to a
// terminal-cell column, widening for any East-Asian wide runes that
// precede it.
func visualColumn(srcLine string, codepointCol int) int {
	col := 0
	for i, r := range []rune(srcLine) {
		if i >= codepointCol {
			break
		}
		if width.LookupRune(r).Kind() == width.EastAsianWide {
			col += 2
		} else {
			col++
		}
	}
	return col
}

// ColorBanner renders Banner's output with ANSI coloring: the position
// line in red, each expected alternative in yellow. It is used only at
// the CLI presentation layer (cmd/availc); the structured CompilationError
// itself carries no color information.
func ColorBanner(err error, src string, columnWidth int) string {
	ce, ok := err.(*compilationError)
	if !ok {
		return err.Error()
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	var b strings.Builder
	b.WriteString(red.Sprintf("%s:%d:%d: no valid parse found\n", ce.module, ce.line, ce.column))

	if src != "" {
		lines := strings.Split(src, "\n")
		if ce.line-1 < len(lines) {
			srcLine := lines[ce.line-1]
			b.WriteString(srcLine)
			b.WriteString("\n")
			b.WriteString(strings.Repeat(" ", visualColumn(srcLine, ce.column-1)))
			b.WriteString(red.Sprint("^"))
			b.WriteString("\n")
		}
	}

	for _, exp := range ce.expected {
		b.WriteString(yellow.Sprintf("  - %s\n", exp))
	}

	return b.String()
}
