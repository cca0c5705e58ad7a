// Package semver evaluates a module header's Versions clause (§4.8, §6)
// against the compiler's declared version set, using real range
// semantics instead of string equality.
package semver

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// DeclaredVersions is the set of version strings the compiler identifies
// itself as, typically just one entry but occasionally more during a
// transition period where two compiler versions remain compatible.
type DeclaredVersions []string

// Constraint wraps a module header's Versions clause: a Masterminds/semver
// constraint string such as ">=1.4, <2.0" or a bare version like "1.4".
type Constraint struct {
	raw        string
	constraint *semver.Constraints
}

// Parse compiles a Versions clause into a Constraint. An unparseable
// clause is a module-header error (§6), not a panic.
func Parse(clause string) (Constraint, error) {
	c, err := semver.NewConstraint(clause)
	if err != nil {
		return Constraint{}, fmt.Errorf("invalid Versions clause %q: %w", clause, err)
	}
	return Constraint{raw: clause, constraint: c}, nil
}

// String returns the original clause text.
func (c Constraint) String() string { return c.raw }

// Satisfies reports whether any of the compiler's declared versions
// satisfies c, per §4.8's rule that a module compiles only against a
// compiler whose version the Versions clause admits.
func (c Constraint) Satisfies(declared DeclaredVersions) (bool, error) {
	for _, d := range declared {
		v, err := semver.NewVersion(d)
		if err != nil {
			return false, fmt.Errorf("compiler declared invalid version %q: %w", d, err)
		}
		if c.constraint.Check(v) {
			return true, nil
		}
	}
	return false, nil
}
