// Package version implements the constraint grammar and version comparison
// rules used throughout the catalog, index, and resolver.
package version

import "strings"

// orderedOps must be tried longest-prefix-first: two-character operators
// would otherwise be shadowed by their single-character prefix.
var orderedOps = []string{"<=", ">=", "<", ">", "="}

// Constraint is a parsed "name[op version]" requirement string.
// Op == "" means "any version satisfies this constraint".
type Constraint struct {
	Name    string
	Op      string
	Version string
}

// ParseConstraint splits a raw requirement string such as "libA>=1.5" into
// its name, operator, and version parts. A string with no recognized
// operator is returned with Op and Version empty.
func ParseConstraint(s string) Constraint {
	for _, op := range orderedOps {
		if pos := strings.Index(s, op); pos != -1 {
			return Constraint{
				Name:    s[:pos],
				Op:      op,
				Version: s[pos+len(op):],
			}
		}
	}
	return Constraint{Name: s}
}

// IsSONAME reports whether a dependency name embeds a shared-object
// version (contains ".so"). SONAME entries are skipped wherever the
// specification calls for treating them as opaque.
func IsSONAME(name string) bool {
	return strings.Contains(name, ".so")
}

// String renders the constraint back to its requirement-string form.
func (c Constraint) String() string {
	if c.Op == "" {
		return c.Name
	}
	return c.Name + c.Op + c.Version
}

// EvalConstraint reports whether an installed version satisfies c.
// An empty operator always satisfies.
func EvalConstraint(installedVersion string, c Constraint) bool {
	if c.Op == "" {
		return true
	}
	cmp := Compare(installedVersion, c.Version)
	switch c.Op {
	case "=":
		return cmp == 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}
