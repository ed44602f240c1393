// Package constraint implements argument constraints that decide whether a
// single call argument is accepted by a rule.
//
// Constraints live in a parent-linked chain of scopes. A scope first checks
// its parent chain (IsValid) and then reinterprets the constraint's own
// result (ResultOfChildConstraintIsValid):
//
//	That().Matches(f)                  valid iff f(x)
//	That().Not().Matches(f)            valid iff !f(x)
//	That().Matches(f).And().Matches(g) valid iff f(x) && g(x)
//	c1.Or(c2)                          valid iff c1 or c2 is valid
package constraint

import "strings"

// Scope is a node in a constraint chain.
type Scope interface {
	// IsValid reports whether the parent chain accepts arg.
	IsValid(arg any) bool

	// ResultOfChildConstraintIsValid maps the child's raw result to the
	// scope's verdict.
	ResultOfChildConstraintIsValid(result bool) bool

	// String describes the scope. The root scope describes as "".
	String() string
}

type rootScope struct{}

func (rootScope) IsValid(any) bool { return true }

func (rootScope) ResultOfChildConstraintIsValid(r bool) bool { return r }

func (rootScope) String() string { return "" }

// Root returns the scope every chain starts from.
func Root() Scope {
	return rootScope{}
}

type notScope struct {
	parent Scope
}

func (s notScope) IsValid(arg any) bool {
	return s.parent.IsValid(arg)
}

// Only the child's result is inverted, never the parent chain's.
func (s notScope) ResultOfChildConstraintIsValid(r bool) bool {
	return !r
}

func (s notScope) String() string {
	return joinDescription(s.parent.String(), "not")
}

type andScope struct {
	parent *Constraint
}

// The parent constraint must hold as a whole, including its own scope.
func (s andScope) IsValid(arg any) bool {
	return s.parent.IsValid(arg)
}

func (s andScope) ResultOfChildConstraintIsValid(r bool) bool {
	return r
}

func (s andScope) String() string {
	return joinDescription(s.parent.Description(), "and")
}

// Not returns a scope that inverts the result of the constraint built under it.
func Not(parent Scope) Scope {
	return notScope{parent: parent}
}

// And returns a scope that requires parent to hold before its child is consulted.
func And(parent *Constraint) Scope {
	return andScope{parent: parent}
}

func joinDescription(parent, own string) string {
	if parent == "" {
		return own
	}
	var b strings.Builder
	b.Grow(len(parent) + 1 + len(own))
	b.WriteString(parent)
	b.WriteByte(' ')
	b.WriteString(own)
	return b.String()
}
