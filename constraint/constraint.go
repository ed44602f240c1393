package constraint

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/liamcoop/fakerules/expr"
)

// Constraint is a predicate over one argument value plus a description.
// Immutable once built.
type Constraint struct {
	scope       Scope
	predicate   func(arg any) bool
	description string
}

// New builds a constraint under scope.
func New(scope Scope, predicate func(arg any) bool, description string) *Constraint {
	if scope == nil {
		scope = Root()
	}
	return &Constraint{scope: scope, predicate: predicate, description: description}
}

// IsValid reports whether arg satisfies the constraint and its scope chain.
func (c *Constraint) IsValid(arg any) bool {
	return c.scope.IsValid(arg) && c.scope.ResultOfChildConstraintIsValid(c.predicate(arg))
}

// Description joins the scope description and the constraint's own one.
func (c *Constraint) Description() string {
	return joinDescription(c.scope.String(), c.description)
}

// String renders the constraint as it appears inside a call description.
func (c *Constraint) String() string {
	return "<" + c.Description() + ">"
}

// And starts a new constraint that only holds when c holds too.
func (c *Constraint) And() *Builder {
	return &Builder{scope: And(c)}
}

// Or combines two whole constraints.
func (c *Constraint) Or(other *Constraint) *Constraint {
	return New(Root(), func(arg any) bool {
		return c.IsValid(arg) || other.IsValid(arg)
	}, "("+c.Description()+") or ("+other.Description()+")")
}

// Builder creates constraints under a scope.
type Builder struct {
	scope Scope
}

// That starts a constraint at the root scope.
func That() *Builder {
	return &Builder{scope: Root()}
}

// Not inverts the next constraint built from the returned builder.
func (b *Builder) Not() *Builder {
	return &Builder{scope: Not(b.scope)}
}

// Matches builds a constraint from an arbitrary predicate.
func (b *Builder) Matches(predicate func(arg any) bool, description string) *Constraint {
	return New(b.scope, predicate, description)
}

// IsAnything accepts every value.
func (b *Builder) IsAnything() *Constraint {
	return New(b.scope, func(any) bool { return true }, "ignored")
}

// IsEqualTo accepts values structurally equal to want.
func (b *Builder) IsEqualTo(want any) *Constraint {
	return New(b.scope, func(arg any) bool {
		return Equal(want, arg)
	}, "equal to "+FormatValue(want))
}

// IsNil accepts nil and typed nil values.
func (b *Builder) IsNil() *Constraint {
	return New(b.scope, isNil, "nil")
}

// IsInstanceOf accepts values whose dynamic type is assignable to t.
func (b *Builder) IsInstanceOf(t reflect.Type) *Constraint {
	return New(b.scope, func(arg any) bool {
		if arg == nil {
			return false
		}
		return reflect.TypeOf(arg).AssignableTo(t)
	}, "instance of "+t.String())
}

// Contains accepts strings containing substr.
func (b *Builder) Contains(substr string) *Constraint {
	return New(b.scope, func(arg any) bool {
		s, ok := arg.(string)
		return ok && strings.Contains(s, substr)
	}, "string containing "+FormatValue(substr))
}

// IsEmpty accepts zero-length strings, slices, arrays, maps and channels.
func (b *Builder) IsEmpty() *Constraint {
	return New(b.scope, func(arg any) bool {
		if arg == nil {
			return false
		}
		v := reflect.ValueOf(arg)
		switch v.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
			return v.Len() == 0
		default:
			return false
		}
	}, "empty")
}

// Satisfies compiles a CEL expression over the variable "arg".
// Evaluation errors count as a mismatch.
func (b *Builder) Satisfies(expression string) (*Constraint, error) {
	compiler, err := expr.Arguments()
	if err != nil {
		return nil, err
	}
	prog, err := compiler.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("argument expression %q: %w", expression, err)
	}

	return New(b.scope, func(arg any) bool {
		ok, err := prog.Eval(map[string]any{expr.VarArg: arg})
		return err == nil && ok
	}, "satisfying "+expression), nil
}

// Matching builds a typed constraint; values that are not a T never match.
func Matching[T any](predicate func(T) bool, description string) *Constraint {
	return That().Matches(func(arg any) bool {
		v, ok := arg.(T)
		return ok && predicate(v)
	}, description)
}

// Any is That().IsAnything().
func Any() *Constraint {
	return That().IsAnything()
}

// EqualTo is That().IsEqualTo(want).
func EqualTo(want any) *Constraint {
	return That().IsEqualTo(want)
}

func isNil(arg any) bool {
	if arg == nil {
		return true
	}
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
