package fake

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/liamcoop/fakerules/expr"
)

// Config accumulates a rule's applicability test and effects. Nothing is
// validated until Build, which reports every problem as a
// *ConfigurationError.
type Config struct {
	kind Kind

	method      Method
	constraints []ArgumentConstraint
	args        *argumentsPredicate

	returnTypeSet bool
	returnType    reflect.Type

	where      []Where
	whereExprs []string

	callbacks  []func(*Call)
	applicator func(*Call) error

	returnValue    any
	hasReturnValue bool

	outValues    []any
	hasOutValues bool

	callBase bool

	times    int
	timesSet bool

	errs []string
}

// CallTo configures a rule for method with one constraint per argument.
func CallTo(method Method, constraints ...ArgumentConstraint) *Config {
	return &Config{
		kind:        KindSpecification,
		method:      method,
		constraints: constraints,
	}
}

// CallMatching configures a rule for method whose arguments are tested as a whole.
func CallMatching(method Method, predicate func(args []any) bool, description string) *Config {
	return &Config{
		kind:   KindSpecification,
		method: method,
		args:   &argumentsPredicate{match: predicate, description: description},
	}
}

// AnyCall configures a universal rule.
func AnyCall() *Config {
	return &Config{kind: KindUniversal}
}

// WithReturnType restricts a universal rule to methods returning t.
// A nil t selects methods that return nothing.
func (c *Config) WithReturnType(t reflect.Type) *Config {
	if c.kind != KindUniversal {
		c.errs = append(c.errs, "return type filter only applies to universal rules")
		return c
	}
	c.returnTypeSet = true
	c.returnType = t
	return c
}

// WhereArguments tests the argument list as a whole, replacing any
// per-argument constraints.
func (c *Config) WhereArguments(predicate func(args []any) bool, description string) *Config {
	c.constraints = nil
	c.args = &argumentsPredicate{match: predicate, description: description}
	return c
}

// WithAnyArguments accepts every argument list.
func (c *Config) WithAnyArguments() *Config {
	return c.WhereArguments(func([]any) bool { return true }, "any arguments")
}

// Where adds an extra applicability predicate.
func (c *Config) Where(predicate func(*Call) bool, description string) *Config {
	c.where = append(c.where, Where{Predicate: predicate, Description: description})
	return c
}

// WhereExpression adds a CEL predicate over "method" and "args".
func (c *Config) WhereExpression(expression string) *Config {
	c.whereExprs = append(c.whereExprs, expression)
	return c
}

// Invokes registers a callback run before the applicator.
func (c *Config) Invokes(fn func(*Call)) *Config {
	c.callbacks = append(c.callbacks, fn)
	return c
}

// Returns sets a fixed return value.
func (c *Config) Returns(v any) *Config {
	c.returnValue = v
	c.hasReturnValue = true
	c.applicator = func(call *Call) error {
		call.SetReturnValue(v)
		return nil
	}
	return c
}

// ReturnsLazily computes the return value per call.
func (c *Config) ReturnsLazily(fn func(*Call) any) *Config {
	c.hasReturnValue = false
	c.applicator = func(call *Call) error {
		call.SetReturnValue(fn(call))
		return nil
	}
	return c
}

// Fails makes the call complete with err.
func (c *Config) Fails(err error) *Config {
	c.hasReturnValue = false
	if err == nil {
		c.errs = append(c.errs, "Fails requires a non-nil error")
		return c
	}
	c.applicator = func(*Call) error {
		return err
	}
	return c
}

// DoesNothing clears the applicator.
func (c *Config) DoesNothing() *Config {
	c.hasReturnValue = false
	c.applicator = nil
	return c
}

// AssignsOutValues writes vals into the call's out slots.
func (c *Config) AssignsOutValues(vals ...any) *Config {
	c.outValues = append([]any{}, vals...)
	c.hasOutValues = true
	return c
}

// CallsBaseMethod delegates to the real implementation after the other effects.
func (c *Config) CallsBaseMethod() *Config {
	c.callBase = true
	return c
}

// NumberOfTimes sets the call-count ceiling.
func (c *Config) NumberOfTimes(n int) *Config {
	c.times = n
	c.timesSet = true
	return c
}

// Once is NumberOfTimes(1).
func (c *Config) Once() *Config {
	return c.NumberOfTimes(1)
}

// Build validates the configuration and returns the rule.
func (c *Config) Build() (*Rule, error) {
	b, err := c.buildBehavior()
	if err != nil {
		return nil, err
	}

	switch c.kind {
	case KindUniversal:
		r := newRule(KindUniversal, b)
		r.universal = &universalMatch{
			returnTypeSet: c.returnTypeSet,
			returnType:    c.returnType,
			args:          c.args,
		}
		return r, nil
	case KindSpecification:
		r := newRule(KindSpecification, b)
		r.spec = &specificationMatch{
			method:      c.method,
			constraints: append([]ArgumentConstraint(nil), c.constraints...),
			args:        c.args,
		}
		return r, nil
	default:
		return nil, &ConfigurationError{Reason: "unknown rule kind"}
	}
}

// Matcher builds the applicability test without registering anything.
// Assertions use it to filter the history.
func (c *Config) Matcher() (func(*Call) bool, string, error) {
	r, err := c.Build()
	if err != nil {
		return nil, "", err
	}
	return r.Matches, r.String(), nil
}

func (c *Config) describe() string {
	switch c.kind {
	case KindSpecification:
		return c.method.String()
	case KindUniversal:
		return "any call"
	default:
		return ""
	}
}

func (c *Config) buildBehavior() (*behavior, error) {
	name := c.describe()

	if len(c.errs) > 0 {
		return nil, configErrorf(name, "%s", c.errs[0])
	}

	if c.timesSet && c.times <= 0 {
		return nil, configErrorf(name, "number of times to call must be positive, got %d", c.times)
	}

	if c.kind == KindSpecification {
		if c.method.Identity.Name == "" {
			return nil, configErrorf(name, "method identity is empty")
		}
		if c.args == nil && c.method.ParamTypes != nil && !c.method.Variadic && len(c.constraints) != len(c.method.ParamTypes) {
			return nil, configErrorf(name, "%d argument constraints for %d parameters",
				len(c.constraints), len(c.method.ParamTypes))
		}
		if c.hasOutValues && len(c.outValues) != c.method.OutParams {
			return nil, configErrorf(name, "%d out values assigned but the method has %d out parameters",
				len(c.outValues), c.method.OutParams)
		}
		if c.hasReturnValue {
			if err := checkReturnValue(c.method.ReturnType, c.returnValue); err != nil {
				return nil, configErrorf(name, "%v", err)
			}
		}
	}

	if c.kind == KindUniversal && c.returnTypeSet && c.hasReturnValue {
		if err := checkReturnValue(c.returnType, c.returnValue); err != nil {
			return nil, configErrorf(name, "%v", err)
		}
	}

	where := append([]Where(nil), c.where...)
	if len(c.whereExprs) > 0 {
		compiler, err := expr.Calls()
		if err != nil {
			return nil, err
		}
		for _, expression := range c.whereExprs {
			prog, err := compiler.Compile(expression)
			if err != nil {
				return nil, configErrorf(name, "where expression %q: %v", expression, err)
			}
			where = append(where, Where{
				Predicate:   celPredicate(prog),
				Description: expression,
			})
		}
	}

	b := &behavior{
		where:      where,
		callbacks:  append([]func(*Call){}, c.callbacks...),
		applicator: c.applicator,
		callBase:   c.callBase,
	}
	if c.hasOutValues {
		b.outValues = append([]any{}, c.outValues...)
	}
	if c.timesSet {
		b.limit = int64(c.times)
	}
	return b, nil
}

func celPredicate(prog *expr.Program) func(*Call) bool {
	return func(call *Call) bool {
		args := call.Args
		if args == nil {
			args = []any{}
		}
		ok, err := prog.Eval(map[string]any{
			expr.VarMethod: call.Method.String(),
			expr.VarArgs:   args,
		})
		return err == nil && ok
	}
}

var errNoReturn = errors.New("method returns nothing")

func checkReturnValue(t reflect.Type, v any) error {
	if t == nil {
		return errNoReturn
	}
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return nil
		default:
			return fmt.Errorf("nil is not a valid %s", t)
		}
	}
	if !reflect.TypeOf(v).AssignableTo(t) {
		return fmt.Errorf("return value of type %T is not assignable to %s", v, t)
	}
	return nil
}

// Reconfigure replaces the rule's effects, where predicates and ceiling
// with those of cfg; cfg's method and argument tests are ignored. The new
// behavior is visible to the next dispatch. Applications already made still
// count against the new ceiling.
func (r *Rule) Reconfigure(cfg *Config) error {
	probe := *cfg
	switch r.kind {
	case KindSpecification:
		probe.kind = KindSpecification
		probe.method = r.spec.method
		probe.constraints = r.spec.constraints
		probe.args = r.spec.args
	case KindUniversal:
		probe.kind = KindUniversal
		probe.returnTypeSet = r.universal.returnTypeSet
		probe.returnType = r.universal.returnType
		probe.args = r.universal.args
	default:
		return &ConfigurationError{Rule: r.String(), Reason: "recording rules cannot be reconfigured"}
	}

	b, err := probe.buildBehavior()
	if err != nil {
		return err
	}
	r.behavior.Store(b)
	return nil
}
