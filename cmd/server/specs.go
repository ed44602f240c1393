package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/liamcoop/fakerules/assertion"
	"github.com/liamcoop/fakerules/constraint"
	"github.com/liamcoop/fakerules/fake"
	"github.com/liamcoop/fakerules/fakehub"
)

// callConfig turns a CallSpec into a rule configuration for f.
func callConfig(f *fakehub.Fake, spec CallSpec) (*fake.Config, fakehub.MethodSpec, error) {
	if spec.Method == "" {
		if spec.Arguments != nil {
			return nil, fakehub.MethodSpec{}, errors.New("arguments require a method")
		}
		cfg := fake.AnyCall()
		if spec.Where != "" {
			cfg.WhereExpression(spec.Where)
		}
		return cfg, fakehub.MethodSpec{}, nil
	}

	method, err := f.Method(spec.Method)
	if err != nil {
		return nil, fakehub.MethodSpec{}, err
	}
	ms := f.Definition[spec.Method]

	var cfg *fake.Config
	if spec.Arguments == nil {
		cfg = fake.CallTo(method).WithAnyArguments()
	} else {
		constraints := make([]fake.ArgumentConstraint, len(spec.Arguments))
		for i, a := range spec.Arguments {
			typeName := ""
			if i < len(ms.Params) {
				typeName = ms.Params[i]
			}
			c, err := argumentConstraint(typeName, a)
			if err != nil {
				return nil, ms, fmt.Errorf("argument %d: %w", i, err)
			}
			constraints[i] = c
		}
		cfg = fake.CallTo(method, constraints...)
	}

	if spec.Where != "" {
		cfg.WhereExpression(spec.Where)
	}
	return cfg, ms, nil
}

func argumentConstraint(typeName string, a ArgumentSpec) (*constraint.Constraint, error) {
	b := constraint.That()
	if a.Not {
		b = b.Not()
	}

	switch {
	case a.Expression != "":
		return b.Satisfies(a.Expression)
	case a.Equals != nil:
		v, err := fakehub.Decode(typeName, a.Equals)
		if err != nil {
			return nil, err
		}
		return b.IsEqualTo(v), nil
	case a.Contains != "":
		return b.Contains(a.Contains), nil
	case a.Nil:
		return b.IsNil(), nil
	default:
		return b.IsAnything(), nil
	}
}

// ruleConfig adds the effects of req to its call selection.
func ruleConfig(f *fakehub.Fake, req CreateRuleRequest) (*fake.Config, error) {
	cfg, ms, err := callConfig(f, req.CallSpec)
	if err != nil {
		return nil, err
	}

	if req.Returns != nil && req.Error != "" {
		return nil, errors.New("returns and error cannot both be set")
	}
	if req.Returns != nil {
		v, err := fakehub.Decode(ms.Returns, req.Returns)
		if err != nil {
			return nil, fmt.Errorf("returns: %w", err)
		}
		cfg.Returns(v)
	}
	if req.Error != "" {
		cfg.Fails(errors.New(req.Error))
	}

	if req.OutValues != nil {
		if req.Method == "" {
			if err := checkUniversalOutValues(f.Definition, len(req.OutValues)); err != nil {
				return nil, err
			}
		}
		vals, err := decodeAll(ms.OutParams, req.OutValues)
		if err != nil {
			return nil, fmt.Errorf("outValues: %w", err)
		}
		cfg.AssignsOutValues(vals...)
	}

	if req.Times != nil {
		cfg.NumberOfTimes(*req.Times)
	}
	return cfg, nil
}

// checkUniversalOutValues requires every method of def to take n out
// values, since a rule without a method may apply to any of them.
func checkUniversalOutValues(def fakehub.Definition, n int) error {
	for _, name := range def.Names() {
		if got := len(def[name].OutParams); got != n {
			return fmt.Errorf("outValues: %d values assigned but %s has %d out parameters", n, name, got)
		}
	}
	return nil
}

// decodeAll decodes raw values by position; positions without a declared
// type decode generically.
func decodeAll(types []string, raw []json.RawMessage) ([]any, error) {
	vals := make([]any, len(raw))
	for i, r := range raw {
		typeName := ""
		if i < len(types) {
			typeName = types[i]
		}
		v, err := fakehub.Decode(typeName, r)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func repeatOf(spec RepeatSpec) (assertion.Repeat, error) {
	set := 0
	r := assertion.AtLeast(1)
	if spec.Exactly != nil {
		set++
		r = assertion.Exactly(*spec.Exactly)
	}
	if spec.AtLeast != nil {
		set++
		r = assertion.AtLeast(*spec.AtLeast)
	}
	if spec.AtMost != nil {
		set++
		r = assertion.AtMost(*spec.AtMost)
	}
	if spec.Never {
		set++
		r = assertion.Never()
	}
	if set > 1 {
		return assertion.Repeat{}, errors.New("repeat accepts only one of exactly, atLeast, atMost, never")
	}
	return r, nil
}

func ruleResponse(r *fake.Rule) RuleResponse {
	resp := RuleResponse{
		ID:           r.ID(),
		Kind:         r.Kind().String(),
		Description:  r.String(),
		TimesApplied: r.TimesApplied(),
	}
	if left := r.Remaining(); left >= 0 {
		resp.Remaining = &left
	}
	return resp
}

func callResponse(c *fake.Call) CallResponse {
	resp := CallResponse{
		Sequence:  c.Sequence(),
		Method:    c.Method.Identity.Name,
		Arguments: c.Args,
	}
	if resp.Arguments == nil {
		resp.Arguments = []any{}
	}
	if c.HasReturnValue() {
		resp.ReturnValue = c.ReturnValue()
	}
	if c.Method.OutParams > 0 {
		resp.OutValues = c.OutValues()
	}
	if err := c.Fault(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func fakeResponse(f *fakehub.Fake) FakeResponse {
	return FakeResponse{
		ID:         f.ID,
		Name:       f.Name,
		Definition: f.Definition,
		Rules:      f.Manager.Rules().Len(),
		Calls:      f.Manager.History().Len(),
		CreatedAt:  f.CreatedAt,
	}
}
