// Package expr compiles and evaluates CEL predicates used by argument
// constraints and call filters.
package expr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// DefaultCostLimit bounds the runtime cost of a single evaluation
const DefaultCostLimit uint64 = 1_000_000

// Variable names exposed to expressions
const (
	VarArg    = "arg"
	VarArgs   = "args"
	VarMethod = "method"
)

// Program is a compiled boolean expression
type Program struct {
	Expression string
	prog       cel.Program
}

// Eval runs the program against vars.
// Non-boolean results are treated as false.
func (p *Program) Eval(vars map[string]any) (bool, error) {
	out, _, err := p.prog.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", p.Expression, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, nil
	}
	return matched, nil
}

// String returns the source expression
func (p *Program) String() string {
	return p.Expression
}

// Compiler manages a CEL environment and a cache of compiled programs
// Safe for concurrent use
type Compiler struct {
	env       *cel.Env
	costLimit uint64
	cache     ProgramCache
}

// Option configures a Compiler
type Option func(*Compiler)

// WithCostLimit overrides DefaultCostLimit
func WithCostLimit(limit uint64) Option {
	return func(c *Compiler) {
		c.costLimit = limit
	}
}

// WithCache replaces the default in-memory cache
func WithCache(cache ProgramCache) Option {
	return func(c *Compiler) {
		c.cache = cache
	}
}

// NewCompiler creates a compiler for a custom environment
func NewCompiler(env *cel.Env, opts ...Option) *Compiler {
	c := &Compiler{
		env:       env,
		costLimit: DefaultCostLimit,
		cache:     NewInMemoryProgramCache(DefaultCacheConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewArgumentCompiler creates a compiler whose expressions see a single
// dynamically typed variable named "arg".
func NewArgumentCompiler(opts ...Option) (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarArg, cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return NewCompiler(env, opts...), nil
}

// NewCallCompiler creates a compiler whose expressions see "method" (the
// method identity as a string) and "args" (the argument list).
func NewCallCompiler(opts ...Option) (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarMethod, cel.StringType),
		cel.Variable(VarArgs, cel.ListType(cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return NewCompiler(env, opts...), nil
}

// Compile compiles expression, returning a cached program when available
func (c *Compiler) Compile(expression string) (*Program, error) {
	if prog, ok := c.cache.Get(expression); ok {
		return prog, nil
	}

	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := c.env.Program(ast,
		cel.CostLimit(c.costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	compiled := &Program{Expression: expression, prog: prog}
	c.cache.Set(expression, compiled)
	return compiled, nil
}

// Cache exposes the program cache
func (c *Compiler) Cache() ProgramCache {
	return c.cache
}

var (
	sharedMu   sync.Mutex
	sharedOpts []Option

	argumentsOnce = sync.OnceValues(func() (*Compiler, error) { return NewArgumentCompiler(sharedOptions()...) })
	callsOnce     = sync.OnceValues(func() (*Compiler, error) { return NewCallCompiler(sharedOptions()...) })
)

// ConfigureShared sets the options of the shared compilers. It has no
// effect once Arguments or Calls has been called.
func ConfigureShared(opts ...Option) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedOpts = opts
}

func sharedOptions() []Option {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedOpts
}

// Arguments returns the shared argument compiler
func Arguments() (*Compiler, error) {
	return argumentsOnce()
}

// Calls returns the shared call compiler
func Calls() (*Compiler, error) {
	return callsOnce()
}
