// Package fake implements the rule-resolution and call-interception engine
// behind a fake object.
//
// A proxy turns every call on the fake into a *Call and hands it to
// Manager.Intercept. The manager picks the first applicable rule of its
// Registry, applies it, and records the call in its History.
package fake

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/liamcoop/fakerules/internal/logger"
)

// DummyProvider synthesizes return values for calls no rule applies to.
type DummyProvider interface {
	TryCreate(t reflect.Type) (any, bool)
}

// DummyProviderFunc adapts a function to DummyProvider.
type DummyProviderFunc func(t reflect.Type) (any, bool)

// TryCreate calls f(t).
func (f DummyProviderFunc) TryCreate(t reflect.Type) (any, bool) {
	return f(t)
}

// ZeroValues provides the zero value of any type.
type ZeroValues struct{}

// TryCreate returns the zero value of t.
func (ZeroValues) TryCreate(t reflect.Type) (any, bool) {
	if t == nil {
		return nil, false
	}
	return reflect.Zero(t).Interface(), true
}

// Observer is notified after a call has been recorded.
type Observer interface {
	CallRecorded(call *Call)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(call *Call)

// CallRecorded calls f(call).
func (f ObserverFunc) CallRecorded(call *Call) {
	f(call)
}

// Option configures a Manager.
type Option func(*Manager)

// WithID overrides the generated manager ID.
func WithID(id string) Option {
	return func(m *Manager) {
		m.id = id
	}
}

// WithName names the fake in logs and diagnostics.
func WithName(name string) Option {
	return func(m *Manager) {
		m.name = name
	}
}

// WithDummyProvider replaces ZeroValues.
func WithDummyProvider(p DummyProvider) Option {
	return func(m *Manager) {
		m.dummies = p
	}
}

// WithObserver adds an observer for recorded calls.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, o)
	}
}

// WithLogger replaces the shared logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// Manager owns the rules and the call history of one fake.
type Manager struct {
	id        string
	name      string
	rules     *Registry
	history   *History
	dummies   DummyProvider
	observers []Observer
	log       *slog.Logger
}

// NewManager creates a manager with no rules.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		id:      uuid.NewString(),
		rules:   NewRegistry(),
		history: NewHistory(),
		dummies: ZeroValues{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name == "" {
		short := m.id
		if len(short) > 8 {
			short = short[:8]
		}
		m.name = "fake-" + short
	}
	if m.log == nil {
		m.log = logger.Component("fake")
	}
	m.log = m.log.With("fake", m.name)
	return m
}

// ID returns the manager's unique identifier.
func (m *Manager) ID() string {
	return m.id
}

// Name returns the fake's name.
func (m *Manager) Name() string {
	return m.name
}

// Rules returns the rule registry.
func (m *Manager) Rules() *Registry {
	return m.rules
}

// History returns the live call history.
func (m *Manager) History() *History {
	return m.history
}

// Configure builds cfg and gives the rule precedence over existing rules.
func (m *Manager) Configure(cfg *Config) (*Rule, error) {
	r, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	m.rules.InsertFirst(r)
	m.log.Debug("rule configured", "rule", r.id, "description", r.String(), "position", "first")
	return r, nil
}

// ConfigureLast builds cfg and gives the rule the lowest precedence.
func (m *Manager) ConfigureLast(cfg *Config) (*Rule, error) {
	r, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	m.rules.InsertLast(r)
	m.log.Debug("rule configured", "rule", r.id, "description", r.String(), "position", "last")
	return r, nil
}

// Reset clears the rules and the history.
func (m *Manager) Reset() {
	m.rules.Clear()
	m.history.reset()
}

// Intercept dispatches call: the first applicable rule is applied, or the
// dummy provider fills the return slot when none applies. The call is then
// recorded unless SuppressRecording was set. Recording also happens when
// the rule fails or panics; a rule's error is returned unmodified.
func (m *Manager) Intercept(call *Call) (err error) {
	if call.manager != nil {
		panic(&InvariantViolation{Reason: "call " + call.String() + " was already intercepted"})
	}
	call.manager = m

	defer func() {
		call.fault = err
		if call.SuppressRecording {
			return
		}
		m.history.append(call)
		for _, o := range m.observers {
			o.CallRecorded(call)
		}
	}()

	rule, b := m.selectRule(call)
	if rule == nil {
		m.applyDefault(call)
		m.trace("no rule applied", call, nil)
		return nil
	}

	m.trace("rule applied", call, rule)
	return rule.apply(call, b)
}

// selectRule scans one snapshot front to back. A rule whose ceiling is
// reached between the applicability test and the claim is skipped.
func (m *Manager) selectRule(call *Call) (*Rule, *behavior) {
	snap := m.rules.Snapshot()
	for _, rule := range snap.rules {
		b := rule.behavior.Load()
		if b.limit > 0 && rule.applied.Load() >= b.limit {
			continue
		}
		if !rule.matches(call, b) {
			continue
		}
		if rule.claim(b) {
			return rule, b
		}
	}
	return nil, nil
}

func (m *Manager) applyDefault(call *Call) {
	if call.Method.ReturnType == nil {
		return
	}
	if v, ok := m.dummies.TryCreate(call.Method.ReturnType); ok {
		call.SetReturnValue(v)
	}
}

func (m *Manager) trace(msg string, call *Call, rule *Rule) {
	if !m.log.Enabled(context.Background(), logger.LevelTrace) {
		return
	}
	attrs := []any{"call", call.String()}
	if rule != nil {
		attrs = append(attrs, "rule", rule.id, "kind", rule.kind.String())
	}
	m.log.Log(context.Background(), logger.LevelTrace, msg, attrs...)
}
