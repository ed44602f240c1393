// Package assertion verifies how often a fake received a call.
//
// Assertions replay a fake's call history against an applicability test and
// a Repeat predicate. They read the live history, so they may run while
// other goroutines are still calling the fake.
package assertion

import (
	"fmt"
	"strings"

	"github.com/liamcoop/fakerules/fake"
)

// Source supplies recorded calls in order. *fake.History implements it.
type Source interface {
	Calls() []*fake.Call
}

// Failure explains an assertion that did not hold.
type Failure struct {
	Call   string
	Repeat string
	Actual int
	Calls  []string
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString("assertion failed for the following call:\n")
	b.WriteString("    " + f.Call + "\n")
	fmt.Fprintf(&b, "expected to find it %s but found it %s", f.Repeat, times(f.Actual))
	if len(f.Calls) == 0 {
		b.WriteString("; no calls were made to the fake")
		return b.String()
	}
	b.WriteString(" among the calls:\n")
	for i, c := range f.Calls {
		fmt.Fprintf(&b, "    %d: %s\n", i+1, c)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// AssertWasCalled counts the calls in source that satisfy test and checks
// the count with repeat. It returns a *Failure when repeat rejects it.
func AssertWasCalled(source Source, test func(*fake.Call) bool, callDescription string, repeat func(int) bool, repeatDescription string) error {
	calls := source.Calls()

	n := 0
	for _, c := range calls {
		if test(c) {
			n++
		}
	}
	if repeat(n) {
		return nil
	}

	rendered := make([]string, len(calls))
	for i, c := range calls {
		rendered[i] = render(c)
	}
	return &Failure{
		Call:   callDescription,
		Repeat: repeatDescription,
		Actual: n,
		Calls:  rendered,
	}
}

// Verify is AssertWasCalled with a Repeat value.
func Verify(source Source, test func(*fake.Call) bool, callDescription string, r Repeat) error {
	return AssertWasCalled(source, test, callDescription, r.Match, r.Description)
}

// Called asserts on the calls m received that cfg's rule would apply to.
// Only the method, argument and where tests of cfg are used.
func Called(m *fake.Manager, cfg *fake.Config, r Repeat) error {
	test, description, err := cfg.Matcher()
	if err != nil {
		return fmt.Errorf("building call matcher: %w", err)
	}
	return Verify(m.History(), test, description, r)
}

// NextCallTo arms an assertion on the next call made to m: that call
// describes what to look for and is itself not counted. Its Intercept
// returns the *Failure, if any.
func NextCallTo(m *fake.Manager, r Repeat) (*fake.Recorder, error) {
	return m.NextCall(fake.ThenRun(func(bound *fake.Rule, _ *fake.Call) error {
		return Verify(m.History(), bound.Matches, bound.String(), r)
	}))
}

func render(c *fake.Call) string {
	if err := c.Fault(); err != nil {
		return c.String() + " failed: " + err.Error()
	}
	return c.String()
}
