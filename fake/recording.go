package fake

import (
	"sync"

	"github.com/liamcoop/fakerules/constraint"
)

// Recorder is the handle of a recording rule. The rule binds to the next
// call intercepted by its manager: that call's method and arguments become
// a specification rule, and the call itself is not recorded.
type Recorder struct {
	rule    *Rule
	manager *Manager

	mu    sync.Mutex
	done  chan struct{}
	bound *Rule
	err   error
}

// RecordingOption configures NextCall.
type RecordingOption func(*recordingMatch) error

// WithArgumentsMatching replaces the equality constraints synthesized from
// the recorded call's arguments.
func WithArgumentsMatching(predicate func(args []any) bool, description string) RecordingOption {
	return func(rm *recordingMatch) error {
		rm.args = &argumentsPredicate{match: predicate, description: description}
		return nil
	}
}

// ThenConfigure installs the bound rule, with the effects of cfg, ahead of
// every other rule. cfg's method and argument tests are ignored.
func ThenConfigure(cfg *Config) RecordingOption {
	return func(rm *recordingMatch) error {
		probe := *cfg
		probe.kind = KindRecording
		b, err := probe.buildBehavior()
		if err != nil {
			return err
		}
		rm.then = b
		if probe.hasReturnValue {
			v := probe.returnValue
			rm.checkReturn = func(m Method) error { return checkReturnValue(m.ReturnType, v) }
		}
		return nil
	}
}

// ThenRun hands the bound rule and the recorded call to fn. The error fn
// returns is returned from Intercept for the recorded call.
func ThenRun(fn func(bound *Rule, call *Call) error) RecordingOption {
	return func(rm *recordingMatch) error {
		rm.after = fn
		return nil
	}
}

// NextCall registers a recording rule ahead of every other rule.
func (m *Manager) NextCall(opts ...RecordingOption) (*Recorder, error) {
	rm := &recordingMatch{}
	for _, opt := range opts {
		if err := opt(rm); err != nil {
			return nil, err
		}
	}

	r := newRule(KindRecording, &behavior{limit: 1})
	r.recording = rm

	rec := &Recorder{rule: r, manager: m, done: make(chan struct{})}
	rm.finish = rec.finish

	m.rules.InsertFirst(r)
	return rec, nil
}

// Rule returns the recording rule itself.
func (rec *Recorder) Rule() *Rule {
	return rec.rule
}

// Done is closed once the next call has been recorded.
func (rec *Recorder) Done() <-chan struct{} {
	return rec.done
}

// Bound returns the specification rule built from the recorded call.
func (rec *Recorder) Bound() (*Rule, bool) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.bound, rec.bound != nil
}

// Err returns the continuation's error, nil before the call is recorded.
func (rec *Recorder) Err() error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.err
}

// Cancel removes the recording rule if it has not fired yet.
func (rec *Recorder) Cancel() bool {
	return rec.manager.rules.Remove(rec.rule)
}

func (rec *Recorder) finish(bound *Rule, err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.bound = bound
	rec.err = err
	close(rec.done)
}

func (r *Rule) bindRecording(call *Call) error {
	rm := r.recording
	m := call.manager

	call.SuppressRecording = true
	m.rules.Remove(r)

	spec := &specificationMatch{method: call.Method, args: rm.args}
	if rm.args == nil {
		spec.constraints = make([]ArgumentConstraint, len(call.Args))
		for i, arg := range call.Args {
			spec.constraints[i] = constraint.EqualTo(arg)
		}
	}

	then := rm.then
	if then == nil {
		then = &behavior{}
	}
	if err := rm.validate(call.Method, then); err != nil {
		m.applyDefault(call)
		rm.finish(nil, err)
		return err
	}

	bound := newRule(KindSpecification, then)
	bound.spec = spec

	m.applyDefault(call)

	if rm.then != nil {
		m.rules.InsertFirst(bound)
	}

	var err error
	if rm.after != nil {
		err = rm.after(bound, call)
	}
	rm.finish(bound, err)
	return err
}

func (rm *recordingMatch) validate(method Method, then *behavior) error {
	if then.outValues != nil && len(then.outValues) != method.OutParams {
		return configErrorf(method.String(), "%d out values assigned but the method has %d out parameters",
			len(then.outValues), method.OutParams)
	}
	if rm.checkReturn != nil {
		if err := rm.checkReturn(method); err != nil {
			return configErrorf(method.String(), "%v", err)
		}
	}
	return nil
}
