package fake

import (
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind tags the rule variants.
type Kind int

const (
	// KindUniversal applies to any call, optionally filtered by return type
	// and a whole-argument predicate.
	KindUniversal Kind = iota + 1

	// KindSpecification applies to one method and one set of argument constraints.
	KindSpecification

	// KindRecording binds itself to the next call it sees.
	KindRecording
)

func (k Kind) String() string {
	switch k {
	case KindUniversal:
		return "universal"
	case KindSpecification:
		return "specification"
	case KindRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// ArgumentConstraint decides whether one argument is accepted.
// *constraint.Constraint implements it.
type ArgumentConstraint interface {
	IsValid(arg any) bool
	String() string
}

// Where is an extra applicability predicate over the whole call.
type Where struct {
	Predicate   func(*Call) bool
	Description string
}

type argumentsPredicate struct {
	match       func(args []any) bool
	description string
}

type universalMatch struct {
	returnTypeSet bool
	returnType    reflect.Type
	args          *argumentsPredicate
}

type specificationMatch struct {
	method      Method
	constraints []ArgumentConstraint
	args        *argumentsPredicate
}

type recordingMatch struct {
	args        *argumentsPredicate
	then        *behavior
	checkReturn func(Method) error
	after       func(bound *Rule, call *Call) error
	finish      func(bound *Rule, err error)
}

// behavior is immutable; reconfiguring a rule swaps the pointer.
type behavior struct {
	where      []Where
	callbacks  []func(*Call)
	applicator func(*Call) error
	outValues  []any
	callBase   bool
	limit      int64
}

// Rule is a unit of fake behavior: an applicability test plus effects.
type Rule struct {
	id   string
	kind Kind

	universal *universalMatch
	spec      *specificationMatch
	recording *recordingMatch

	behavior atomic.Pointer[behavior]
	applied  atomic.Int64
}

func newRule(kind Kind, b *behavior) *Rule {
	r := &Rule{id: uuid.NewString(), kind: kind}
	r.behavior.Store(b)
	return r
}

// ID returns the rule's unique identifier.
func (r *Rule) ID() string {
	return r.id
}

// Kind returns the rule variant.
func (r *Rule) Kind() Kind {
	return r.kind
}

// Method returns the bound method of a specification rule.
func (r *Rule) Method() (Method, bool) {
	if r.kind != KindSpecification {
		return Method{}, false
	}
	return r.spec.method, true
}

// TimesApplied counts how often the rule has been applied.
func (r *Rule) TimesApplied() int {
	return int(r.applied.Load())
}

// Remaining reports how many applications are left; -1 when unbounded.
func (r *Rule) Remaining() int {
	b := r.behavior.Load()
	if b.limit == 0 {
		return -1
	}
	left := b.limit - r.applied.Load()
	if left < 0 {
		return 0
	}
	return int(left)
}

// Matches reports whether the call satisfies the rule's method, argument
// and where tests, ignoring the call-count ceiling.
func (r *Rule) Matches(call *Call) bool {
	return r.matches(call, r.behavior.Load())
}

// IsApplicableTo is Matches plus the call-count ceiling.
func (r *Rule) IsApplicableTo(call *Call) bool {
	b := r.behavior.Load()
	if b.limit > 0 && r.applied.Load() >= b.limit {
		return false
	}
	return r.matches(call, b)
}

func (r *Rule) matches(call *Call, b *behavior) bool {
	switch r.kind {
	case KindUniversal:
		u := r.universal
		if u.returnTypeSet && call.Method.ReturnType != u.returnType {
			return false
		}
		if u.args != nil && !u.args.match(call.Args) {
			return false
		}
	case KindSpecification:
		if !r.spec.matchesArguments(call) {
			return false
		}
	case KindRecording:
		// Unbound until the first call.
	default:
		return false
	}

	for _, w := range b.where {
		if !w.Predicate(call) {
			return false
		}
	}
	return true
}

func (s *specificationMatch) matchesArguments(call *Call) bool {
	if call.Method.Identity != s.method.Identity {
		return false
	}
	if s.args != nil {
		return s.args.match(call.Args)
	}
	if len(s.constraints) != len(call.Args) {
		return false
	}
	for i, c := range s.constraints {
		if !c.IsValid(call.Args[i]) {
			return false
		}
	}
	return true
}

// claim reserves one application against the ceiling in b.
func (r *Rule) claim(b *behavior) bool {
	if b.limit == 0 {
		r.applied.Add(1)
		return true
	}
	for {
		n := r.applied.Load()
		if n >= b.limit {
			return false
		}
		if r.applied.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// apply runs the effects of b in their fixed order: callbacks, applicator,
// out values, base call.
func (r *Rule) apply(call *Call, b *behavior) error {
	if r.kind == KindRecording {
		return r.bindRecording(call)
	}

	for _, cb := range b.callbacks {
		cb(call)
	}

	if b.applicator != nil {
		if err := b.applicator(call); err != nil {
			return err
		}
	}

	if b.outValues != nil {
		if len(b.outValues) != len(call.outValues) {
			panic(&InvariantViolation{Reason: "rule " + r.String() + " assigns " +
				strconv.Itoa(len(b.outValues)) + " out values but " + call.Method.String() +
				" has " + strconv.Itoa(len(call.outValues))})
		}
		copy(call.outValues, b.outValues)
	}

	if b.callBase {
		if call.Base == nil {
			return ErrNoBaseMethod
		}
		return call.Base(call)
	}
	return nil
}

// String describes the rule for diagnostics and assertion messages.
func (r *Rule) String() string {
	var b strings.Builder
	switch r.kind {
	case KindUniversal:
		b.WriteString("Any call")
		if r.universal.returnTypeSet {
			b.WriteString(" with return type ")
			b.WriteString(typeName(r.universal.returnType))
		}
		if r.universal.args != nil {
			b.WriteString(" with arguments <")
			b.WriteString(r.universal.args.description)
			b.WriteString(">")
		}
	case KindSpecification:
		b.WriteString(r.spec.method.String())
		b.WriteByte('(')
		if r.spec.args != nil {
			b.WriteString("<" + r.spec.args.description + ">")
		} else {
			for i, c := range r.spec.constraints {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(c.String())
			}
		}
		b.WriteByte(')')
	case KindRecording:
		b.WriteString("Next call")
	}

	where := r.behavior.Load().where
	if len(where) > 0 {
		descs := make([]string, len(where))
		for i, w := range where {
			descs[i] = w.Description
		}
		b.WriteString(" where ")
		b.WriteString(strings.Join(descs, " and "))
	}
	return b.String()
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "none"
	}
	return t.String()
}
